package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopscrape/internal/mockshop"
	"shopscrape/pkg/utils"
)

// mock-storefront serves a fixture catalog in the storefront JSON format,
// for demos without a live shop.
func main() {
	fixture := flag.String("fixture", "data/mockshop.json", "fixture file")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	shop, err := mockshop.Load(*fixture)
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}

	addr := utils.LoadServerConfig().MockAddr
	log.Printf("mock storefront listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, shop.Handler()))
}
