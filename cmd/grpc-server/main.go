package main

import (
	"log"
	"net"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"shopscrape/internal/grpcserver"
	"shopscrape/internal/runs"
	"shopscrape/pkg/database"
	"shopscrape/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	srvCfg := utils.LoadServerConfig()
	listener, err := net.Listen("tcp", srvCfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	svc := grpcserver.NewServer(runs.NewRepo(db))

	grpcServer := grpc.NewServer()
	grpcserver.RegisterRunServiceServer(grpcServer, svc)

	log.Printf("gRPC server listening on %s", srvCfg.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
