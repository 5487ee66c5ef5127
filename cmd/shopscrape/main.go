package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"shopscrape/internal/pgsink"
	"shopscrape/internal/runs"
	"shopscrape/internal/scraper"
	"shopscrape/pkg/database"
	"shopscrape/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := utils.LoadScrapeConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel).With("component", "shopscrape")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []scraper.Sink
	if db, err := database.OpenAndMigrate(database.DefaultConfig()); err != nil {
		logger.Warn("run history disabled", "error", err)
	} else {
		defer db.Close()
		sinks = append(sinks, runs.NewRepo(db))
	}
	if cfg.PostgresDSN != "" {
		pg, pool, err := pgsink.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Warn("postgres sink disabled", "error", err)
		} else {
			defer pool.Close()
			sinks = append(sinks, pg)
		}
	}

	svc := scraper.NewService(cfg, logger, sinks...)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Store URL (q to quit): ")
		if !in.Scan() {
			fmt.Println()
			return
		}
		site := strings.TrimSpace(in.Text())
		switch strings.ToLower(site) {
		case "":
			continue
		case "q", "quit", "exit":
			return
		}

		run, err := svc.Scrape(ctx, site)
		switch {
		case scraper.IsCancelled(err):
			fmt.Println("Interrupted, nothing written.")
			return
		case errors.Is(err, scraper.ErrNotStorefront):
			fmt.Printf("%s does not look like a supported storefront.\n", run.Site)
		case errors.Is(err, scraper.ErrNoCollections):
			fmt.Printf("No collections found on %s.\n", run.Site)
		case err != nil:
			fmt.Printf("Scrape failed: %v\n", err)
		default:
			if run.OutputPath == "" {
				fmt.Println("No products found; nothing saved.")
				continue
			}
			s := run.Summary
			fmt.Printf("Saved %d rows (%d products, %d categories) to %s\n", s.Records, s.Products, s.Categories, run.OutputPath)
			if s.MinPrice != "" {
				fmt.Printf("Prices %s to %s, %d on sale, %d sold out\n", s.MinPrice, s.MaxPrice, s.OnSale, s.SoldOut)
			}
		}
	}
}
