package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shopscrape/internal/api"
	"shopscrape/internal/auth"
	"shopscrape/internal/pgsink"
	"shopscrape/internal/progress"
	"shopscrape/internal/runs"
	"shopscrape/internal/scraper"
	"shopscrape/pkg/database"
	"shopscrape/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	scrapeCfg, err := utils.LoadScrapeConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	srvCfg := utils.LoadServerConfig()
	authCfg := utils.LoadAuthConfig()
	logger := utils.NewLogger(os.Stderr, scrapeCfg.LogLevel).With("component", "api-server")

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	runRepo := runs.NewRepo(db)
	sinks := []scraper.Sink{runRepo}

	baseCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	if scrapeCfg.PostgresDSN != "" {
		pg, pool, err := pgsink.Open(baseCtx, scrapeCfg.PostgresDSN)
		if err != nil {
			log.Printf("postgres sink disabled: %v", err)
		} else {
			defer pool.Close()
			sinks = append(sinks, pg)
		}
	}

	hub := progress.NewHub()
	svc := scraper.NewService(scrapeCfg, logger, sinks...)
	svc.Observe(hub.Publish)

	apiSrv := &api.Server{
		Scraper: svc,
		Runs:    runRepo,
		Hub:     hub,
		DB:      db,
		Tokens: auth.TokenService{
			Secret:   []byte(authCfg.JWTSecret),
			Issuer:   authCfg.JWTIssuer,
			Duration: authCfg.JWTDuration,
		},
		PasswordHash: authCfg.PasswordHash,
		Logger:       logger,
		BaseContext:  baseCtx,
	}
	if authCfg.PasswordHash == "" {
		log.Println("SHOPSCRAPE_ADMIN_PASSWORD_HASH not set: operator login is disabled")
	}

	httpSrv := &http.Server{
		Addr:              srvCfg.HTTPAddr,
		Handler:           apiSrv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var tcpSrv *progress.Server
	if srvCfg.ProgressAddr != "" {
		tcpSrv = progress.NewServer(srvCfg.ProgressAddr, hub, logger)
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if tcpSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s (db %s)", srvCfg.HTTPAddr, dbCfg.Path)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			log.Printf("tcp shutdown error: %v", err)
		}
	}
	cancelRuns()
	apiSrv.Wait()

	wg.Wait()
	log.Println("servers stopped")
}
