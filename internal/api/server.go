// Package api wires the HTTP surface: health, operator login, scrape
// triggering, run history and the websocket progress feed.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopscrape/internal/auth"
	"shopscrape/internal/progress"
	"shopscrape/internal/runs"
	"shopscrape/internal/scraper"
	"shopscrape/pkg/models"
)

// Scraper is the part of *scraper.Service the API drives.
type Scraper interface {
	ScrapeAs(ctx context.Context, runID, site string) (models.Run, error)
}

type Server struct {
	Scraper      Scraper
	Runs         *runs.Repo
	Hub          *progress.Hub
	DB           *sql.DB
	Tokens       auth.TokenService
	PasswordHash string
	Logger       *slog.Logger

	// BaseContext bounds background runs; cancel it to abort the active run.
	BaseContext context.Context

	mu      sync.Mutex
	current string // id of the active run, empty when idle
	wg      sync.WaitGroup
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog)
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", s.health)

	auth.NewHandler(s.PasswordHash, s.Tokens).RegisterRoutes(router.Group("/auth"))

	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(s.Tokens))
	protected.POST("/scrapes", s.startScrape)
	protected.GET("/scrapes/current", s.currentScrape)
	runs.NewHandler(s.Runs).RegisterRoutes(protected.Group("/runs"))
	if s.Hub != nil {
		protected.GET("/ws", progress.WSHandler(s.Hub, s.logger()))
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.Hub != nil {
		stats := s.Hub.Stats()
		body["tcp_clients"] = stats.TCPClients
		body["ws_clients"] = stats.WSClients
	}
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(ctx); err != nil {
			body["status"] = "degraded"
			body["db_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["db"] = "ok"
	}
	c.JSON(http.StatusOK, body)
}

type scrapeReq struct {
	Site string `json:"site"`
}

// startScrape accepts one run at a time; the pipeline is strictly
// sequential, so a second request while a run is active gets 409.
func (s *Server) startScrape(c *gin.Context) {
	var req scrapeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	site := strings.TrimSpace(req.Site)
	if site == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site required"})
		return
	}

	runID := uuid.NewString()
	s.mu.Lock()
	if s.current != "" {
		active := s.current
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a scrape is already running", "run_id": active})
		return
	}
	s.current = runID
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.current = ""
			s.mu.Unlock()
		}()
		if _, err := s.Scraper.ScrapeAs(s.baseContext(), runID, site); err != nil {
			s.logger().Warn("background scrape failed", "run_id", runID, "site", site, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "site": site, "status": "accepted"})
}

func (s *Server) currentScrape(c *gin.Context) {
	s.mu.Lock()
	active := s.current
	s.mu.Unlock()

	body := gin.H{"running": active != "", "run_id": active}
	if s.Hub != nil {
		if ev, ok := s.Hub.Last(); ok {
			body["last_event"] = ev
		}
	}
	c.JSON(http.StatusOK, body)
}

// Wait blocks until the background run, if any, has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) baseContext() context.Context {
	if s.BaseContext != nil {
		return s.BaseContext
	}
	return context.Background()
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger().Debug("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"took", time.Since(start).Round(time.Microsecond))
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

var _ Scraper = (*scraper.Service)(nil)
