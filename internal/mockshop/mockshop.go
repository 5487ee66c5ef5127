// Package mockshop serves a storefront JSON catalog from a fixture so the
// scraper can be exercised without touching a real shop.
package mockshop

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"shopscrape/pkg/models"
)

// Fixture is the on-disk format read by Load.
type Fixture struct {
	Collections        []models.Collection          `json:"collections"`
	CollectionProducts map[string][]json.RawMessage `json:"collection_products"`
	Products           []json.RawMessage            `json:"products"`
}

// Shop answers /collections.json, /collections/:handle/products.json and
// /products.json with limit/page slicing of the fixture.
type Shop struct {
	fixture Fixture

	mu       sync.Mutex
	requests map[string]int
	failures map[string]int
}

func New(f Fixture) *Shop {
	if f.CollectionProducts == nil {
		f.CollectionProducts = map[string][]json.RawMessage{}
	}
	return &Shop{
		fixture:  f,
		requests: make(map[string]int),
		failures: make(map[string]int),
	}
}

// Load reads a fixture file.
func Load(path string) (*Shop, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("fixture invalid JSON: %w", err)
	}
	return New(f), nil
}

// FailPath makes every request to path answer with the given status.
func (s *Shop) FailPath(path string, status int) {
	s.mu.Lock()
	s.failures[path] = status
	s.mu.Unlock()
}

// Requests returns how many times path was requested.
func (s *Shop) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Shop) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.track)

	r.GET("/collections.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"collections": s.fixture.Collections})
	})
	r.GET("/collections/:handle/products.json", func(c *gin.Context) {
		items, ok := s.fixture.CollectionProducts[c.Param("handle")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"errors": "Not Found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": paginate(c, items)})
	})
	r.GET("/products.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"products": paginate(c, s.fixture.Products)})
	})
	return r
}

func (s *Shop) track(c *gin.Context) {
	path := c.Request.URL.Path
	s.mu.Lock()
	s.requests[path]++
	status, fail := s.failures[path]
	s.mu.Unlock()

	if fail {
		c.AbortWithStatusJSON(status, gin.H{"errors": http.StatusText(status)})
		return
	}
	c.Next()
}

func paginate(c *gin.Context, items []json.RawMessage) []json.RawMessage {
	limit := queryInt(c, "limit", 30)
	page := queryInt(c, "page", 1)
	if limit <= 0 {
		limit = 30
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []json.RawMessage{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
