package runs

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shopscrape/internal/export"
	"shopscrape/pkg/models"
	"shopscrape/pkg/utils"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                    // GET /runs
	rg.GET("/:id", h.get)                 // GET /runs/:id
	rg.GET("/:id/records", h.records)     // GET /runs/:id/records
	rg.GET("/:id/export.csv", h.exportCSV) // GET /runs/:id/export.csv
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Site:   c.Query("site"),
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	items, total, err := h.Repo.ListRuns(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) get(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) records(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}

	limit := parseInt(c.Query("limit"), 100)
	offset := parseInt(c.Query("offset"), 0)
	items, err := h.Repo.ListRecords(c.Request.Context(), run.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list records failed"})
		return
	}
	if items == nil {
		items = []models.Record{}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": run.ID,
		"total":  run.Summary.Records,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

// exportCSV re-renders a stored run. ?profile= and ?locale= override the
// defaults (full, en).
func (h *Handler) exportCSV(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}

	profile, err := export.Profile(c.DefaultQuery("profile", utils.ProfileFull))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	labels := models.LabelsFor(c.DefaultQuery("locale", "en"))

	records, err := h.Repo.AllRecords(c.Request.Context(), run.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load records failed"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(run.Site)))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, export.Columns(profile, records, labels), records, labels); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) lookup(c *gin.Context) (models.Run, bool) {
	run, err := h.Repo.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return models.Run{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return models.Run{}, false
	}
	return run, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
