package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shopscrape/internal/export"
	"shopscrape/internal/storefront"
	"shopscrape/pkg/models"
	"shopscrape/pkg/utils"
)

// Sink stores a finished run. Sinks are optional: a failing sink is logged
// and does not fail the run.
type Sink interface {
	SaveRun(ctx context.Context, run models.Run, records []models.Record) error
}

// Service runs one full scrape per call: detect, collect, write the CSV,
// then hand the run to every sink.
type Service struct {
	Config    utils.ScrapeConfig
	HTTP      storefront.Doer // nil uses a default client
	Sinks     []Sink
	Logger    *slog.Logger
	Observers []func(Event)

	// Pause replaces the inter-request sleep. Tests set it to skip delays.
	Pause func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

func NewService(cfg utils.ScrapeConfig, logger *slog.Logger, sinks ...Sink) *Service {
	return &Service{Config: cfg, Logger: logger, Sinks: sinks}
}

// Observe registers fn for progress events of every later run.
func (s *Service) Observe(fn func(Event)) {
	s.Observers = append(s.Observers, fn)
}

// Scrape exports the catalog of site. The returned run is filled in even
// when err is non-nil, with Status set to models.RunFailed.
func (s *Service) Scrape(ctx context.Context, site string) (models.Run, error) {
	return s.ScrapeAs(ctx, uuid.NewString(), site)
}

// ScrapeAs is Scrape with a caller-chosen run id.
func (s *Service) ScrapeAs(ctx context.Context, runID, site string) (models.Run, error) {
	run := models.Run{
		ID:        runID,
		Site:      site,
		StartedAt: s.now(),
	}
	logger := s.logger().With("run_id", run.ID)
	notify := func(ev Event) {
		ev.RunID = run.ID
		ev.Site = run.Site
		ev.At = s.now()
		for _, fn := range s.Observers {
			fn(ev)
		}
	}
	notify(Event{Type: EventRunStarted})

	records, err := s.scrape(ctx, &run, logger, notify)
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
		logger.Error("scrape failed", "site", run.Site, "error", err)
		notify(Event{Type: EventRunFailed, Message: err.Error()})
		s.save(ctx, logger, run, nil)
		return run, err
	}

	run.Status = models.RunSucceeded
	run.Summary = Summarize(records)
	logger.Info("scrape finished",
		"site", run.Site,
		"records", run.Summary.Records,
		"output", run.OutputPath,
		"took", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	notify(Event{Type: EventRunFinished, Count: len(records), Message: run.OutputPath})
	s.save(ctx, logger, run, records)
	return run, nil
}

func (s *Service) scrape(ctx context.Context, run *models.Run, logger *slog.Logger, notify func(Event)) ([]models.Record, error) {
	cfg := s.Config

	baseURL, err := storefront.NormalizeBaseURL(run.Site)
	if err != nil {
		return nil, err
	}
	run.Site = baseURL

	keys, err := ParseKeyFields(cfg.Identity)
	if err != nil {
		return nil, err
	}
	profile, err := export.Profile(cfg.Profile)
	if err != nil {
		return nil, err
	}
	labels := models.LabelsFor(cfg.Locale)

	client := storefront.NewClient(baseURL, storefront.Options{
		HTTP:           s.HTTP,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Cookie:         cfg.Cookie,
		ProbeTimeout:   cfg.ProbeTimeout,
		DataTimeout:    cfg.DataTimeout,
		Logger:         logger,
	})

	logger.Info("detecting storefront", "site", baseURL)
	if !client.Detect(ctx) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", baseURL, ErrNotStorefront)
	}

	pl := &Pipeline{
		Catalog: client,
		Paginator: &Paginator{
			PageSize: cfg.PageSize,
			Delay:    cfg.Delay,
			MaxPages: cfg.MaxPages,
			Pause:    s.Pause,
			Logger:   logger,
			Notify:   notify,
		},
		Keys:          keys,
		AllItemsLabel: labels.AllItems,
		Delay:         cfg.Delay,
		Logger:        logger,
		Notify:        notify,
	}
	records, err := pl.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		logger.Warn("no records collected, nothing to save", "site", baseURL)
		return records, nil
	}

	path := filepath.Join(cfg.OutputDir, export.Filename(baseURL))
	cols := export.Columns(profile, records, labels)
	if err := export.WriteFile(path, cols, records, labels); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	run.OutputPath = path
	return records, nil
}

func (s *Service) save(ctx context.Context, logger *slog.Logger, run models.Run, records []models.Record) {
	// a cancelled run is still recorded
	ctx = context.WithoutCancel(ctx)
	for _, sink := range s.Sinks {
		if err := sink.SaveRun(ctx, run, records); err != nil {
			logger.Warn("sink failed", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// IsCancelled reports whether err comes from an interrupted run.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
