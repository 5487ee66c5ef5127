package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"shopscrape/internal/export"
	"shopscrape/internal/runs"
	"shopscrape/pkg/database"
	"shopscrape/pkg/models"
	"shopscrape/pkg/utils"
)

// export-csv writes a stored run back to CSV, optionally with another
// column profile or label locale than the original run used.
func main() {
	var (
		runID   = flag.String("run", "", "run id (default: latest successful run)")
		out     = flag.String("out", "", "output CSV path (default: <output dir>/<host>_products.csv)")
		profile = flag.String("profile", utils.ProfileFull, "column profile: full or basic")
		locale  = flag.String("locale", "en", "label locale")
	)
	flag.Parse()
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	repo := runs.NewRepo(db)

	run, err := pickRun(ctx, repo, *runID)
	if err != nil {
		log.Fatalf("find run failed: %v", err)
	}

	cols, err := export.Profile(*profile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	records, err := repo.AllRecords(ctx, run.ID)
	if err != nil {
		log.Fatalf("load records failed: %v", err)
	}

	path := *out
	if path == "" {
		cfg, err := utils.LoadScrapeConfig()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		path = filepath.Join(cfg.OutputDir, export.Filename(run.Site))
	}

	labels := models.LabelsFor(*locale)
	if err := export.WriteFile(path, export.Columns(cols, records, labels), records, labels); err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.Printf("exported %d records of run %s (%s) to %s", len(records), run.ID, run.Site, path)
}

func pickRun(ctx context.Context, repo *runs.Repo, id string) (models.Run, error) {
	if id != "" {
		return repo.GetRun(ctx, id)
	}
	items, _, err := repo.ListRuns(ctx, runs.ListQuery{Status: models.RunSucceeded, Limit: 1})
	if err != nil {
		return models.Run{}, err
	}
	if len(items) == 0 {
		return models.Run{}, runs.ErrNotFound
	}
	return items[0], nil
}
