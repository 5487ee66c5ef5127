package models

import "time"

const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one scrape of one site, as stored in the history database.
type Run struct {
	ID         string    `json:"id"`
	Site       string    `json:"site"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
}

// Summary is computed once per run from the deduplicated records.
type Summary struct {
	Records    int    `json:"records"`
	Products   int    `json:"products"`
	Categories int    `json:"categories"`
	InStock    int    `json:"in_stock"`
	SoldOut    int    `json:"sold_out"`
	Unknown    int    `json:"unknown"`
	OnSale     int    `json:"on_sale"`
	MinPrice   string `json:"min_price,omitempty"`
	MaxPrice   string `json:"max_price,omitempty"`
}
