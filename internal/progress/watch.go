package progress

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"shopscrape/internal/scraper"
)

// Follow reads a line-delimited event feed and calls fn for each event
// until fn returns false or r ends. Welcome lines and lines that are not
// events are skipped.
func Follow(r io.Reader, fn func(scraper.Event) bool) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var ev scraper.Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil || ev.RunID == "" {
			continue
		}
		if !fn(ev) {
			return nil
		}
	}
	return sc.Err()
}

// Describe renders ev as one line for a terminal.
func Describe(ev scraper.Event) string {
	switch ev.Type {
	case scraper.EventRunStarted:
		return fmt.Sprintf("run %s started: %s", ev.RunID, ev.Site)
	case scraper.EventCollections:
		return fmt.Sprintf("%d of %d collections to walk", ev.Count, ev.Total)
	case scraper.EventPage:
		return fmt.Sprintf("[%s] page %d: %d products (%d so far)", ev.Source, ev.Page, ev.Count, ev.Total)
	case scraper.EventSourceDone:
		return fmt.Sprintf("[%s] done: %d products, %d records total", ev.Source, ev.Count, ev.Total)
	case scraper.EventDeduplicated:
		return fmt.Sprintf("%d unique records out of %d", ev.Count, ev.Total)
	case scraper.EventRunFinished:
		return fmt.Sprintf("run %s finished: %d records -> %s", ev.RunID, ev.Count, ev.Message)
	case scraper.EventRunFailed:
		return fmt.Sprintf("run %s failed: %s", ev.RunID, ev.Message)
	default:
		return ev.Type
	}
}

// Terminal reports whether ev ends a run.
func Terminal(ev scraper.Event) bool {
	return ev.Type == scraper.EventRunFinished || ev.Type == scraper.EventRunFailed
}
