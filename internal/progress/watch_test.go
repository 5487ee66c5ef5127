package progress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopscrape/internal/scraper"
)

func TestFollowSkipsNonEvents(t *testing.T) {
	feed := strings.Join([]string{
		`{"type":"welcome","transport":"tcp","clients":1}`,
		`not json`,
		`{"type":"run.started","run_id":"r1","site":"https://shop.example","at":"2024-01-01T00:00:00Z"}`,
		`{"type":"source.page","run_id":"r1","source":"Shirts","page":1,"count":2,"total":2,"at":"2024-01-01T00:00:01Z"}`,
		`{"type":"run.finished","run_id":"r1","count":3,"at":"2024-01-01T00:00:02Z"}`,
		`{"type":"run.started","run_id":"r2","at":"2024-01-01T00:00:03Z"}`,
	}, "\n")

	var got []string
	err := Follow(strings.NewReader(feed), func(ev scraper.Event) bool {
		got = append(got, ev.Type)
		return !Terminal(ev)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{scraper.EventRunStarted, scraper.EventPage, scraper.EventRunFinished}, got)
}

func TestDescribe(t *testing.T) {
	cases := map[string]struct {
		ev   scraper.Event
		want string
	}{
		"page": {
			ev:   scraper.Event{Type: scraper.EventPage, Source: "Shirts", Page: 2, Count: 250, Total: 500},
			want: "[Shirts] page 2: 250 products (500 so far)",
		},
		"failed": {
			ev:   scraper.Event{Type: scraper.EventRunFailed, RunID: "r1", Message: "no collections found"},
			want: "run r1 failed: no collections found",
		},
		"unknown": {
			ev:   scraper.Event{Type: "other"},
			want: "other",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Describe(tc.ev))
		})
	}
}
