package signalbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
)

func TestLookupFiltersByTopicAndWindow(t *testing.T) {
	now := time.Now().UTC()
	src := &MemorySource{Entries: []ads.Signal{
		{Topic: "budget_pacing", Source: "crm", Summary: "Q3 spend freeze lifted", ObservedAt: now.AddDate(0, 0, -2)},
		{Topic: "budget_pacing", Source: "crm", Summary: "old news", ObservedAt: now.AddDate(0, 0, -20)},
		{Topic: "serp_rank", Source: "scraper", Summary: "competitor outranking us", ObservedAt: now.AddDate(0, 0, -1)},
	}}

	res := NewReader(src).Lookup(context.Background(), "budget", 7)
	if res.Count != 1 {
		t.Fatalf("count = %d, want 1 (got %+v)", res.Count, res.Signals)
	}
	if res.Signals[0].Summary != "Q3 spend freeze lifted" {
		t.Errorf("unexpected signal: %+v", res.Signals[0])
	}
}

func TestLookupDefaultsAndClampsLookback(t *testing.T) {
	now := time.Now().UTC()
	src := &MemorySource{Entries: []ads.Signal{
		{Topic: "crm", Summary: "day 5", ObservedAt: now.AddDate(0, 0, -5)},
		{Topic: "crm", Summary: "day 10", ObservedAt: now.AddDate(0, 0, -10)},
		{Topic: "crm", Summary: "day 45", ObservedAt: now.AddDate(0, 0, -45)},
	}}
	r := NewReader(src)

	if res := r.Lookup(context.Background(), "crm", 0); res.Count != 1 {
		t.Errorf("default 7-day lookback should see 1 signal, got %d", res.Count)
	}
	if res := r.Lookup(context.Background(), "crm", 500); res.Count != 2 {
		t.Errorf("lookback clamped to 30 days should see 2 signals, got %d", res.Count)
	}
}

func TestLookupDegradesOnBackendFailure(t *testing.T) {
	src := &MemorySource{Err: errors.New("broker unreachable")}
	res := NewReader(src).Lookup(context.Background(), "crm", 7)
	if res.Count != 0 || len(res.Signals) != 0 {
		t.Fatalf("backend failure must degrade to empty, got %+v", res)
	}
	if res.Signals == nil {
		t.Fatal("signals must be an empty slice, not nil, for stable JSON output")
	}
}

func TestLookupWithoutSource(t *testing.T) {
	res := NewReader(nil).Lookup(context.Background(), "crm", 7)
	if res.Count != 0 || res.Signals == nil {
		t.Fatalf("nil source must degrade to empty, got %+v", res)
	}
}

func TestTopicMatches(t *testing.T) {
	cases := []struct {
		signal, query string
		want          bool
	}{
		{"budget_pacing", "budget", true},
		{"budget", "budget_pacing", true},
		{"CRM", "crm", true},
		{"serp_rank", "budget", false},
		{"anything", "", true},
	}
	for _, c := range cases {
		if got := topicMatches(c.signal, c.query); got != c.want {
			t.Errorf("topicMatches(%q, %q) = %v, want %v", c.signal, c.query, got, c.want)
		}
	}
}
