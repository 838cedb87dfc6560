// Package signalbus reads cross-system signals (CRM events, scrape findings,
// ops notes) from a Kafka topic. Lookups are strictly best-effort: a broker
// that is down, slow, or emitting garbage yields an empty result, never an
// error, so the absence of signal can never block a decision.
package signalbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/adcounsel/adcounsel/internal/ads"
)

const (
	// MaxLookbackDays caps how far back a lookup may scan.
	MaxLookbackDays = 30
	// DefaultLookbackDays is used when a lookup does not specify a window.
	DefaultLookbackDays = 7
)

// Result is the answer to one signal lookup.
type Result struct {
	Topic   string       `json:"topic"`
	Signals []ads.Signal `json:"signals"`
	Count   int          `json:"count"`
}

// Source fetches raw signals observed since a time. Implementations may
// return an error; the Reader absorbs it.
type Source interface {
	Fetch(ctx context.Context, since time.Time) ([]ads.Signal, error)
}

// Reader filters a source's signals down to one topic over a bounded window.
type Reader struct {
	src Source
	now func() time.Time
}

// NewReader creates a reader over the given source.
func NewReader(src Source) *Reader {
	return &Reader{src: src, now: time.Now}
}

// Lookup returns signals matching the topic within the lookback window.
// lookbackDays defaults to 7 and is clamped to 30. Backend failures degrade
// to an empty result.
func (r *Reader) Lookup(ctx context.Context, topic string, lookbackDays int) Result {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if lookbackDays > MaxLookbackDays {
		lookbackDays = MaxLookbackDays
	}

	res := Result{Topic: topic, Signals: []ads.Signal{}}
	if r.src == nil {
		return res
	}

	since := r.now().AddDate(0, 0, -lookbackDays)
	signals, err := r.src.Fetch(ctx, since)
	if err != nil {
		slog.Warn("signalbus: fetch failed, degrading to empty result", "topic", topic, "error", err)
		return res
	}

	for _, s := range signals {
		if s.ObservedAt.Before(since) {
			continue
		}
		if !topicMatches(s.Topic, topic) {
			continue
		}
		res.Signals = append(res.Signals, s)
	}
	res.Count = len(res.Signals)
	return res
}

// topicMatches accepts exact and substring matches either way, so a lookup
// for "budget" sees signals tagged "budget_pacing" and vice versa.
func topicMatches(signalTopic, queryTopic string) bool {
	if queryTopic == "" {
		return true
	}
	st := strings.ToLower(strings.TrimSpace(signalTopic))
	qt := strings.ToLower(strings.TrimSpace(queryTopic))
	return strings.Contains(st, qt) || strings.Contains(qt, st)
}

// KafkaSource scans a signals topic with segmentio/kafka-go. Each message
// value is one JSON-encoded signal; undecodable messages are skipped.
type KafkaSource struct {
	Brokers     string
	Topic       string
	ReadTimeout time.Duration
}

// Fetch reads the topic from the beginning until the read deadline or the
// context expires, keeping signals observed since the cutoff.
func (k *KafkaSource) Fetch(ctx context.Context, since time.Time) ([]ads.Signal, error) {
	timeout := k.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     strings.Split(k.Brokers, ","),
		Topic:       k.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	var out []ads.Signal
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			// Deadline or context end: the scan is over, return what we have.
			if ctx.Err() != nil {
				return out, nil
			}
			return out, err
		}
		var s ads.Signal
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			slog.Debug("signalbus: skipping undecodable message", "offset", msg.Offset, "error", err)
			continue
		}
		if s.ObservedAt.Before(since) {
			continue
		}
		out = append(out, s)
	}
}

// MemorySource is an in-process source backed by a slice.
type MemorySource struct {
	Entries []ads.Signal
	Err     error
}

// Fetch returns the configured entries observed since the cutoff.
func (m *MemorySource) Fetch(_ context.Context, since time.Time) ([]ads.Signal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []ads.Signal
	for _, s := range m.Entries {
		if !s.ObservedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}
