// Package history computes trend summaries and action-aftermath analysis
// from the daily metric series in the store.
package history

import (
	"fmt"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/store"
)

const (
	// MaxDays caps the trailing window a query may request.
	MaxDays = 90
	// DefaultDays is used when a query does not specify a window.
	DefaultDays = 30

	// actionLookbackDays bounds how far back executed actions are correlated.
	actionLookbackDays = 90
	// actionWindowDays is the before/after comparison window around an action.
	actionWindowDays = 7

	// trendThresholdPct is the CPA change beyond which a trend is no longer
	// classified as stable.
	trendThresholdPct = 10
)

// Trend directions.
const (
	TrendImproving    = "improving"
	TrendDeclining    = "declining"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// MetricsSource is the slice of the store the reader consumes.
type MetricsSource interface {
	GetDailyMetrics(entityType, entityID string, days int) ([]ads.DailyMetric, error)
	GetDailyMetricsRange(entityType, entityID string, from, to time.Time) ([]ads.DailyMetric, error)
	GetActionsForCampaign(campaignID string, since time.Time) ([]ads.ExecutedAction, error)
	GetActionsForKeyword(keywordText string, since time.Time) ([]ads.ExecutedAction, error)
}

// Query identifies exactly one entity and an optional trailing window.
type Query struct {
	CampaignID  string
	KeywordText string
	Days        int
}

// Trend summarizes the older-half vs recent-half comparison of the series.
type Trend struct {
	Direction    string  `json:"direction"`
	OlderAvgCPA  float64 `json:"older_avg_cpa"`
	RecentAvgCPA float64 `json:"recent_avg_cpa"`
	OlderAvgCTR  float64 `json:"older_avg_ctr"`
	RecentAvgCTR float64 `json:"recent_avg_ctr"`
	CPAChangePct float64 `json:"cpa_change_pct"`
}

// ActionImpact is the measured aftermath of one past executed action.
type ActionImpact struct {
	ActionID     string    `json:"action_id"`
	ActionType   string    `json:"action_type"`
	ExecutedAt   time.Time `json:"executed_at"`
	CPABefore    float64   `json:"cpa_before"`
	CPAAfter     float64   `json:"cpa_after"`
	CPAChangePct float64   `json:"cpa_change_pct"`
	Note         string    `json:"note,omitempty"`
}

// Report is the full historical-performance answer for one entity.
type Report struct {
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Days          int               `json:"days"`
	DaysWithData  int               `json:"days_with_data"`
	TotalCost     float64           `json:"total_cost"`
	TotalClicks   int64             `json:"total_clicks"`
	TotalConv     float64           `json:"total_conversions"`
	Trend         Trend             `json:"trend"`
	ActionImpacts []ActionImpact    `json:"action_impacts"`
	Series        []ads.DailyMetric `json:"series,omitempty"`
}

// Reader fetches and summarizes past performance.
type Reader struct {
	src MetricsSource
	now func() time.Time
}

// NewReader creates a reader over the given metrics source.
func NewReader(src MetricsSource) *Reader {
	return &Reader{src: src, now: time.Now}
}

// Read validates the query, fetches the series, and builds the report.
func (r *Reader) Read(q Query) (*Report, error) {
	if (q.CampaignID == "") == (q.KeywordText == "") {
		return nil, fmt.Errorf("exactly one of campaign_id or keyword_text is required")
	}
	days := q.Days
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		return nil, fmt.Errorf("days must be at most %d, got %d", MaxDays, days)
	}

	entityType, entityID := store.EntityCampaign, q.CampaignID
	if q.KeywordText != "" {
		entityType, entityID = store.EntityKeyword, q.KeywordText
	}

	series, err := r.src.GetDailyMetrics(entityType, entityID, days)
	if err != nil {
		return nil, fmt.Errorf("fetch daily metrics: %w", err)
	}

	report := &Report{
		EntityType: entityType,
		EntityID:   entityID,
		Days:       days,
		Trend:      computeTrend(series),
		Series:     series,
	}
	for _, m := range series {
		if !m.Empty() {
			report.DaysWithData++
		}
		report.TotalCost += m.Cost
		report.TotalClicks += m.Clicks
		report.TotalConv += m.Conversions
	}

	impacts, err := r.actionImpacts(entityType, entityID, q)
	if err != nil {
		return nil, err
	}
	report.ActionImpacts = impacts
	return report, nil
}

// computeTrend splits the series into an older half and a recent half,
// averages per-day CPA and CTR over each (ignoring zero-valued days), and
// classifies by the CPA change.
func computeTrend(series []ads.DailyMetric) Trend {
	if len(series) < 2 {
		return Trend{Direction: TrendInsufficient}
	}
	mid := len(series) / 2
	older, recent := series[:mid], series[mid:]

	olderCPA, olderCPAOK := avgCPA(older)
	recentCPA, recentCPAOK := avgCPA(recent)
	olderCTR, _ := avgCTR(older)
	recentCTR, _ := avgCTR(recent)

	t := Trend{
		OlderAvgCPA:  olderCPA,
		RecentAvgCPA: recentCPA,
		OlderAvgCTR:  olderCTR,
		RecentAvgCTR: recentCTR,
	}
	if !olderCPAOK || !recentCPAOK {
		t.Direction = TrendInsufficient
		return t
	}

	// Lower CPA is better: a drop is an improvement.
	t.CPAChangePct = (recentCPA - olderCPA) / olderCPA * 100
	switch {
	case t.CPAChangePct < -trendThresholdPct:
		t.Direction = TrendImproving
	case t.CPAChangePct > trendThresholdPct:
		t.Direction = TrendDeclining
	default:
		t.Direction = TrendStable
	}
	return t
}

// avgCPA averages per-day cost-per-conversion, skipping days without
// conversions. ok is false when no day qualifies.
func avgCPA(series []ads.DailyMetric) (float64, bool) {
	var sum float64
	var n int
	for _, m := range series {
		if m.Empty() || m.Conversions <= 0 {
			continue
		}
		sum += m.CPA()
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// avgCTR averages per-day click-through rate, skipping days without
// impressions.
func avgCTR(series []ads.DailyMetric) (float64, bool) {
	var sum float64
	var n int
	for _, m := range series {
		if m.Empty() || m.Impressions <= 0 {
			continue
		}
		sum += m.CTR()
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// actionImpacts compares a 7-day window before each past action against a
// 7-day window after it.
func (r *Reader) actionImpacts(entityType, entityID string, q Query) ([]ActionImpact, error) {
	since := r.now().AddDate(0, 0, -actionLookbackDays)

	var actions []ads.ExecutedAction
	var err error
	if entityType == store.EntityCampaign {
		actions, err = r.src.GetActionsForCampaign(q.CampaignID, since)
	} else {
		actions, err = r.src.GetActionsForKeyword(q.KeywordText, since)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch executed actions: %w", err)
	}

	impacts := make([]ActionImpact, 0, len(actions))
	for _, a := range actions {
		impact := ActionImpact{
			ActionID:   a.ID,
			ActionType: string(a.Type),
			ExecutedAt: a.ExecutedAt,
		}

		before, err := r.src.GetDailyMetricsRange(entityType, entityID,
			a.ExecutedAt.AddDate(0, 0, -actionWindowDays), a.ExecutedAt.AddDate(0, 0, -1))
		if err != nil {
			return nil, fmt.Errorf("fetch pre-action window: %w", err)
		}
		after, err := r.src.GetDailyMetricsRange(entityType, entityID,
			a.ExecutedAt.AddDate(0, 0, 1), a.ExecutedAt.AddDate(0, 0, actionWindowDays))
		if err != nil {
			return nil, fmt.Errorf("fetch post-action window: %w", err)
		}

		if daysWithData(after) < 1 {
			impact.Note = "insufficient post-adjustment data"
			impacts = append(impacts, impact)
			continue
		}

		impact.CPABefore = windowCPA(before)
		impact.CPAAfter = windowCPA(after)
		if impact.CPABefore > 0 {
			impact.CPAChangePct = (impact.CPAAfter - impact.CPABefore) / impact.CPABefore * 100
		} else {
			impact.Note = "no pre-adjustment conversions to compare against"
		}
		impacts = append(impacts, impact)
	}
	return impacts, nil
}

// windowCPA is total spend over total conversions for a window, 0 without
// conversions.
func windowCPA(series []ads.DailyMetric) float64 {
	var cost, conv float64
	for _, m := range series {
		cost += m.Cost
		conv += m.Conversions
	}
	if conv <= 0 {
		return 0
	}
	return cost / conv
}

func daysWithData(series []ads.DailyMetric) int {
	n := 0
	for _, m := range series {
		if !m.Empty() {
			n++
		}
	}
	return n
}
