package history

import (
	"testing"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/store"
)

// fakeSource serves canned series keyed by entity.
type fakeSource struct {
	series  map[string][]ads.DailyMetric
	actions []ads.ExecutedAction
}

func (f *fakeSource) key(entityType, entityID string) string {
	return entityType + ":" + entityID
}

func (f *fakeSource) GetDailyMetrics(entityType, entityID string, days int) ([]ads.DailyMetric, error) {
	s := f.series[f.key(entityType, entityID)]
	if len(s) > days {
		s = s[len(s)-days:]
	}
	return s, nil
}

func (f *fakeSource) GetDailyMetricsRange(entityType, entityID string, from, to time.Time) ([]ads.DailyMetric, error) {
	var out []ads.DailyMetric
	for _, m := range f.series[f.key(entityType, entityID)] {
		if !m.Day.Before(from) && !m.Day.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeSource) GetActionsForCampaign(campaignID string, since time.Time) ([]ads.ExecutedAction, error) {
	var out []ads.ExecutedAction
	for _, a := range f.actions {
		if a.CampaignID == campaignID && !a.ExecutedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSource) GetActionsForKeyword(keywordText string, since time.Time) ([]ads.ExecutedAction, error) {
	var out []ads.ExecutedAction
	for _, a := range f.actions {
		if a.KeywordText == keywordText && !a.ExecutedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// daySeries builds a series ending yesterday where each day has the given
// cost and one conversion, so per-day CPA equals cost.
func daySeries(dayCosts []float64) []ads.DailyMetric {
	start := time.Now().UTC().AddDate(0, 0, -len(dayCosts))
	out := make([]ads.DailyMetric, len(dayCosts))
	for i, c := range dayCosts {
		out[i] = ads.DailyMetric{
			Day: start.AddDate(0, 0, i), Cost: c, Clicks: 10, Impressions: 200, Conversions: 1,
		}
	}
	return out
}

func TestReadRequiresExactlyOneEntity(t *testing.T) {
	r := NewReader(&fakeSource{series: map[string][]ads.DailyMetric{}})
	if _, err := r.Read(Query{}); err == nil {
		t.Fatal("neither identifier should be an error")
	}
	if _, err := r.Read(Query{CampaignID: "1", KeywordText: "x"}); err == nil {
		t.Fatal("both identifiers should be an error")
	}
}

func TestReadRejectsOversizedWindow(t *testing.T) {
	r := NewReader(&fakeSource{series: map[string][]ads.DailyMetric{}})
	if _, err := r.Read(Query{CampaignID: "1", Days: 91}); err == nil {
		t.Fatal("days > 90 should be rejected")
	}
}

func TestTrendDeclining(t *testing.T) {
	// Older half CPA ~20, recent half CPA ~30: +50% regression.
	src := &fakeSource{series: map[string][]ads.DailyMetric{
		"campaign:1001": daySeries([]float64{20, 20, 20, 30, 30, 30}),
	}}
	rep, err := NewReader(src).Read(Query{CampaignID: "1001", Days: 30})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rep.Trend.Direction != TrendDeclining {
		t.Fatalf("direction = %s, want declining (trend: %+v)", rep.Trend.Direction, rep.Trend)
	}
	if rep.Trend.CPAChangePct < 49 || rep.Trend.CPAChangePct > 51 {
		t.Errorf("CPA change = %.1f%%, want ~50%%", rep.Trend.CPAChangePct)
	}
}

func TestTrendImproving(t *testing.T) {
	src := &fakeSource{series: map[string][]ads.DailyMetric{
		"campaign:1001": daySeries([]float64{40, 40, 40, 30, 30, 30}),
	}}
	rep, err := NewReader(src).Read(Query{CampaignID: "1001"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rep.Trend.Direction != TrendImproving {
		t.Fatalf("direction = %s, want improving", rep.Trend.Direction)
	}
}

func TestTrendStableWithinThreshold(t *testing.T) {
	// 5% regression stays stable.
	src := &fakeSource{series: map[string][]ads.DailyMetric{
		"campaign:1001": daySeries([]float64{100, 100, 105, 105}),
	}}
	rep, err := NewReader(src).Read(Query{CampaignID: "1001"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rep.Trend.Direction != TrendStable {
		t.Fatalf("direction = %s, want stable", rep.Trend.Direction)
	}
}

func TestTrendIgnoresZeroValuedDays(t *testing.T) {
	series := daySeries([]float64{20, 20, 30, 30})
	// Insert empty days that must not drag averages down.
	series[1] = ads.DailyMetric{Day: series[1].Day}
	series[2] = ads.DailyMetric{Day: series[2].Day}
	src := &fakeSource{series: map[string][]ads.DailyMetric{"campaign:1001": series}}

	rep, err := NewReader(src).Read(Query{CampaignID: "1001"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rep.Trend.OlderAvgCPA != 20 || rep.Trend.RecentAvgCPA != 30 {
		t.Fatalf("averages = %.1f/%.1f, want 20/30", rep.Trend.OlderAvgCPA, rep.Trend.RecentAvgCPA)
	}
	if rep.DaysWithData != 2 {
		t.Errorf("days with data = %d, want 2", rep.DaysWithData)
	}
}

func TestTrendInsufficientWithoutConversions(t *testing.T) {
	series := daySeries([]float64{20, 20, 30, 30})
	for i := range series {
		series[i].Conversions = 0
	}
	src := &fakeSource{series: map[string][]ads.DailyMetric{"campaign:1001": series}}
	rep, err := NewReader(src).Read(Query{CampaignID: "1001"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rep.Trend.Direction != TrendInsufficient {
		t.Fatalf("direction = %s, want insufficient_data", rep.Trend.Direction)
	}
}

func TestActionImpactBeforeAfter(t *testing.T) {
	now := time.Now().UTC()
	actionAt := now.AddDate(0, 0, -10)

	var series []ads.DailyMetric
	// 7 days before the action: CPA 50. 7 days after: CPA 40.
	for i := 7; i >= 1; i-- {
		series = append(series, ads.DailyMetric{
			Day: actionAt.AddDate(0, 0, -i), Cost: 50, Clicks: 10, Impressions: 100, Conversions: 1,
		})
	}
	for i := 1; i <= 7; i++ {
		series = append(series, ads.DailyMetric{
			Day: actionAt.AddDate(0, 0, i), Cost: 40, Clicks: 10, Impressions: 100, Conversions: 1,
		})
	}

	src := &fakeSource{
		series: map[string][]ads.DailyMetric{"campaign:1001": series},
		actions: []ads.ExecutedAction{
			{ID: "a1", Type: ads.ActionAdjustBid, CampaignID: "1001", ExecutedAt: actionAt},
		},
	}
	rep, err := NewReader(src).Read(Query{CampaignID: "1001", Days: 90})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rep.ActionImpacts) != 1 {
		t.Fatalf("got %d impacts, want 1", len(rep.ActionImpacts))
	}
	imp := rep.ActionImpacts[0]
	if imp.CPABefore != 50 || imp.CPAAfter != 40 {
		t.Fatalf("window CPAs = %.1f/%.1f, want 50/40", imp.CPABefore, imp.CPAAfter)
	}
	if imp.CPAChangePct > -19 || imp.CPAChangePct < -21 {
		t.Errorf("change = %.1f%%, want ~-20%%", imp.CPAChangePct)
	}
	if imp.Note != "" {
		t.Errorf("unexpected note %q", imp.Note)
	}
}

func TestActionImpactInsufficientPostData(t *testing.T) {
	now := time.Now().UTC()
	actionAt := now.AddDate(0, 0, -2)

	var series []ads.DailyMetric
	for i := 7; i >= 1; i-- {
		series = append(series, ads.DailyMetric{
			Day: actionAt.AddDate(0, 0, -i), Cost: 50, Clicks: 10, Impressions: 100, Conversions: 1,
		})
	}
	// No rows after the action at all.

	src := &fakeSource{
		series: map[string][]ads.DailyMetric{"keyword:dairy erp": series},
		actions: []ads.ExecutedAction{
			{ID: "a1", Type: ads.ActionAdjustBid, KeywordText: "dairy erp", ExecutedAt: actionAt},
		},
	}
	rep, err := NewReader(src).Read(Query{KeywordText: "dairy erp"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rep.ActionImpacts) != 1 {
		t.Fatalf("got %d impacts, want 1", len(rep.ActionImpacts))
	}
	if rep.ActionImpacts[0].Note != "insufficient post-adjustment data" {
		t.Errorf("note = %q", rep.ActionImpacts[0].Note)
	}
	if rep.EntityType != store.EntityKeyword {
		t.Errorf("entity type = %s", rep.EntityType)
	}
}
