package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/guardrail"
	"github.com/adcounsel/adcounsel/internal/history"
	"github.com/adcounsel/adcounsel/internal/impact"
	"github.com/adcounsel/adcounsel/internal/signalbus"
)

type fakeMetrics struct {
	series []ads.DailyMetric
}

func (f *fakeMetrics) GetDailyMetrics(entityType, entityID string, days int) ([]ads.DailyMetric, error) {
	return f.series, nil
}

func (f *fakeMetrics) GetDailyMetricsRange(entityType, entityID string, from, to time.Time) ([]ads.DailyMetric, error) {
	return nil, nil
}

func (f *fakeMetrics) GetActionsForCampaign(string, time.Time) ([]ads.ExecutedAction, error) {
	return nil, nil
}

func (f *fakeMetrics) GetActionsForKeyword(string, time.Time) ([]ads.ExecutedAction, error) {
	return nil, nil
}

type fakeCampaigns struct {
	campaigns map[string]ads.CampaignSnapshot
}

func (f *fakeCampaigns) GetCampaign(id string) (*ads.CampaignSnapshot, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeCampaigns) GetCampaignSnapshots(accountID string) ([]ads.CampaignSnapshot, error) {
	var out []ads.CampaignSnapshot
	for _, c := range f.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCampaigns) CumulativeBudgetRemoved(string, time.Time) (float64, error) {
	return 0, nil
}

func (f *fakeCampaigns) HasCreativeActionSince(string, time.Time) (bool, error) {
	return false, nil
}

func newTestExecutor() *Executor {
	now := time.Now().UTC()
	return &Executor{
		Signals: signalbus.NewReader(&signalbus.MemorySource{Entries: []ads.Signal{
			{Topic: "budget", Summary: "freeze lifted", ObservedAt: now.AddDate(0, 0, -1)},
		}}),
		History: history.NewReader(&fakeMetrics{series: []ads.DailyMetric{
			{Day: now.AddDate(0, 0, -2), Cost: 40, Clicks: 10, Impressions: 100, Conversions: 1},
			{Day: now.AddDate(0, 0, -1), Cost: 45, Clicks: 10, Impressions: 100, Conversions: 1},
		}}),
		Impact: impact.NewAnalyzer(&fakeCampaigns{campaigns: map[string]ads.CampaignSnapshot{
			"1001": {ID: "1001", AccountID: "acct-1", Status: "ENABLED", DailyBudget: 50, BudgetUtilization: 0.5, Conversions: 2, Cost: 80},
			"1002": {ID: "1002", AccountID: "acct-1", Status: "ENABLED", DailyBudget: 50, BudgetUtilization: 0.4, Conversions: 5, Cost: 100},
		}}, impact.DefaultConfig()),
		Guardrail: guardrail.NewEvaluator(25, 20, nil),
	}
}

func TestExecuteSignalBus(t *testing.T) {
	e := newTestExecutor()
	out, rec := e.Execute(context.Background(), NameCheckSignalBus, map[string]any{"topic": "budget"})
	if rec.Err != "" {
		t.Fatalf("unexpected error: %s", rec.Err)
	}
	if !strings.Contains(out, `"count":1`) {
		t.Errorf("output = %s, want one signal", out)
	}
	if rec.ToolName != NameCheckSignalBus || rec.Output != out {
		t.Errorf("record mismatch: %+v", rec)
	}
}

func TestExecuteSignalBusRequiresTopic(t *testing.T) {
	e := newTestExecutor()
	out, rec := e.Execute(context.Background(), NameCheckSignalBus, map[string]any{})
	if rec.Err == "" {
		t.Fatal("missing topic should fail")
	}
	if !strings.Contains(out, `"error"`) {
		t.Errorf("failure must yield a structured error payload, got %s", out)
	}
}

func TestExecuteHistoricalPerformanceErrorPayload(t *testing.T) {
	e := newTestExecutor()
	out, rec := e.Execute(context.Background(), NameGetHistoricalPerformance,
		map[string]any{"campaign_id": "1001", "keyword_text": "both set"})
	if rec.Err == "" || !strings.Contains(out, `"error"`) {
		t.Fatalf("ambiguous query must yield an error payload, got (%s, %+v)", out, rec)
	}

	out, rec = e.Execute(context.Background(), NameGetHistoricalPerformance,
		map[string]any{"campaign_id": "1001"})
	if rec.Err != "" {
		t.Fatalf("valid query failed: %s", rec.Err)
	}
	if !strings.Contains(out, `"trend"`) {
		t.Errorf("output = %s, want a trend block", out)
	}
}

func TestExecuteReallocationImpact(t *testing.T) {
	e := newTestExecutor()
	out, rec := e.Execute(context.Background(), NameCheckReallocationImpact,
		map[string]any{"source_campaign_id": "1001"})
	if rec.Err != "" {
		t.Fatalf("analyze failed: %s", rec.Err)
	}
	if !strings.Contains(out, `"potential_targets"`) || !strings.Contains(out, `"1002"`) {
		t.Errorf("output = %s, want target 1002", out)
	}

	_, rec = e.Execute(context.Background(), NameCheckReallocationImpact,
		map[string]any{"source_campaign_id": "9999"})
	if rec.Err == "" {
		t.Fatal("unknown source campaign should yield an error payload")
	}
}

func TestExecuteEvaluateRecommendation(t *testing.T) {
	e := newTestExecutor()
	input := map[string]any{
		"action_type": "adjust_budget",
		"action_detail": map[string]any{
			"campaign_id": "1001", "new_daily_budget": 10.0,
		},
		"reason": "test",
	}
	out, rec := e.Execute(context.Background(), NameEvaluateRecommendation, input)
	if rec.Err != "" {
		t.Fatalf("evaluate failed: %s", rec.Err)
	}
	if !strings.Contains(out, `"passes":false`) {
		t.Errorf("output = %s, want a floor violation", out)
	}

	// Determinism over repeated calls.
	for i := 0; i < 5; i++ {
		again, _ := e.Execute(context.Background(), NameEvaluateRecommendation, input)
		if again != out {
			t.Fatalf("call %d differs: %s vs %s", i, again, out)
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newTestExecutor()
	out, rec := e.Execute(context.Background(), "launch_missiles", map[string]any{})
	if rec.Err == "" || !strings.Contains(out, `"error"`) {
		t.Fatalf("unknown tool must yield an error payload, got (%s, %+v)", out, rec)
	}
}

func TestDefinitionsCoverAllKinds(t *testing.T) {
	defs := Definitions()
	if len(defs) != 6 {
		t.Fatalf("got %d definitions, want 6", len(defs))
	}
	terminals := 0
	for _, d := range defs {
		kind := KindFor(d.Function.Name)
		if kind == KindUnknown {
			t.Errorf("definition %q does not map to a kind", d.Function.Name)
		}
		if kind.Terminal() {
			terminals++
		}
		if d.Function.Description == "" || d.Function.Parameters == nil {
			t.Errorf("definition %q is incomplete", d.Function.Name)
		}
	}
	if terminals != 2 {
		t.Errorf("got %d terminal tools, want 2", terminals)
	}
}
