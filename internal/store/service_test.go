package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCampaignSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c := ads.CampaignSnapshot{
		ID: "1001", AccountID: "acct-1", Name: "Brand - Core", Status: "ENABLED",
		Brand: true, DailyBudget: 80, BudgetUtilization: 0.72,
		Cost: 540, Clicks: 220, Impressions: 9000, Conversions: 12,
	}
	if err := s.UpsertCampaignSnapshot(c); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetCampaign("1001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "Brand - Core" || !got.Brand {
		t.Fatalf("unexpected campaign: %+v", got)
	}

	// Upsert replaces.
	c.DailyBudget = 60
	if err := s.UpsertCampaignSnapshot(c); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _ = s.GetCampaign("1001")
	if got.DailyBudget != 60 {
		t.Errorf("daily budget = %v, want 60", got.DailyBudget)
	}

	if unknown, err := s.GetCampaign("9999"); err != nil || unknown != nil {
		t.Errorf("unknown campaign should be (nil, nil), got (%v, %v)", unknown, err)
	}
}

func TestDailyMetricsTrailingWindow(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		m := ads.DailyMetric{
			Day:  now.AddDate(0, 0, -i),
			Cost: float64(10 + i), Clicks: 5, Impressions: 100, Conversions: 1,
		}
		if err := s.InsertDailyMetric(EntityCampaign, "1001", m); err != nil {
			t.Fatalf("insert day -%d: %v", i, err)
		}
	}

	series, err := s.GetDailyMetrics(EntityCampaign, "1001", 5)
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if len(series) != 5 && len(series) != 6 {
		// The boundary day may or may not be included depending on clock.
		t.Fatalf("got %d days, want 5 or 6", len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i].Day.Before(series[i-1].Day) {
			t.Fatal("series not ordered oldest first")
		}
	}
}

func TestExecutedActionQueries(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	actions := []ads.ExecutedAction{
		{ID: "a1", AccountID: "acct-1", Type: ads.ActionAdjustBudget, CampaignID: "1001", Amount: -20, ExecutedAt: now.AddDate(0, 0, -10)},
		{ID: "a2", AccountID: "acct-1", Type: ads.ActionAdjustBudget, CampaignID: "1001", Amount: -15, ExecutedAt: now.AddDate(0, 0, -40)},
		{ID: "a3", AccountID: "acct-1", Type: ads.ActionAdjustBudget, CampaignID: "1001", Amount: 10, ExecutedAt: now.AddDate(0, 0, -5)},
		{ID: "a4", AccountID: "acct-1", Type: ads.ActionAdjustBudget, CampaignID: "1001", Amount: -50, ExecutedAt: now.AddDate(0, 0, -90)},
		{ID: "a5", AccountID: "acct-1", Type: ads.ActionUpdateAdCreative, CampaignID: "1001", ExecutedAt: now.AddDate(0, 0, -3)},
		{ID: "a6", AccountID: "acct-1", Type: ads.ActionAdjustBid, KeywordText: "dairy erp", Amount: 0.5, ExecutedAt: now.AddDate(0, 0, -7)},
	}
	for _, a := range actions {
		if err := s.InsertExecutedAction(a); err != nil {
			t.Fatalf("insert %s: %v", a.ID, err)
		}
	}

	// 60-day cumulative removal counts only negative budget adjustments.
	removed, err := s.CumulativeBudgetRemoved("1001", now.AddDate(0, 0, -60))
	if err != nil {
		t.Fatalf("cumulative removed: %v", err)
	}
	if removed != 35 {
		t.Errorf("removed = %v, want 35 (20+15, excluding increase and 90d-old row)", removed)
	}

	has, err := s.HasCreativeActionSince("1001", now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("creative check: %v", err)
	}
	if !has {
		t.Error("creative action 3 days ago should be inside a 14-day window")
	}
	has, _ = s.HasCreativeActionSince("1001", now.AddDate(0, 0, -1))
	if has {
		t.Error("creative action 3 days ago should be outside a 1-day window")
	}

	kw, err := s.GetActionsForKeyword("dairy erp", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("keyword actions: %v", err)
	}
	if len(kw) != 1 || kw[0].ID != "a6" {
		t.Errorf("keyword actions = %+v", kw)
	}
}

func TestProposalQueueLifecycle(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	rec := &ProposalRecord{
		ProposalID: "p-1", SessionID: "sess-1", AccountID: "acct-1",
		ActionType: "adjust_budget", ActionSummary: "Lower budget for 1001",
		ActionDetail: `{"campaign_id":"1001","new_daily_budget":40}`,
		Reason:       "CPA up 30% in 30 days", RiskLevel: "medium", Priority: 7,
		Iterations: 3, ToolsUsed: `["get_historical_performance"]`, ToolCallLog: `[]`,
		ExpiresAt: now.Add(72 * time.Hour),
	}
	if err := s.InsertProposal(rec); err != nil {
		t.Fatalf("insert proposal: %v", err)
	}
	stale := &ProposalRecord{
		ProposalID: "p-2", SessionID: "sess-0", AccountID: "acct-1",
		ActionType: "adjust_bid", ActionSummary: "old", ActionDetail: `{}`,
		Reason: "r", RiskLevel: "low", Priority: 2,
		ToolsUsed: `[]`, ToolCallLog: `[]`,
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := s.InsertProposal(stale); err != nil {
		t.Fatalf("insert stale proposal: %v", err)
	}

	pending, err := s.ListPendingProposals("acct-1")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ProposalID != "p-1" {
		t.Fatalf("pending = %+v, want only p-1", pending)
	}

	n, err := s.ExpireStaleProposals()
	if err != nil || n != 1 {
		t.Fatalf("expire stale = (%d, %v), want (1, nil)", n, err)
	}

	if err := s.UpdateProposalStatus("p-1", ProposalApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.UpdateProposalStatus("missing", ProposalApproved); err == nil {
		t.Fatal("updating a missing proposal should error")
	}

	pending, _ = s.ListPendingProposals("acct-1")
	if len(pending) != 0 {
		t.Errorf("pending after approval = %d, want 0", len(pending))
	}
}

func TestSessionAuditRoundTrip(t *testing.T) {
	s := newTestStore(t)

	a := &SessionAudit{
		SessionID: "sess-9", AccountID: "acct-1", Outcome: OutcomeSkip,
		Reason: "healthy account", InvestigationSummary: "checked trends, nothing actionable",
		ToolCallLog: `[{"tool_name":"get_historical_performance"}]`,
		Iterations:  1, Forced: false,
	}
	if err := s.InsertSessionAudit(a); err != nil {
		t.Fatalf("insert audit: %v", err)
	}

	got, err := s.GetSessionAudit("sess-9")
	if err != nil {
		t.Fatalf("get audit: %v", err)
	}
	if got == nil || got.Outcome != OutcomeSkip || got.Reason != "healthy account" {
		t.Fatalf("audit = %+v", got)
	}
	if missing, err := s.GetSessionAudit("nope"); err != nil || missing != nil {
		t.Errorf("missing audit should be (nil, nil), got (%v, %v)", missing, err)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	if v, err := s.GetSetting("sessions_run_total"); err != nil || v != "" {
		t.Fatalf("unset setting = (%q, %v)", v, err)
	}
	if err := s.SetSetting("sessions_run_total", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting("sessions_run_total", "4"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := s.GetSetting("sessions_run_total"); v != "4" {
		t.Errorf("setting = %q, want 4", v)
	}
}
