// Package ads defines the paid-search domain types shared across the engine:
// campaign and ad performance rows, daily metric series, executed action
// history, and the proposal/action vocabulary.
package ads

import (
	"time"
)

// ActionType identifies a supported account operation.
type ActionType string

const (
	ActionAdjustBudget       ActionType = "adjust_budget"
	ActionAdjustBid          ActionType = "adjust_bid"
	ActionPauseCampaign      ActionType = "pause_campaign"
	ActionEnableCampaign     ActionType = "enable_campaign"
	ActionPauseKeyword       ActionType = "pause_keyword"
	ActionAddKeyword         ActionType = "add_keyword"
	ActionAddNegativeKeyword ActionType = "add_negative_keyword"
	ActionPauseAd            ActionType = "pause_ad"
	ActionCreateAd           ActionType = "create_ad"
	ActionUpdateAdCreative   ActionType = "update_ad_creative"
)

// KnownActionTypes lists every action type the engine can propose.
func KnownActionTypes() []ActionType {
	return []ActionType{
		ActionAdjustBudget, ActionAdjustBid,
		ActionPauseCampaign, ActionEnableCampaign,
		ActionPauseKeyword, ActionAddKeyword, ActionAddNegativeKeyword,
		ActionPauseAd, ActionCreateAd, ActionUpdateAdCreative,
	}
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, k := range KnownActionTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// RiskLevel classifies how disruptive a proposal is if approved.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// CampaignSnapshot is one campaign's current-window performance row.
type CampaignSnapshot struct {
	ID                string  `json:"campaign_id"`
	AccountID         string  `json:"account_id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	Brand             bool    `json:"brand"`
	DailyBudget       float64 `json:"daily_budget"`
	BudgetUtilization float64 `json:"budget_utilization"` // 0..1
	Cost              float64 `json:"cost"`
	Clicks            int64   `json:"clicks"`
	Impressions       int64   `json:"impressions"`
	Conversions       float64 `json:"conversions"`
}

// CPA returns cost per conversion, or 0 when there are no conversions.
func (c CampaignSnapshot) CPA() float64 {
	if c.Conversions <= 0 {
		return 0
	}
	return c.Cost / c.Conversions
}

// AdSnapshot is one ad's current-window performance row.
type AdSnapshot struct {
	ID          string  `json:"ad_id"`
	AdGroupID   string  `json:"ad_group_id"`
	CampaignID  string  `json:"campaign_id"`
	Status      string  `json:"status"` // ENABLED or PAUSED
	Headline    string  `json:"headline"`
	Cost        float64 `json:"cost"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Conversions float64 `json:"conversions"`
}

// Enabled reports whether the ad is currently serving.
func (a AdSnapshot) Enabled() bool {
	return a.Status == "ENABLED"
}

// DailyMetric is one day of performance for a campaign or keyword.
type DailyMetric struct {
	Day         time.Time `json:"day"`
	Cost        float64   `json:"cost"`
	Clicks      int64     `json:"clicks"`
	Impressions int64     `json:"impressions"`
	Conversions float64   `json:"conversions"`
}

// Empty reports whether the day recorded no activity at all.
func (m DailyMetric) Empty() bool {
	return m.Cost == 0 && m.Clicks == 0 && m.Impressions == 0
}

// CPA returns the day's cost per conversion, or 0 without conversions.
func (m DailyMetric) CPA() float64 {
	if m.Conversions <= 0 {
		return 0
	}
	return m.Cost / m.Conversions
}

// CTR returns the day's click-through rate, or 0 without impressions.
func (m DailyMetric) CTR() float64 {
	if m.Impressions <= 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions)
}

// ExecutedAction is a past account change that was approved and applied.
type ExecutedAction struct {
	ID          string     `json:"action_id"`
	AccountID   string     `json:"account_id"`
	Type        ActionType `json:"action_type"`
	CampaignID  string     `json:"campaign_id,omitempty"`
	KeywordText string     `json:"keyword_text,omitempty"`
	// Amount is the dollar delta for budget/bid changes. Negative values
	// mean budget removed from the campaign.
	Amount     float64   `json:"amount,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Signal is a cross-system event relevant to a topic (CRM, scraping, ops).
type Signal struct {
	Topic      string    `json:"topic"`
	Source     string    `json:"source"`
	Summary    string    `json:"summary"`
	ObservedAt time.Time `json:"observed_at"`
}
