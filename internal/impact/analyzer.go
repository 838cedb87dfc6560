// Package impact scores whether a budget decrease on a source campaign is
// safe and where the freed budget could go. Brand budget never crosses into
// non-brand campaigns, and vice versa.
package impact

import (
	"fmt"
	"sort"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
)

// Config tunes the analyzer's windows and thresholds.
type Config struct {
	// CreativeProtectionDays is the grace window after new ad creative during
	// which the source must not be cut.
	CreativeProtectionDays int
	// CumulativeLossWindowDays is the trailing window for budget-removal
	// tracking.
	CumulativeLossWindowDays int
	// CumulativeLossThresholdPct flags the source once this share of its
	// notional window budget has been removed.
	CumulativeLossThresholdPct float64
	// UtilizationCeiling excludes recipient candidates at or above this
	// budget utilization (0..1).
	UtilizationCeiling float64
	// BudgetFloor is the minimum daily budget in dollars.
	BudgetFloor float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		CreativeProtectionDays:     14,
		CumulativeLossWindowDays:   60,
		CumulativeLossThresholdPct: 40,
		UtilizationCeiling:         0.95,
		BudgetFloor:                25,
	}
}

// ActionSource is the slice of the store the analyzer consumes.
type ActionSource interface {
	GetCampaign(campaignID string) (*ads.CampaignSnapshot, error)
	GetCampaignSnapshots(accountID string) ([]ads.CampaignSnapshot, error)
	CumulativeBudgetRemoved(campaignID string, since time.Time) (float64, error)
	HasCreativeActionSince(campaignID string, since time.Time) (bool, error)
}

// Target is one candidate recipient for freed budget.
type Target struct {
	CampaignID        string  `json:"campaign_id"`
	Name              string  `json:"name"`
	Brand             bool    `json:"brand"`
	DailyBudget       float64 `json:"daily_budget"`
	BudgetUtilization float64 `json:"budget_utilization"`
	CPA               float64 `json:"cpa"`
	Conversions       float64 `json:"conversions"`
}

// Assessment is the full answer for one source campaign.
type Assessment struct {
	SourceCampaignID  string  `json:"source_campaign_id"`
	SourceBrand       bool    `json:"source_brand"`
	SourceDailyBudget float64 `json:"source_daily_budget"`
	SourceUtilization float64 `json:"source_utilization"`
	DecreaseAmount    float64 `json:"decrease_amount,omitempty"`

	PotentialTargets []Target `json:"potential_targets"`

	// CreativeProtected is true when new ad creative landed on the source
	// inside the protection window; the source is then unsafe to cut.
	CreativeProtected bool `json:"creative_protected"`
	SafeToDecrease    bool `json:"safe_to_decrease"`

	CumulativeRemoved    float64 `json:"cumulative_removed"`
	CumulativeLossPct    float64 `json:"cumulative_loss_pct"`
	ExceedsLossThreshold bool    `json:"exceeds_40pct_threshold"`

	AtBudgetFloor        bool `json:"at_budget_floor"`
	NoSameCategoryTarget bool `json:"no_same_category_target"`

	Warnings []string `json:"warnings"`
}

// Analyzer evaluates proposed budget decreases against the account snapshot
// and executed-action history.
type Analyzer struct {
	src ActionSource
	cfg Config
	now func() time.Time
}

// NewAnalyzer creates an analyzer over the given source. Zero-valued config
// fields fall back to the defaults.
func NewAnalyzer(src ActionSource, cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.CreativeProtectionDays <= 0 {
		cfg.CreativeProtectionDays = def.CreativeProtectionDays
	}
	if cfg.CumulativeLossWindowDays <= 0 {
		cfg.CumulativeLossWindowDays = def.CumulativeLossWindowDays
	}
	if cfg.CumulativeLossThresholdPct <= 0 {
		cfg.CumulativeLossThresholdPct = def.CumulativeLossThresholdPct
	}
	if cfg.UtilizationCeiling <= 0 {
		cfg.UtilizationCeiling = def.UtilizationCeiling
	}
	if cfg.BudgetFloor <= 0 {
		cfg.BudgetFloor = def.BudgetFloor
	}
	return &Analyzer{src: src, cfg: cfg, now: time.Now}
}

// Analyze scores a budget decrease on the source campaign. decreaseAmount
// may be zero when the caller has not yet settled on a figure.
func (a *Analyzer) Analyze(sourceCampaignID string, decreaseAmount float64) (*Assessment, error) {
	source, err := a.src.GetCampaign(sourceCampaignID)
	if err != nil {
		return nil, fmt.Errorf("look up source campaign: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("unknown source campaign %s", sourceCampaignID)
	}

	as := &Assessment{
		SourceCampaignID:  source.ID,
		SourceBrand:       source.Brand,
		SourceDailyBudget: source.DailyBudget,
		SourceUtilization: source.BudgetUtilization,
		DecreaseAmount:    decreaseAmount,
		SafeToDecrease:    true,
		Warnings:          []string{},
	}

	if err := a.findTargets(source, as); err != nil {
		return nil, err
	}
	if err := a.checkCreativeProtection(source, as); err != nil {
		return nil, err
	}
	if err := a.checkCumulativeLoss(source, as); err != nil {
		return nil, err
	}
	a.checkBudgetFloor(source, as)

	return as, nil
}

// findTargets restricts recipients to enabled same-category campaigns below
// the utilization ceiling and ranks them cheapest conversions first.
func (a *Analyzer) findTargets(source *ads.CampaignSnapshot, as *Assessment) error {
	all, err := a.src.GetCampaignSnapshots(source.AccountID)
	if err != nil {
		return fmt.Errorf("list account campaigns: %w", err)
	}

	targets := make([]Target, 0, len(all))
	for _, c := range all {
		if c.ID == source.ID || c.Brand != source.Brand {
			continue
		}
		if c.Status != "ENABLED" {
			continue
		}
		if c.BudgetUtilization >= a.cfg.UtilizationCeiling {
			continue
		}
		targets = append(targets, Target{
			CampaignID:        c.ID,
			Name:              c.Name,
			Brand:             c.Brand,
			DailyBudget:       c.DailyBudget,
			BudgetUtilization: c.BudgetUtilization,
			CPA:               c.CPA(),
			Conversions:       c.Conversions,
		})
	}

	// CPA ascending; campaigns without conversions have no meaningful CPA and
	// sort last.
	sort.SliceStable(targets, func(i, j int) bool {
		ci, cj := targets[i], targets[j]
		if (ci.Conversions > 0) != (cj.Conversions > 0) {
			return ci.Conversions > 0
		}
		return ci.CPA < cj.CPA
	})

	as.PotentialTargets = targets
	if len(targets) == 0 {
		as.NoSameCategoryTarget = true
		as.Warnings = append(as.Warnings,
			"no same-category campaign below the utilization ceiling can receive freed budget")
	}
	return nil
}

func (a *Analyzer) checkCreativeProtection(source *ads.CampaignSnapshot, as *Assessment) error {
	since := a.now().AddDate(0, 0, -a.cfg.CreativeProtectionDays)
	protected, err := a.src.HasCreativeActionSince(source.ID, since)
	if err != nil {
		return fmt.Errorf("check creative history: %w", err)
	}
	if protected {
		as.CreativeProtected = true
		as.SafeToDecrease = false
		as.Warnings = append(as.Warnings, fmt.Sprintf(
			"campaign %s received new ad creative within the last %d days; its budget should not be reduced yet",
			source.ID, a.cfg.CreativeProtectionDays))
	}
	return nil
}

// checkCumulativeLoss compares budget already removed in the trailing window
// against the campaign's notional window budget (daily budget x window days).
func (a *Analyzer) checkCumulativeLoss(source *ads.CampaignSnapshot, as *Assessment) error {
	since := a.now().AddDate(0, 0, -a.cfg.CumulativeLossWindowDays)
	removed, err := a.src.CumulativeBudgetRemoved(source.ID, since)
	if err != nil {
		return fmt.Errorf("sum removed budget: %w", err)
	}
	as.CumulativeRemoved = removed

	notional := source.DailyBudget * float64(a.cfg.CumulativeLossWindowDays)
	if notional <= 0 {
		return nil
	}
	as.CumulativeLossPct = removed / notional * 100
	if as.CumulativeLossPct > a.cfg.CumulativeLossThresholdPct {
		as.ExceedsLossThreshold = true
		as.Warnings = append(as.Warnings, fmt.Sprintf(
			"campaign %s has already lost %.1f%% of its %d-day budget to reallocations (threshold %.0f%%)",
			source.ID, as.CumulativeLossPct, a.cfg.CumulativeLossWindowDays, a.cfg.CumulativeLossThresholdPct))
	}
	return nil
}

func (a *Analyzer) checkBudgetFloor(source *ads.CampaignSnapshot, as *Assessment) {
	if source.DailyBudget <= a.cfg.BudgetFloor {
		as.AtBudgetFloor = true
		as.Warnings = append(as.Warnings, fmt.Sprintf(
			"campaign %s daily budget $%.2f is already at or below the $%.2f floor",
			source.ID, source.DailyBudget, a.cfg.BudgetFloor))
	}
	if as.DecreaseAmount > 0 && source.DailyBudget-as.DecreaseAmount < a.cfg.BudgetFloor {
		as.SafeToDecrease = false
		as.Warnings = append(as.Warnings, fmt.Sprintf(
			"decreasing by $%.2f would leave $%.2f/day, below the $%.2f floor",
			as.DecreaseAmount, source.DailyBudget-as.DecreaseAmount, a.cfg.BudgetFloor))
	}
}
