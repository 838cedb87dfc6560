// Package guardrail provides deterministic safety checks for proposed
// account actions. The evaluator does no I/O: it sees one proposed action
// plus a read-only context snapshot and reports every violation it finds.
package guardrail

import (
	"fmt"
	"math"
	"strings"

	"github.com/adcounsel/adcounsel/internal/ads"
)

// Action is one proposed account change under evaluation.
type Action struct {
	Type   ads.ActionType
	Detail map[string]any
	Reason string
}

// Context is the read-only snapshot supplied once at session start. The
// evaluator consults it but never writes to it.
type Context struct {
	AccountID string
	Campaigns []ads.CampaignSnapshot
	Ads       []ads.AdSnapshot
}

// Evaluation is the result of checking one action. An action passes iff it
// has zero violations; warnings never block submission but are surfaced to
// the human reviewer.
type Evaluation struct {
	Passes     bool     `json:"passes"`
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`
}

// Evaluator applies the static rule set. All rules are evaluated on every
// call; nothing short-circuits, so a single evaluation reports every
// violation found.
type Evaluator struct {
	// BudgetFloor is the minimum daily budget in dollars.
	BudgetFloor float64
	// BidChangeCapPct is the maximum bid change as a percentage of the
	// current bid.
	BidChangeCapPct float64
	// ProtectedKeywords is the strategic-industry vocabulary. Keywords
	// containing any of these terms must never be paused or negated.
	ProtectedKeywords []string
}

// DefaultProtectedKeywords is the built-in strategic-industry vocabulary:
// food-processing verticals plus the compliance/ERP terms the account is
// built around. Elimination actions against these always get a
// non-destructive alternative instead.
var DefaultProtectedKeywords = []string{
	"meat processing", "poultry", "seafood", "dairy", "bakery",
	"beverage processing", "food processing", "food safety",
	"haccp", "fsma", "usda", "sqf", "brc",
	"traceability", "erp", "mes", "lot tracking", "recall management",
}

// NewEvaluator creates an evaluator with the given thresholds. An empty
// vocabulary falls back to DefaultProtectedKeywords.
func NewEvaluator(budgetFloor, bidChangeCapPct float64, protected []string) *Evaluator {
	if budgetFloor <= 0 {
		budgetFloor = 25
	}
	if bidChangeCapPct <= 0 {
		bidChangeCapPct = 20
	}
	if len(protected) == 0 {
		protected = DefaultProtectedKeywords
	}
	return &Evaluator{
		BudgetFloor:       budgetFloor,
		BidChangeCapPct:   bidChangeCapPct,
		ProtectedKeywords: protected,
	}
}

// Evaluate checks one proposed action against every rule.
func (e *Evaluator) Evaluate(action Action, ctx Context) Evaluation {
	ev := Evaluation{Violations: []string{}, Warnings: []string{}}

	e.checkBudgetFloor(action, &ev)
	e.checkBidCap(action, &ev)
	e.checkProtectedKeyword(action, &ev)
	e.checkProtectedCampaign(action, ctx, &ev)
	e.checkLastActiveAd(action, ctx, &ev)
	e.checkIdentifiers(action, &ev)

	ev.Passes = len(ev.Violations) == 0
	return ev
}

// checkBudgetFloor enforces the minimum daily budget on budget adjustments.
func (e *Evaluator) checkBudgetFloor(action Action, ev *Evaluation) {
	if action.Type != ads.ActionAdjustBudget {
		return
	}
	amount, ok := numberField(action.Detail, "new_daily_budget")
	if !ok {
		ev.Violations = append(ev.Violations,
			"adjust_budget requires a numeric new_daily_budget")
		return
	}
	if amount < e.BudgetFloor {
		ev.Violations = append(ev.Violations,
			fmt.Sprintf("new daily budget $%.2f is below the $%.2f floor", amount, e.BudgetFloor))
	}
}

// checkBidCap enforces the bid-change cap on bid adjustments. Without the
// current bid in the action detail the cap cannot be enforced, so the rule
// degrades to a warning.
func (e *Evaluator) checkBidCap(action Action, ev *Evaluation) {
	if action.Type != ads.ActionAdjustBid {
		return
	}
	newBid, ok := numberField(action.Detail, "new_bid")
	if !ok {
		ev.Violations = append(ev.Violations, "adjust_bid requires a numeric new_bid")
		return
	}
	currentBid, ok := numberField(action.Detail, "current_bid")
	if !ok || currentBid <= 0 {
		ev.Warnings = append(ev.Warnings,
			fmt.Sprintf("bid change cap (%.0f%%) cannot be verified without current_bid", e.BidChangeCapPct))
		return
	}
	changePct := math.Abs(newBid-currentBid) / currentBid * 100
	if changePct > e.BidChangeCapPct {
		ev.Violations = append(ev.Violations,
			fmt.Sprintf("bid change of %.1f%% exceeds the %.0f%% cap", changePct, e.BidChangeCapPct))
	}
}

// checkProtectedKeyword blocks elimination of strategic-industry keywords.
func (e *Evaluator) checkProtectedKeyword(action Action, ev *Evaluation) {
	if action.Type != ads.ActionPauseKeyword && action.Type != ads.ActionAddNegativeKeyword {
		return
	}
	text, _ := stringField(action.Detail, "keyword_text")
	if text == "" {
		ev.Violations = append(ev.Violations,
			fmt.Sprintf("%s requires keyword_text", action.Type))
		return
	}
	for _, term := range e.ProtectedKeywords {
		if containsTerm(text, term) {
			ev.Violations = append(ev.Violations,
				fmt.Sprintf("keyword %q contains protected term %q; use a bid or creative change instead of elimination", text, term))
		}
	}
}

// checkProtectedCampaign blocks pausing campaigns that are still converting.
func (e *Evaluator) checkProtectedCampaign(action Action, ctx Context, ev *Evaluation) {
	if action.Type != ads.ActionPauseCampaign {
		return
	}
	id, _ := stringField(action.Detail, "campaign_id")
	if id == "" {
		return // identifier rule reports the missing/invalid id
	}
	for _, c := range ctx.Campaigns {
		if c.ID != id {
			continue
		}
		if c.Conversions > 0 {
			ev.Violations = append(ev.Violations,
				fmt.Sprintf("campaign %s recorded %.1f conversions this window and must not be paused", id, c.Conversions))
		}
		return
	}
	ev.Warnings = append(ev.Warnings,
		fmt.Sprintf("campaign %s not present in context snapshot; conversion protection unverified", id))
}

// checkLastActiveAd blocks pausing the only enabled ad in an ad group.
func (e *Evaluator) checkLastActiveAd(action Action, ctx Context, ev *Evaluation) {
	if action.Type != ads.ActionPauseAd {
		return
	}
	groupID, _ := stringField(action.Detail, "ad_group_id")
	if groupID == "" {
		return
	}
	enabled := 0
	for _, a := range ctx.Ads {
		if a.AdGroupID == groupID && a.Enabled() {
			enabled++
		}
	}
	if enabled <= 1 {
		ev.Violations = append(ev.Violations,
			fmt.Sprintf("ad group %s has %d enabled ad(s); pausing would leave it with no active ads", groupID, enabled))
	}
}

// identifierFields are the identifier-shaped detail keys. Every one present
// must be a non-empty string of digits.
var identifierFields = []string{
	"campaign_id", "ad_group_id", "ad_id", "criterion_id", "budget_id", "keyword_id",
}

// checkIdentifiers rejects non-numeric or placeholder identifier values.
func (e *Evaluator) checkIdentifiers(action Action, ev *Evaluation) {
	for _, field := range identifierFields {
		raw, present := action.Detail[field]
		if !present {
			continue
		}
		str, ok := raw.(string)
		if !ok || !allDigits(str) {
			ev.Violations = append(ev.Violations,
				fmt.Sprintf("%s must be a non-empty numeric string, got %v", field, raw))
		}
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// containsTerm matches a vocabulary term inside keyword text. Multi-word
// terms match as substrings; single-word terms must match a whole word so
// that "erp" does not fire on "interpret".
func containsTerm(text, term string) bool {
	lowerText := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)
	if strings.Contains(lowerTerm, " ") {
		return strings.Contains(lowerText, lowerTerm)
	}
	for _, word := range strings.Fields(lowerText) {
		if strings.Trim(word, `"'()[],.`) == lowerTerm {
			return true
		}
	}
	return false
}

func numberField(detail map[string]any, key string) (float64, bool) {
	switch v := detail[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringField(detail map[string]any, key string) (string, bool) {
	v, ok := detail[key].(string)
	return strings.TrimSpace(v), ok
}
