package ads

import (
	"fmt"
	"strings"
)

// Proposal is a single suggested account change awaiting human approval.
// It is created by the reasoning step during an investigation session and is
// never mutated after the session ends.
type Proposal struct {
	ID            string         `json:"proposal_id,omitempty"`
	ActionType    ActionType     `json:"action_type"`
	ActionSummary string         `json:"action_summary"`
	ActionDetail  map[string]any `json:"action_detail"`
	Reason        string         `json:"reason"`
	RiskLevel     RiskLevel      `json:"risk_level"`
	Priority      int            `json:"priority"`
	DataSnapshot  map[string]any `json:"data_snapshot,omitempty"`
}

// Validate checks the fields a proposal must carry before it can be queued
// for review. Identifier-shaped detail fields are checked separately by the
// guardrail evaluator.
func (p Proposal) Validate() error {
	if !p.ActionType.Valid() {
		return fmt.Errorf("unknown action_type %q", p.ActionType)
	}
	if strings.TrimSpace(p.ActionSummary) == "" {
		return fmt.Errorf("action_summary is required")
	}
	if len(p.ActionDetail) == 0 {
		return fmt.Errorf("action_detail is required")
	}
	if strings.TrimSpace(p.Reason) == "" {
		return fmt.Errorf("reason is required")
	}
	if !p.RiskLevel.Valid() {
		return fmt.Errorf("risk_level must be low, medium or high, got %q", p.RiskLevel)
	}
	if p.Priority < 1 || p.Priority > 10 {
		return fmt.Errorf("priority must be in [1,10], got %d", p.Priority)
	}
	return nil
}
