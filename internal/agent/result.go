package agent

import (
	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/tools"
)

// Outcome tags the terminal state of a session.
type Outcome string

const (
	// OutcomeSubmit means the session ended by submitting zero or more
	// proposals for human review.
	OutcomeSubmit Outcome = "submit"
	// OutcomeSkip means the session ended with no proposals, either by
	// choice or by forced termination.
	OutcomeSkip Outcome = "skip"
)

// LoopResult is the single terminal result every session produces, in every
// case: clean submit, clean skip, protocol violation, budget exhaustion.
type LoopResult struct {
	Outcome Outcome

	// Submit fields.
	Proposals []ads.Proposal
	Narrative string

	// Skip fields.
	Reason string
	// Forced is true when the controller terminated the session itself
	// (budget exhaustion or protocol violation) rather than the reasoning
	// step choosing to end it.
	Forced bool

	InvestigationSummary string
	Iterations           int
	ToolCalls            []tools.CallRecord
}

// ToolsUsed returns the deduplicated tool names from the call log, in first
// use order.
func (r *LoopResult) ToolsUsed() []string {
	seen := make(map[string]bool, len(r.ToolCalls))
	out := make([]string, 0, len(r.ToolCalls))
	for _, c := range r.ToolCalls {
		if !seen[c.ToolName] {
			seen[c.ToolName] = true
			out = append(out, c.ToolName)
		}
	}
	return out
}
