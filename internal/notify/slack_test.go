package notify

import (
	"strings"
	"testing"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/agent"
	"github.com/adcounsel/adcounsel/internal/tools"
)

func TestFormatMessageSubmit(t *testing.T) {
	msg := formatMessage("acct-1", &agent.LoopResult{
		Outcome: agent.OutcomeSubmit,
		Proposals: []ads.Proposal{{
			ActionType:    ads.ActionAdjustBudget,
			ActionSummary: "Lower budget for campaign 1001",
			Reason:        "CPA up 30%",
			RiskLevel:     ads.RiskMedium,
			Priority:      7,
		}},
		Narrative:            "One campaign is overspending.",
		InvestigationSummary: "Checked trends.",
		Iterations:           3,
		ToolCalls:            []tools.CallRecord{{ToolName: "get_historical_performance"}},
	})
	for _, want := range []string{"acct-1", "1 proposal", "priority 7", "Lower budget", "3 iteration"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatMessageNoOpSubmit(t *testing.T) {
	msg := formatMessage("acct-1", &agent.LoopResult{
		Outcome:   agent.OutcomeSubmit,
		Narrative: "Everything within targets.",
	})
	if !strings.Contains(msg, "no changes proposed") {
		t.Errorf("message = %s", msg)
	}
}

func TestFormatMessageForcedSkip(t *testing.T) {
	msg := formatMessage("acct-1", &agent.LoopResult{
		Outcome: agent.OutcomeSkip,
		Forced:  true,
		Reason:  "tool-call budget of 5 exhausted",
	})
	if !strings.Contains(msg, "force-terminated") || !strings.Contains(msg, "budget") {
		t.Errorf("message = %s", msg)
	}
}

func TestFormatMessageSkip(t *testing.T) {
	msg := formatMessage("acct-1", &agent.LoopResult{
		Outcome: agent.OutcomeSkip,
		Reason:  "healthy account",
	})
	if !strings.Contains(msg, "skipped: healthy account") {
		t.Errorf("message = %s", msg)
	}
}
