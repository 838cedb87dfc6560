package agent

import (
	"fmt"
	"strings"

	"github.com/adcounsel/adcounsel/internal/guardrail"
	"github.com/adcounsel/adcounsel/internal/provider"
)

const systemPrompt = `You are a paid-search account analyst. You investigate one advertising account per session and either submit change proposals for human review or explain why no change is warranted. You never apply changes yourself; every proposal waits for human approval.

Work method:
- Investigate with the provided tools before proposing anything. Cite concrete metrics in every reason.
- Run evaluate_recommendation on each candidate action and fix violations before submitting.
- Budget decreases must be checked with check_reallocation_impact first.
- You have a limited tool-call and time budget. When told the budget is exhausted, immediately call submit_recommendations or skip_recommendations.
- Every session must end with exactly one terminal tool call: submit_recommendations or skip_recommendations. Never answer in plain text without a tool call.

Hard rules (mechanically enforced, do not fight them):
- Daily budgets never go below the floor.
- Bid changes stay within the configured cap of the current bid.
- Keywords in the account's strategic verticals are never paused or negated; prefer bid or creative changes.
- Converting campaigns are never paused.
- The last enabled ad in an ad group is never paused.
- All identifiers are numeric strings taken from the account snapshot, never placeholders.`

// buildInitialMessages renders the system prompt and the account snapshot
// the session opens with. initialFacts carries caller-supplied observations
// (for example, the signals that triggered this audit) and may be empty.
func buildInitialMessages(snapshot guardrail.Context, initialFacts string) []provider.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Account %s snapshot (current reporting window):\n\n", snapshot.AccountID)

	if len(snapshot.Campaigns) == 0 {
		b.WriteString("No campaign rows available.\n")
	} else {
		b.WriteString("Campaigns:\n")
		for _, c := range snapshot.Campaigns {
			category := "non-brand"
			if c.Brand {
				category = "brand"
			}
			fmt.Fprintf(&b,
				"- id=%s %q [%s, %s] budget=$%.2f/day util=%.0f%% cost=$%.2f clicks=%d conv=%.1f cpa=$%.2f\n",
				c.ID, c.Name, c.Status, category, c.DailyBudget, c.BudgetUtilization*100,
				c.Cost, c.Clicks, c.Conversions, c.CPA())
		}
	}

	if len(snapshot.Ads) > 0 {
		b.WriteString("\nAds:\n")
		for _, a := range snapshot.Ads {
			fmt.Fprintf(&b, "- id=%s group=%s campaign=%s [%s] %q clicks=%d conv=%.1f\n",
				a.ID, a.AdGroupID, a.CampaignID, a.Status, a.Headline, a.Clicks, a.Conversions)
		}
	}

	if strings.TrimSpace(initialFacts) != "" {
		b.WriteString("\nObservations that triggered this audit:\n")
		b.WriteString(initialFacts)
		b.WriteString("\n")
	}

	b.WriteString("\nInvestigate and end with submit_recommendations or skip_recommendations.")

	return []provider.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}
