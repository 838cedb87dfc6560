// Package notify posts session outcomes to the reviewer channel.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/adcounsel/adcounsel/internal/agent"
)

// SlackNotifier posts one message per finished session to a Slack channel.
type SlackNotifier struct {
	api     *slack.Client
	channel string
}

// NewSlackNotifier creates a notifier for the given bot token and channel.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{api: slack.New(token), channel: channel}
}

// SessionFinished posts the session summary. The runner treats failures as
// non-fatal.
func (n *SlackNotifier) SessionFinished(ctx context.Context, accountID string, result *agent.LoopResult) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(formatMessage(accountID, result), false))
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}

func formatMessage(accountID string, result *agent.LoopResult) string {
	var b strings.Builder

	switch {
	case result.Outcome == agent.OutcomeSubmit && len(result.Proposals) > 0:
		fmt.Fprintf(&b, ":mag: Account %s audit: %d proposal(s) awaiting review\n", accountID, len(result.Proposals))
		for _, p := range result.Proposals {
			fmt.Fprintf(&b, "• [%s, priority %d] %s — %s\n", p.RiskLevel, p.Priority, p.ActionSummary, p.Reason)
		}
		fmt.Fprintf(&b, "\n%s", result.Narrative)
	case result.Outcome == agent.OutcomeSubmit:
		fmt.Fprintf(&b, ":white_check_mark: Account %s audit: no changes proposed\n%s", accountID, result.Narrative)
	case result.Forced:
		fmt.Fprintf(&b, ":warning: Account %s audit force-terminated: %s", accountID, result.Reason)
	default:
		fmt.Fprintf(&b, ":white_check_mark: Account %s audit skipped: %s", accountID, result.Reason)
	}

	if result.InvestigationSummary != "" {
		fmt.Fprintf(&b, "\n_%s (%d iteration(s), %d tool call(s))_",
			result.InvestigationSummary, result.Iterations, len(result.ToolCalls))
	}
	return b.String()
}
