// Package agent runs the bounded investigation loop: it feeds the account
// snapshot to the reasoning step, executes the tool calls it requests,
// enforces the session's call and time budgets, and recognizes terminal
// outcomes. The loop never crashes a run: protocol violations and budget
// exhaustion resolve to a well-formed skip result.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adcounsel/adcounsel/internal/guardrail"
	"github.com/adcounsel/adcounsel/internal/provider"
	"github.com/adcounsel/adcounsel/internal/tools"
)

const (
	// DefaultMaxToolCalls caps executed non-terminal tool calls per session.
	DefaultMaxToolCalls = 5
	// DefaultMaxDuration caps session wall clock.
	DefaultMaxDuration = 30 * time.Second
	// DefaultMaxIterations caps reasoning turns regardless of tool usage.
	DefaultMaxIterations = 10
)

// budgetRefusal is the payload returned for a tool call requested after the
// budget ran out. The call is not executed and not logged; the reasoning
// step may still choose a terminal tool on the same turn.
const budgetRefusal = `{"error":"session budget exhausted; you must call submit_recommendations or skip_recommendations now"}`

// Controller orchestrates one investigation session.
type Controller struct {
	Provider provider.ReasoningProvider
	Executor *tools.Executor

	MaxToolCalls  int
	MaxDuration   time.Duration
	MaxIterations int

	Model       string
	MaxTokens   int
	Temperature float64

	// now is overridable for budget tests.
	now func() time.Time
}

// Run executes the session to its single terminal result. It always returns
// a usable LoopResult; it never returns an error to the caller because every
// failure mode maps to a forced skip with a diagnostic reason.
func (c *Controller) Run(ctx context.Context, snapshot guardrail.Context, initialFacts string) *LoopResult {
	now := c.now
	if now == nil {
		now = time.Now
	}
	budget := &Budget{MaxToolCalls: c.MaxToolCalls, MaxDuration: c.MaxDuration}
	if budget.MaxToolCalls <= 0 {
		budget.MaxToolCalls = DefaultMaxToolCalls
	}
	if budget.MaxDuration <= 0 {
		budget.MaxDuration = DefaultMaxDuration
	}
	maxIterations := c.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	budget.Start(now())

	messages := buildInitialMessages(snapshot, initialFacts)
	definitions := tools.Definitions()
	var log []tools.CallRecord
	iterations := 0

	for {
		// Budget gate before issuing another reasoning request. In-flight
		// work is never aborted; the controller just refuses to start more.
		if reason, stop := budget.ExhaustionReason(now()); stop {
			return c.forced(reason, iterations, log)
		}
		if iterations >= maxIterations {
			return c.forced(fmt.Sprintf("iteration cap of %d reached", maxIterations), iterations, log)
		}
		iterations++

		resp, err := c.Provider.Chat(ctx, &provider.ChatRequest{
			Messages:    messages,
			Tools:       definitions,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
		})
		if err != nil {
			return c.forced(fmt.Sprintf("reasoning step unreachable: %v", err), iterations, log)
		}
		if len(resp.ToolCalls) == 0 {
			// The reasoning step must not fall silent.
			return c.forced("ended without calling a terminal tool", iterations, log)
		}

		messages = append(messages, provider.Message{
			Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls,
		})

		for i, call := range resp.ToolCalls {
			kind := tools.KindFor(call.Name)

			if kind.Terminal() {
				result, rec, perr := c.finishTerminal(kind, call, now)
				log = append(log, rec)
				if perr != nil {
					return c.forced(perr.Error(), iterations, log)
				}
				if skipped := len(resp.ToolCalls) - i - 1; skipped > 0 {
					slog.Debug("terminal tool ends session; later calls in turn acknowledged but not executed",
						"tool", call.Name, "skipped", skipped)
				}
				result.Iterations = iterations
				result.ToolCalls = log
				return result
			}

			// Tool dispatch gate: both budgets checked before every call.
			if budget.CallsExhausted() || budget.TimeExhausted(now()) {
				budget.Warn()
				messages = append(messages, provider.Message{
					Role: "tool", ToolCallID: call.ID, Content: budgetRefusal,
				})
				continue
			}

			output, rec := c.Executor.Execute(ctx, call.Name, call.Arguments)
			log = append(log, rec)
			budget.RecordCall()
			messages = append(messages, provider.Message{
				Role: "tool", ToolCallID: call.ID, Content: output,
			})
		}
	}
}

// finishTerminal decodes a terminal tool call into the session result. A
// malformed payload is returned as a protocol violation.
func (c *Controller) finishTerminal(kind tools.Kind, call provider.ToolCall, now func() time.Time) (*LoopResult, tools.CallRecord, error) {
	start := now()
	rec := tools.CallRecord{ToolName: call.Name, Input: call.Arguments}

	var result *LoopResult
	var err error
	switch kind {
	case tools.KindSubmitRecommendations:
		var in *tools.SubmitInput
		if in, err = tools.ParseSubmit(call.Arguments); err == nil {
			result = &LoopResult{
				Outcome:              OutcomeSubmit,
				Proposals:            in.Proposals,
				Narrative:            in.Narrative,
				InvestigationSummary: in.InvestigationSummary,
			}
		}
	case tools.KindSkipRecommendations:
		var in *tools.SkipInput
		if in, err = tools.ParseSkip(call.Arguments); err == nil {
			result = &LoopResult{
				Outcome:              OutcomeSkip,
				Reason:               in.Reason,
				InvestigationSummary: in.InvestigationSummary,
			}
		}
	default:
		err = fmt.Errorf("tool %s is not terminal", call.Name)
	}

	rec.Duration = now().Sub(start)
	if err != nil {
		rec.Err = err.Error()
		rec.Output = fmt.Sprintf(`{"error":%q}`, err.Error())
		return nil, rec, err
	}
	rec.Output = `{"status":"session_ended"}`
	return result, rec, nil
}

// forced builds the skip result for controller-initiated termination.
func (c *Controller) forced(reason string, iterations int, log []tools.CallRecord) *LoopResult {
	slog.Info("session force-terminated", "reason", reason, "iterations", iterations, "tool_calls", len(log))
	return &LoopResult{
		Outcome:              OutcomeSkip,
		Reason:               reason,
		Forced:               true,
		InvestigationSummary: summarizeLog(log),
		Iterations:           iterations,
		ToolCalls:            log,
	}
}

func summarizeLog(log []tools.CallRecord) string {
	if len(log) == 0 {
		return "no tools were executed before termination"
	}
	names := make([]string, len(log))
	for i, rec := range log {
		names[i] = rec.ToolName
	}
	return fmt.Sprintf("executed %d tool call(s) before termination: %s",
		len(log), strings.Join(names, ", "))
}
