package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/guardrail"
	"github.com/adcounsel/adcounsel/internal/history"
	"github.com/adcounsel/adcounsel/internal/impact"
	"github.com/adcounsel/adcounsel/internal/signalbus"
)

// CallRecord is one entry in a session's append-only tool log. Records are
// immutable once appended and are kept even when the call failed.
type CallRecord struct {
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input"`
	Output   string         `json:"output"`
	Duration time.Duration  `json:"duration"`
	Err      string         `json:"error,omitempty"`
}

// Executor dispatches investigation tool calls. Failures become structured
// {"error": ...} payloads the reasoning step can react to, never session
// aborts.
type Executor struct {
	Signals   *signalbus.Reader
	History   *history.Reader
	Impact    *impact.Analyzer
	Guardrail *guardrail.Evaluator
	Snapshot  guardrail.Context
}

// Execute runs one tool call, wrapping it with a timer. The returned record
// is complete regardless of outcome. Terminal tools are acknowledged but not
// acted on here; ending the session is the controller's job.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]any) (string, CallRecord) {
	start := time.Now()

	var output string
	var callErr error
	switch kind := KindFor(name); kind {
	case KindCheckSignalBus:
		output, callErr = e.checkSignalBus(ctx, input)
	case KindGetHistoricalPerformance:
		output, callErr = e.getHistoricalPerformance(input)
	case KindCheckReallocationImpact:
		output, callErr = e.checkReallocationImpact(input)
	case KindEvaluateRecommendation:
		output, callErr = e.evaluateRecommendation(input)
	case KindSubmitRecommendations, KindSkipRecommendations:
		output = `{"status":"acknowledged"}`
	case KindUnknown:
		callErr = fmt.Errorf("unknown tool %q", name)
	}

	rec := CallRecord{
		ToolName: name,
		Input:    input,
		Output:   output,
		Duration: time.Since(start),
	}
	if callErr != nil {
		rec.Err = callErr.Error()
		rec.Output = errorPayload(callErr)
		slog.Debug("tool call failed", "tool", name, "error", callErr)
	}
	return rec.Output, rec
}

func (e *Executor) checkSignalBus(ctx context.Context, input map[string]any) (string, error) {
	topic := GetString(input, "topic", "")
	if topic == "" {
		return "", fmt.Errorf("check_signal_bus requires a topic")
	}
	lookback := GetInt(input, "lookback_days", 0)
	res := e.Signals.Lookup(ctx, topic, lookback)
	return marshal(res)
}

func (e *Executor) getHistoricalPerformance(input map[string]any) (string, error) {
	q := history.Query{
		CampaignID:  GetString(input, "campaign_id", ""),
		KeywordText: GetString(input, "keyword_text", ""),
		Days:        GetInt(input, "days", 0),
	}
	report, err := e.History.Read(q)
	if err != nil {
		return "", err
	}
	return marshal(report)
}

func (e *Executor) checkReallocationImpact(input map[string]any) (string, error) {
	sourceID := GetString(input, "source_campaign_id", "")
	if sourceID == "" {
		return "", fmt.Errorf("check_reallocation_impact requires source_campaign_id")
	}
	decrease := GetFloat(input, "decrease_amount", 0)
	assessment, err := e.Impact.Analyze(sourceID, decrease)
	if err != nil {
		return "", err
	}
	return marshal(assessment)
}

func (e *Executor) evaluateRecommendation(input map[string]any) (string, error) {
	actionType := GetString(input, "action_type", "")
	if actionType == "" {
		return "", fmt.Errorf("evaluate_recommendation requires action_type")
	}
	detail, _ := input["action_detail"].(map[string]any)
	if detail == nil {
		return "", fmt.Errorf("evaluate_recommendation requires an action_detail object")
	}
	ev := e.Guardrail.Evaluate(guardrail.Action{
		Type:   ads.ActionType(actionType),
		Detail: detail,
		Reason: GetString(input, "reason", ""),
	}, e.Snapshot)
	return marshal(ev)
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(b), nil
}

func errorPayload(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
