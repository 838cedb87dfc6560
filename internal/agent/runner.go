package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/adcounsel/adcounsel/internal/config"
	"github.com/adcounsel/adcounsel/internal/guardrail"
	"github.com/adcounsel/adcounsel/internal/history"
	"github.com/adcounsel/adcounsel/internal/impact"
	"github.com/adcounsel/adcounsel/internal/provider"
	"github.com/adcounsel/adcounsel/internal/signalbus"
	"github.com/adcounsel/adcounsel/internal/store"
	"github.com/adcounsel/adcounsel/internal/tools"
)

// ProposalExpiry is how long a submitted proposal waits for review before it
// goes stale: session end plus 72 hours.
const ProposalExpiry = 72 * time.Hour

// Notifier tells a human reviewer that a session finished. Failures are
// logged, never fatal.
type Notifier interface {
	SessionFinished(ctx context.Context, accountID string, result *LoopResult) error
}

// Runner wires one account audit end to end: loads the snapshot, runs the
// loop, persists the outcome, and notifies the reviewer.
type Runner struct {
	Store    *store.Store
	Provider provider.ReasoningProvider
	Config   config.Config
	Notifier Notifier

	// SignalSource overrides the configured Kafka source; used by tests and
	// by deployments without a bus.
	SignalSource signalbus.Source
}

// Run executes one investigation session for the account and persists its
// result. The returned LoopResult is complete even when persistence fails.
func (r *Runner) Run(ctx context.Context, accountID, initialFacts string) (*LoopResult, error) {
	sessionID := uuid.NewString()
	started := time.Now().UTC()
	slog.Info("starting audit session", "session_id", sessionID, "account_id", accountID)

	campaigns, err := r.Store.GetCampaignSnapshots(accountID)
	if err != nil {
		return nil, fmt.Errorf("load campaign snapshot: %w", err)
	}
	adRows, err := r.Store.GetAdSnapshots(accountID)
	if err != nil {
		return nil, fmt.Errorf("load ad snapshot: %w", err)
	}
	snapshot := guardrail.Context{AccountID: accountID, Campaigns: campaigns, Ads: adRows}

	controller := &Controller{
		Provider:      r.Provider,
		Executor:      r.buildExecutor(snapshot),
		MaxToolCalls:  r.Config.Session.MaxToolCalls,
		MaxDuration:   r.Config.Session.MaxDuration,
		MaxIterations: r.Config.Session.MaxIterations,
		Model:         r.Config.Provider.Model,
		MaxTokens:     r.Config.Provider.MaxTokens,
		Temperature:   r.Config.Provider.Temperature,
	}

	result := controller.Run(ctx, snapshot, initialFacts)
	sessionEnd := time.Now().UTC()
	slog.Info("audit session finished",
		"session_id", sessionID, "outcome", result.Outcome, "forced", result.Forced,
		"proposals", len(result.Proposals), "iterations", result.Iterations,
		"duration", sessionEnd.Sub(started).Round(time.Millisecond))

	if err := r.persist(sessionID, accountID, sessionEnd, result); err != nil {
		return result, err
	}
	r.notify(ctx, accountID, result)
	return result, nil
}

func (r *Runner) buildExecutor(snapshot guardrail.Context) *tools.Executor {
	src := r.SignalSource
	if src == nil && r.Config.SignalBus.Enabled {
		src = &signalbus.KafkaSource{
			Brokers:     r.Config.SignalBus.Brokers,
			Topic:       r.Config.SignalBus.Topic,
			ReadTimeout: r.Config.SignalBus.ReadTimeout,
		}
	}
	return &tools.Executor{
		Signals: signalbus.NewReader(src),
		History: history.NewReader(r.Store),
		Impact: impact.NewAnalyzer(r.Store, impact.Config{
			CreativeProtectionDays:     r.Config.Impact.CreativeProtectionDays,
			CumulativeLossWindowDays:   r.Config.Impact.CumulativeLossWindowDays,
			CumulativeLossThresholdPct: r.Config.Impact.CumulativeLossThresholdPct,
			UtilizationCeiling:         r.Config.Impact.UtilizationCeiling,
			BudgetFloor:                r.Config.Guardrails.BudgetFloor,
		}),
		Guardrail: guardrail.NewEvaluator(
			r.Config.Guardrails.BudgetFloor,
			r.Config.Guardrails.BidChangeCapPct,
			r.Config.Guardrails.ProtectedKeywords,
		),
		Snapshot: snapshot,
	}
}

// persist writes the decision-queue records and the session audit. Proposals
// carry the session metadata reviewers need: iteration count, deduplicated
// tools used, the full call log, and the 72-hour expiry.
func (r *Runner) persist(sessionID, accountID string, sessionEnd time.Time, result *LoopResult) error {
	toolLog, err := json.Marshal(result.ToolCalls)
	if err != nil {
		return fmt.Errorf("encode tool call log: %w", err)
	}
	toolsUsed, err := json.Marshal(result.ToolsUsed())
	if err != nil {
		return fmt.Errorf("encode tools used: %w", err)
	}
	expiresAt := sessionEnd.Add(ProposalExpiry)

	for _, p := range result.Proposals {
		detail, err := json.Marshal(p.ActionDetail)
		if err != nil {
			return fmt.Errorf("encode action detail: %w", err)
		}
		dataSnapshot := []byte("{}")
		if p.DataSnapshot != nil {
			if dataSnapshot, err = json.Marshal(p.DataSnapshot); err != nil {
				return fmt.Errorf("encode data snapshot: %w", err)
			}
		}
		rec := &store.ProposalRecord{
			ProposalID:    uuid.NewString(),
			SessionID:     sessionID,
			AccountID:     accountID,
			ActionType:    string(p.ActionType),
			ActionSummary: p.ActionSummary,
			ActionDetail:  string(detail),
			Reason:        p.Reason,
			RiskLevel:     string(p.RiskLevel),
			Priority:      p.Priority,
			DataSnapshot:  string(dataSnapshot),
			Iterations:    result.Iterations,
			ToolsUsed:     string(toolsUsed),
			ToolCallLog:   string(toolLog),
			ExpiresAt:     expiresAt,
		}
		if err := r.Store.InsertProposal(rec); err != nil {
			return fmt.Errorf("queue proposal: %w", err)
		}
	}

	outcome := store.OutcomeSkip
	if result.Outcome == OutcomeSubmit {
		outcome = store.OutcomeSubmit
	}
	audit := &store.SessionAudit{
		SessionID:            sessionID,
		AccountID:            accountID,
		Outcome:              outcome,
		Reason:               result.Reason,
		Narrative:            result.Narrative,
		InvestigationSummary: result.InvestigationSummary,
		ToolCallLog:          string(toolLog),
		Iterations:           result.Iterations,
		Forced:               result.Forced,
		ProposalCount:        len(result.Proposals),
	}
	if err := r.Store.InsertSessionAudit(audit); err != nil {
		return fmt.Errorf("record session audit: %w", err)
	}

	r.bumpSessionCounter()
	return nil
}

func (r *Runner) bumpSessionCounter() {
	raw, err := r.Store.GetSetting("sessions_run_total")
	if err != nil {
		slog.Warn("failed to read session counter", "error", err)
		return
	}
	n, _ := strconv.Atoi(raw)
	if err := r.Store.SetSetting("sessions_run_total", strconv.Itoa(n+1)); err != nil {
		slog.Warn("failed to bump session counter", "error", err)
	}
}

func (r *Runner) notify(ctx context.Context, accountID string, result *LoopResult) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.SessionFinished(ctx, accountID, result); err != nil {
		slog.Warn("reviewer notification failed", "account_id", accountID, "error", err)
	}
}
