package agent

import (
	"fmt"
	"time"
)

// Budget tracks one session's resource use: wall clock since session start
// and non-terminal tool calls executed. It is mutated only by the loop
// controller, checked at the top of every turn and before every tool
// dispatch, and never persisted.
//
// The two limits are independent: a fast, chatty session is stopped by call
// count alone; a slow session by time alone.
type Budget struct {
	MaxToolCalls int
	MaxDuration  time.Duration

	started   time.Time
	toolCalls int
	// warned is set once the reasoning step has been refused a tool call and
	// told to call a terminal tool. The next top-of-turn check then forces
	// termination instead of letting the session idle against the cap.
	warned bool
}

// Start marks the session start for wall-clock accounting.
func (b *Budget) Start(now time.Time) {
	b.started = now
}

// RecordCall counts one executed non-terminal tool call.
func (b *Budget) RecordCall() {
	b.toolCalls++
}

// ToolCalls returns the number of executed non-terminal tool calls.
func (b *Budget) ToolCalls() int {
	return b.toolCalls
}

// CallsExhausted reports whether the tool-call allowance is used up.
func (b *Budget) CallsExhausted() bool {
	return b.toolCalls >= b.MaxToolCalls
}

// TimeExhausted reports whether the wall-clock allowance is used up.
func (b *Budget) TimeExhausted(now time.Time) bool {
	return now.Sub(b.started) >= b.MaxDuration
}

// Warn records that the reasoning step has been told to terminate.
func (b *Budget) Warn() {
	b.warned = true
}

// ExhaustionReason returns a diagnostic for the top-of-turn check, and
// whether the session must be force-terminated now. Call-count exhaustion
// only forces termination after the step has been warned, so a turn that
// spends its last call still gets one chance to choose a terminal tool.
func (b *Budget) ExhaustionReason(now time.Time) (string, bool) {
	if b.TimeExhausted(now) {
		return fmt.Sprintf("time budget of %s exceeded (elapsed %s)",
			b.MaxDuration, now.Sub(b.started).Round(time.Millisecond)), true
	}
	if b.CallsExhausted() && b.warned {
		return fmt.Sprintf("tool-call budget of %d exhausted", b.MaxToolCalls), true
	}
	return "", false
}
