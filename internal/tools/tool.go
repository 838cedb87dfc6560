// Package tools defines the fixed investigation tool palette: the typed tool
// kinds, their wire schemas for the reasoning step, and the executor that
// dispatches calls with timing and structured-error capture.
package tools

import (
	"fmt"
)

// Kind is a closed enumeration of the tools a session may call. Keeping the
// set typed (rather than dispatching on raw strings) makes the executor's
// switch exhaustive.
type Kind int

const (
	KindUnknown Kind = iota
	KindCheckSignalBus
	KindGetHistoricalPerformance
	KindCheckReallocationImpact
	KindEvaluateRecommendation
	KindSubmitRecommendations
	KindSkipRecommendations
)

// Wire names, as presented to the reasoning step.
const (
	NameCheckSignalBus           = "check_signal_bus"
	NameGetHistoricalPerformance = "get_historical_performance"
	NameCheckReallocationImpact  = "check_reallocation_impact"
	NameEvaluateRecommendation   = "evaluate_recommendation"
	NameSubmitRecommendations    = "submit_recommendations"
	NameSkipRecommendations      = "skip_recommendations"
)

// KindFor maps a wire name to its kind. Unknown names map to KindUnknown.
func KindFor(name string) Kind {
	switch name {
	case NameCheckSignalBus:
		return KindCheckSignalBus
	case NameGetHistoricalPerformance:
		return KindGetHistoricalPerformance
	case NameCheckReallocationImpact:
		return KindCheckReallocationImpact
	case NameEvaluateRecommendation:
		return KindEvaluateRecommendation
	case NameSubmitRecommendations:
		return KindSubmitRecommendations
	case NameSkipRecommendations:
		return KindSkipRecommendations
	default:
		return KindUnknown
	}
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCheckSignalBus:
		return NameCheckSignalBus
	case KindGetHistoricalPerformance:
		return NameGetHistoricalPerformance
	case KindCheckReallocationImpact:
		return NameCheckReallocationImpact
	case KindEvaluateRecommendation:
		return NameEvaluateRecommendation
	case KindSubmitRecommendations:
		return NameSubmitRecommendations
	case KindSkipRecommendations:
		return NameSkipRecommendations
	default:
		return fmt.Sprintf("unknown_tool(%d)", int(k))
	}
}

// Terminal reports whether calling this tool ends the session.
func (k Kind) Terminal() bool {
	return k == KindSubmitRecommendations || k == KindSkipRecommendations
}

// Kinds lists every callable tool in presentation order.
func Kinds() []Kind {
	return []Kind{
		KindCheckSignalBus,
		KindGetHistoricalPerformance,
		KindCheckReallocationImpact,
		KindEvaluateRecommendation,
		KindSubmitRecommendations,
		KindSkipRecommendations,
	}
}

// ---------------------------------------------------------------------------
// Parameter helpers
// ---------------------------------------------------------------------------

// GetString extracts a string parameter with a default value.
func GetString(params map[string]any, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// GetFloat extracts a numeric parameter with a default value. JSON numbers
// decode as float64, but hand-built test params may carry ints.
func GetFloat(params map[string]any, key string, defaultVal float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}

// GetInt extracts an integer parameter with a default value.
func GetInt(params map[string]any, key string, defaultVal int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return defaultVal
	}
}
