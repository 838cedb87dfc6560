package tools

import (
	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/provider"
)

// Definitions returns the six tool schemas in OpenAI function format. The
// reasoning step is given exactly these per session, no others.
func Definitions() []provider.ToolDefinition {
	kinds := Kinds()
	out := make([]provider.ToolDefinition, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDef{
				Name:        k.String(),
				Description: description(k),
				Parameters:  parameters(k),
			},
		})
	}
	return out
}

func description(k Kind) string {
	switch k {
	case KindCheckSignalBus:
		return "Look up cross-system signals (CRM events, scrape findings, ops notes) relevant to a topic. Best-effort: returns an empty list when nothing is known."
	case KindGetHistoricalPerformance:
		return "Fetch the daily performance series and trend summary for one campaign or one keyword, plus the measured aftermath of past actions taken on it. Provide exactly one of campaign_id or keyword_text."
	case KindCheckReallocationImpact:
		return "Score whether reducing a campaign's budget is safe and list same-category campaigns that could receive the freed budget."
	case KindEvaluateRecommendation:
		return "Run the deterministic guardrail check against one proposed action. Returns passes, violations and warnings. Call this before submitting any proposal."
	case KindSubmitRecommendations:
		return "Terminal. Submit zero or more vetted proposals for human review and end the session. An empty proposal list with a narrative is a valid no-op submission."
	case KindSkipRecommendations:
		return "Terminal. End the session with no proposals, stating why no action is warranted."
	default:
		return ""
	}
}

func parameters(k Kind) map[string]any {
	switch k {
	case KindCheckSignalBus:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type":        "string",
					"description": "Topic to search signals for, e.g. a campaign theme or 'budget'.",
				},
				"lookback_days": map[string]any{
					"type":        "integer",
					"description": "Trailing window in days, max 30.",
					"default":     7,
					"maximum":     30,
				},
			},
			"required": []string{"topic"},
		}
	case KindGetHistoricalPerformance:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"campaign_id": map[string]any{
					"type":        "string",
					"description": "Numeric campaign identifier. Mutually exclusive with keyword_text.",
				},
				"keyword_text": map[string]any{
					"type":        "string",
					"description": "Exact keyword text. Mutually exclusive with campaign_id.",
				},
				"days": map[string]any{
					"type":        "integer",
					"description": "Trailing window in days, max 90.",
					"default":     30,
					"maximum":     90,
				},
			},
		}
	case KindCheckReallocationImpact:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source_campaign_id": map[string]any{
					"type":        "string",
					"description": "Campaign whose budget would be reduced.",
				},
				"decrease_amount": map[string]any{
					"type":        "number",
					"description": "Proposed daily-budget reduction in dollars. Optional.",
				},
			},
			"required": []string{"source_campaign_id"},
		}
	case KindEvaluateRecommendation:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action_type": map[string]any{
					"type": "string",
					"enum": actionTypeNames(),
				},
				"action_detail": map[string]any{
					"type":        "object",
					"description": "Action-specific fields. All identifiers must be numeric strings.",
				},
				"reason": map[string]any{
					"type":        "string",
					"description": "Why this action is proposed. Must cite metrics.",
				},
			},
			"required": []string{"action_type", "action_detail", "reason"},
		}
	case KindSubmitRecommendations:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"proposals": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"action_type":    map[string]any{"type": "string", "enum": actionTypeNames()},
							"action_summary": map[string]any{"type": "string"},
							"action_detail":  map[string]any{"type": "object"},
							"reason":         map[string]any{"type": "string"},
							"risk_level":     map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
							"priority":       map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
							"data_snapshot":  map[string]any{"type": "object"},
						},
						"required": []string{"action_type", "action_summary", "action_detail", "reason", "risk_level", "priority"},
					},
				},
				"narrative": map[string]any{
					"type":        "string",
					"description": "Reviewer-facing account narrative.",
				},
				"investigation_summary": map[string]any{
					"type":        "string",
					"description": "What was checked and what was found.",
				},
			},
			"required": []string{"proposals", "narrative", "investigation_summary"},
		}
	case KindSkipRecommendations:
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":        "string",
					"description": "Why no action is warranted.",
				},
				"investigation_summary": map[string]any{
					"type":        "string",
					"description": "What was checked and what was found.",
				},
			},
			"required": []string{"reason", "investigation_summary"},
		}
	default:
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
}

func actionTypeNames() []string {
	types := ads.KnownActionTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
