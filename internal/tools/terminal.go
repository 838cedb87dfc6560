package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adcounsel/adcounsel/internal/ads"
)

// SubmitInput is the decoded payload of a submit_recommendations call. An
// empty Proposals list with a narrative is a valid no-op submission.
type SubmitInput struct {
	Proposals            []ads.Proposal `json:"proposals"`
	Narrative            string         `json:"narrative"`
	InvestigationSummary string         `json:"investigation_summary"`
}

// SkipInput is the decoded payload of a skip_recommendations call.
type SkipInput struct {
	Reason               string `json:"reason"`
	InvestigationSummary string `json:"investigation_summary"`
}

// ParseSubmit decodes and validates a submit_recommendations payload. A
// malformed payload is a protocol violation the controller turns into a
// forced skip.
func ParseSubmit(input map[string]any) (*SubmitInput, error) {
	var out SubmitInput
	if err := decode(input, &out); err != nil {
		return nil, fmt.Errorf("malformed submit_recommendations payload: %w", err)
	}
	if strings.TrimSpace(out.Narrative) == "" {
		return nil, fmt.Errorf("submit_recommendations requires a narrative")
	}
	if out.Proposals == nil {
		out.Proposals = []ads.Proposal{}
	}
	for i, p := range out.Proposals {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("proposal %d is invalid: %w", i+1, err)
		}
	}
	return &out, nil
}

// ParseSkip decodes and validates a skip_recommendations payload.
func ParseSkip(input map[string]any) (*SkipInput, error) {
	var out SkipInput
	if err := decode(input, &out); err != nil {
		return nil, fmt.Errorf("malformed skip_recommendations payload: %w", err)
	}
	if strings.TrimSpace(out.Reason) == "" {
		return nil, fmt.Errorf("skip_recommendations requires a reason")
	}
	return &out, nil
}

// decode round-trips a raw params map through JSON into a typed struct, so
// the terminal payloads get the same strict field handling as the wire.
func decode(input map[string]any, dst any) error {
	b, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
