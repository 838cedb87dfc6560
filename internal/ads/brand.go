package ads

import "strings"

// brandNameTokens are campaign-name markers used when no explicit brand flag
// was supplied at ingest time.
var brandNameTokens = []string{"brand", "branded", "trademark"}

// ClassifyBrand decides the brand/non-brand partition for a campaign name.
// The stored flag wins when present; this is the ingest-time fallback.
func ClassifyBrand(campaignName string) bool {
	lower := strings.ToLower(campaignName)
	for _, tok := range brandNameTokens {
		for _, part := range strings.FieldsFunc(lower, func(r rune) bool {
			return r == ' ' || r == '-' || r == '_' || r == '|' || r == '/'
		}) {
			if part == tok {
				return true
			}
		}
	}
	return false
}
