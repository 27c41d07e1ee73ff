package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agentpay/warden/internal/domain"
)

// suspiciousTokens is the fixed denylist of sensitive or
// exploit-suggestive terms.
var suspiciousTokens = []string{
	"kill",
	"steal",
	"hack",
	"exploit",
	"fraud",
	"launder",
	"illegal",
	"bypass",
	"override",
	"admin",
	"root",
	"sudo",
	"password",
	"credential",
	"private_key",
	"seed_phrase",
	"wallet_secret",
}

// highRiskPatterns describes fund-draining phrasing.
var highRiskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(send|transfer)\s+all\s+(funds|money|balance)\b`),
	regexp.MustCompile(`(?i)\bmax(imum)?\s+(withdrawal|transfer)\b`),
	regexp.MustCompile(`(?i)\bempty\s+(wallet|account)\b`),
	regexp.MustCompile(`(?i)\bdrain\s+(funds|wallet)\b`),
}

// maxRiskIndicators caps how many matched tokens are reported back.
// Truncation is intentional.
const maxRiskIndicators = 3

// PromptSafetyRule scans the intent text for sensitive tokens and
// high-risk phrasing. Keyword-based by design; richer content
// moderation belongs behind an external capability.
type PromptSafetyRule struct{}

// NewPromptSafetyRule creates the content safety check.
func NewPromptSafetyRule() *PromptSafetyRule {
	return &PromptSafetyRule{}
}

func (r *PromptSafetyRule) Name() string { return domain.RulePromptSafety }

// Check fails if any denylist token or any high-risk pattern matches
// the combined description, action, and merchant text.
func (r *PromptSafetyRule) Check(_ context.Context, intent *domain.Intent, _ domain.Policy) domain.CheckResult {
	searchText := strings.ToLower(intent.Description + " " + intent.Action + " " + intent.Merchant)

	var foundTokens []string
	for _, token := range suspiciousTokens {
		if strings.Contains(searchText, token) {
			foundTokens = append(foundTokens, token)
		}
	}

	patternMatches := 0
	for _, p := range highRiskPatterns {
		if p.MatchString(searchText) {
			patternMatches++
		}
	}

	if len(foundTokens) > 0 || patternMatches > 0 {
		indicators := foundTokens
		if len(indicators) > maxRiskIndicators {
			indicators = indicators[:maxRiskIndicators]
		}
		return domain.CheckResult{
			OK: false,
			Reason: fmt.Sprintf("Suspicious content detected: %d tokens, %d patterns",
				len(foundTokens), patternMatches),
			Meta: map[string]any{
				"suspiciousTokens": foundTokens,
				"patternMatches":   patternMatches,
				"riskIndicators":   indicators,
			},
		}
	}

	return domain.CheckResult{
		OK:     true,
		Reason: "No suspicious tokens or patterns found",
		Meta: map[string]any{
			"suspiciousTokens": []string{},
			"patternMatches":   0,
			"riskIndicators":   []string{},
		},
	}
}
