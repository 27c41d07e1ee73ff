package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentpay/warden/internal/domain"
)

// subscriptionKeywords is the fixed vocabulary of recurring-billing
// terms searched for in the intent text.
var subscriptionKeywords = []string{
	"subscription",
	"subscribe",
	"monthly",
	"weekly",
	"yearly",
	"annual",
	"recurring",
	"membership",
	"premium",
	"pro plan",
	"auto-renew",
	"autorenew",
	"billing cycle",
}

// SubscriptionRule detects recurring-payment language in the intent.
// The rule detects presence of subscription keywords only; the
// policy's subscription limit gates yes/no and does not track actual
// recurrence counts.
type SubscriptionRule struct{}

// NewSubscriptionRule creates the subscription pattern check.
func NewSubscriptionRule() *SubscriptionRule {
	return &SubscriptionRule{}
}

func (r *SubscriptionRule) Name() string { return domain.RuleSubscription }

// Check fails only when subscription language is present and the
// policy's limit is zero (subscriptions categorically forbidden).
func (r *SubscriptionRule) Check(_ context.Context, intent *domain.Intent, policy domain.Policy) domain.CheckResult {
	searchText := strings.ToLower(intent.Description + " " + intent.Action)

	var found []string
	for _, kw := range subscriptionKeywords {
		if strings.Contains(searchText, kw) {
			found = append(found, kw)
		}
	}

	isSubscription := len(found) > 0
	limit := policy.SubscriptionLimit

	meta := map[string]any{
		"detectedKeywords":  found,
		"subscriptionLimit": limit,
		"isSubscription":    isSubscription,
	}

	if !isSubscription {
		meta["detectedKeywords"] = []string{}
		return domain.CheckResult{
			OK:     true,
			Reason: "No recurring payment patterns detected",
			Meta:   meta,
		}
	}

	if limit == 0 {
		return domain.CheckResult{
			OK:     false,
			Reason: "Subscription payments are not allowed for this agent",
			Meta:   meta,
		}
	}

	return domain.CheckResult{
		OK:     true,
		Reason: fmt.Sprintf("Subscription pattern detected (keywords: %s)", strings.Join(found, ", ")),
		Meta:   meta,
	}
}
