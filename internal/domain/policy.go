package domain

// Policy is the per-agent spending and risk configuration.
// Policies are value-type snapshots: the resolver hands each
// evaluation its own copy so rules cannot observe or cause
// cross-evaluation interference.
type Policy struct {
	AgentID                   string   `json:"agentId,omitempty"`
	MaxBudget                 float64  `json:"maxBudget"`
	Currency                  string   `json:"currency"`
	RequireMerchantWhitelist  bool     `json:"requireMerchantWhitelist"`
	RiskThreshold             float64  `json:"riskThreshold"`
	AllowedMerchantCategories []string `json:"allowedMerchantCategories,omitempty"`
	BlockedMerchants          []string `json:"blockedMerchants,omitempty"`

	// SubscriptionLimit gates recurring payments. Zero means
	// subscriptions are forbidden outright; any positive value
	// merely allows them (presence detection, not usage tracking).
	SubscriptionLimit int `json:"subscriptionLimit"`

	// DailyTransactionLimit is informational only; no rule
	// currently enforces it.
	DailyTransactionLimit float64 `json:"dailyTransactionLimit,omitempty"`

	// CustomRules extends the built-in rule set with CEL
	// expressions evaluated against the normalized intent.
	CustomRules []CustomRule `json:"customRules,omitempty"`
}

// CustomRule is a policy-defined CEL check. The expression sees the
// normalized intent fields (amount, currency, merchant, action,
// description) and must evaluate to bool or a numeric score; a true
// or score >= 1 outcome fails the check.
type CustomRule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Reason     string `json:"reason,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// IsBlocked reports whether the merchant identifier appears in the
// policy's blocked list.
func (p Policy) IsBlocked(merchantID string) bool {
	for _, m := range p.BlockedMerchants {
		if m == merchantID {
			return true
		}
	}
	return false
}

// DefaultPolicy is the conservative policy applied to unknown or
// malformed agent identifiers: low budget, whitelist required, zero
// subscription tolerance.
func DefaultPolicy() Policy {
	return Policy{
		MaxBudget:                 25.00,
		Currency:                  "USD",
		RequireMerchantWhitelist:  true,
		RiskThreshold:             0.3,
		AllowedMerchantCategories: []string{"food"},
		SubscriptionLimit:         0,
		DailyTransactionLimit:     50.00,
	}
}
