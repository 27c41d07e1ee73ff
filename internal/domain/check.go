package domain

// CheckResult is the uniform output of every rule. A failed check
// (OK=false) is normal business output, not an error; rules only
// error on structurally invalid input.
type CheckResult struct {
	OK     bool           `json:"ok"`
	Reason string         `json:"reason"`
	Meta   map[string]any `json:"meta"`
}

// Built-in rule names. These double as keys in the aggregator's
// weight registry; unrecognized names fall back to a default weight
// so new rules can be added without touching the aggregator.
const (
	RuleBudget       = "budget"
	RuleMerchant     = "merchant"
	RuleSubscription = "subscription"
	RulePromptSafety = "promptSafety"
)
