package rules

import (
	"context"
	"fmt"
	"math"

	"github.com/agentpay/warden/internal/domain"
)

// BudgetRule checks that the payment amount is within the agent's
// budget limit.
type BudgetRule struct{}

// NewBudgetRule creates the budget check.
func NewBudgetRule() *BudgetRule {
	return &BudgetRule{}
}

func (r *BudgetRule) Name() string { return domain.RuleBudget }

// Check passes iff amount <= maxBudget. meta.remaining is the budget
// left after this intent, floored at zero.
func (r *BudgetRule) Check(_ context.Context, intent *domain.Intent, policy domain.Policy) domain.CheckResult {
	amount := intent.Amount
	maxBudget := policy.MaxBudget

	currency := intent.Currency
	if currency == "" {
		currency = policy.Currency
	}
	if currency == "" {
		currency = "USD"
	}

	ok := amount <= maxBudget

	reason := fmt.Sprintf("Amount $%.2f exceeds limit of $%.2f", amount, maxBudget)
	if ok {
		reason = fmt.Sprintf("Amount $%.2f is within limit of $%.2f", amount, maxBudget)
	}

	return domain.CheckResult{
		OK:     ok,
		Reason: reason,
		Meta: map[string]any{
			"amount":    amount,
			"maxBudget": maxBudget,
			"currency":  currency,
			"remaining": math.Max(0, maxBudget-amount),
		},
	}
}
