// Package rules implements the independent checks a payment intent is
// evaluated against, plus the parallel runner that fans them out.
package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentpay/warden/internal/domain"
)

// Rule is a single independent check. Rules are stateless and never
// fail for well-formed normalized intents: every verdict, including a
// rejection, is expressed as a CheckResult.
type Rule interface {
	// Name identifies the rule in the checks map and the
	// aggregator's weight registry.
	Name() string

	// Check evaluates the intent against the policy.
	Check(ctx context.Context, intent *domain.Intent, policy domain.Policy) domain.CheckResult
}

// Runner executes a rule set concurrently. The four built-in rules
// have no data dependency on one another, so order is irrelevant;
// aggregation is the join point that waits for all of them.
type Runner struct {
	rules      []Rule
	maxWorkers int
}

// NewRunner creates a runner over the given rules.
func NewRunner(rules []Rule, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Runner{rules: rules, maxWorkers: maxWorkers}
}

// Run evaluates every rule and returns the results keyed by rule
// name. Returns domain.ErrInvalidInput if the normalized intent is
// missing entirely; rule-level failure never surfaces as an error.
func (r *Runner) Run(ctx context.Context, intent *domain.Intent, policy domain.Policy) (map[string]domain.CheckResult, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: normalized intent is required", domain.ErrInvalidInput)
	}

	type outcome struct {
		name   string
		result domain.CheckResult
	}

	outcomes := make([]outcome, len(r.rules))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, r.maxWorkers)

	for i, rule := range r.rules {
		wg.Add(1)
		go func(idx int, rl Rule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			outcomes[idx] = outcome{
				name:   rl.Name(),
				result: rl.Check(ctx, intent, policy),
			}
		}(i, rule)
	}

	wg.Wait()

	checks := make(map[string]domain.CheckResult, len(outcomes))
	for _, o := range outcomes {
		checks[o.name] = o.result
	}
	return checks, nil
}

// Rules returns the configured rule set.
func (r *Runner) Rules() []Rule {
	return r.rules
}

// Builtin returns the four standard rules wired to the given oracle,
// in their conventional order.
func Builtin(oracle MerchantOracle) []Rule {
	return []Rule{
		NewBudgetRule(),
		NewMerchantRule(oracle),
		NewSubscriptionRule(),
		NewPromptSafetyRule(),
	}
}
