// Package risk combines weighted rule outcomes into a single score
// and a discrete risk level.
package risk

import (
	"math"

	"github.com/agentpay/warden/internal/domain"
)

// DefaultWeight applies to any rule name absent from the registry,
// so new rules join scoring without aggregator changes.
const DefaultWeight = 0.10

// Fallback cut points when the policy carries no risk threshold.
const (
	defaultLowCut = 0.25
	defaultMedCut = 0.50
)

// Aggregator holds the rule weight registry.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator creates an aggregator with the standard weight table.
func NewAggregator() *Aggregator {
	return &Aggregator{
		weights: map[string]float64{
			domain.RuleBudget:       0.30,
			domain.RuleMerchant:     0.30,
			domain.RuleSubscription: 0.15,
			domain.RulePromptSafety: 0.25,
		},
	}
}

// Weight returns the registered weight for a rule name, or the
// default for unrecognized names.
func (a *Aggregator) Weight(ruleName string) float64 {
	if w, ok := a.weights[ruleName]; ok {
		return w
	}
	return DefaultWeight
}

// Assessment is the aggregated risk output.
type Assessment struct {
	RiskScore float64          `json:"riskScore"`
	RiskLevel domain.RiskLevel `json:"riskLevel"`

	TotalChecks  int `json:"totalChecks"`
	PassedChecks int `json:"passedChecks"`
	FailedChecks int `json:"failedChecks"`
}

// Aggregate computes the weighted failure fraction across all checks.
// riskScore = sum(weights of failing rules) / sum(weights of rules
// present), rounded to 2 decimals, always in [0,1].
func (a *Aggregator) Aggregate(checks map[string]domain.CheckResult, policy domain.Policy) Assessment {
	var totalWeight, failedWeight float64
	assessment := Assessment{TotalChecks: len(checks)}

	for name, result := range checks {
		w := a.Weight(name)
		totalWeight += w
		if result.OK {
			assessment.PassedChecks++
		} else {
			assessment.FailedChecks++
			failedWeight += w
		}
	}

	score := 0.0
	if totalWeight > 0 {
		score = failedWeight / totalWeight
	}
	assessment.RiskScore = math.Round(score*100) / 100
	assessment.RiskLevel = a.level(assessment.RiskScore, policy)

	return assessment
}

// level maps a score to LOW/MED/HIGH. A configured policy threshold
// splits at threshold/2 and threshold; otherwise the fixed cut points
// apply.
func (a *Aggregator) level(score float64, policy domain.Policy) domain.RiskLevel {
	if t := policy.RiskThreshold; t > 0 {
		switch {
		case score <= t/2:
			return domain.RiskLow
		case score <= t:
			return domain.RiskMed
		default:
			return domain.RiskHigh
		}
	}

	switch {
	case score <= defaultLowCut:
		return domain.RiskLow
	case score <= defaultMedCut:
		return domain.RiskMed
	default:
		return domain.RiskHigh
	}
}

// ShouldApprove reports whether a score is acceptable under the
// policy threshold (default 0.50). Kept consistent with the level
// semantics: any approved score is at most MED under the same
// threshold.
func ShouldApprove(riskScore float64, policy domain.Policy) bool {
	threshold := policy.RiskThreshold
	if threshold <= 0 {
		threshold = defaultMedCut
	}
	return riskScore <= threshold
}
