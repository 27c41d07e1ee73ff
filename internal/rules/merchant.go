package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/agentpay/warden/internal/domain"
)

// MerchantOracle is the reputation capability the merchant rule
// consumes. Scoring never fails; degraded lookups surface in the
// returned record, not as errors.
type MerchantOracle interface {
	Score(ctx context.Context, merchantID string) domain.MerchantReputation
}

// MerchantRule verifies merchant trustworthiness. A policy block
// always wins over reputation; the oracle is only consulted for
// unblocked merchants.
type MerchantRule struct {
	oracle MerchantOracle

	// Timeout bounds the reputation lookup, the only externally
	// slow call in the rule set. A timed-out lookup degrades to
	// untrusted/score 0 instead of failing the evaluation.
	Timeout time.Duration
}

// NewMerchantRule creates the merchant trust check.
func NewMerchantRule(oracle MerchantOracle) *MerchantRule {
	return &MerchantRule{
		oracle:  oracle,
		Timeout: 2 * time.Second,
	}
}

func (r *MerchantRule) Name() string { return domain.RuleMerchant }

// Check fails on an empty merchant, a blocked merchant, or (when the
// policy requires a whitelist) an untrusted reputation. Without a
// whitelist requirement the rule always passes and merely reports the
// reputation.
func (r *MerchantRule) Check(ctx context.Context, intent *domain.Intent, policy domain.Policy) domain.CheckResult {
	merchantID := intent.Merchant

	if merchantID == "" {
		return domain.CheckResult{
			OK:     false,
			Reason: "No merchant specified in intent",
			Meta:   map[string]any{},
		}
	}

	// A block always wins; the oracle is not consulted.
	if policy.IsBlocked(merchantID) {
		return domain.CheckResult{
			OK:     false,
			Reason: fmt.Sprintf("Merchant %q is in blocked list", merchantID),
			Meta: map[string]any{
				"merchantId": merchantID,
				"blocked":    true,
			},
		}
	}

	rep := r.score(ctx, merchantID)

	meta := map[string]any{
		"merchantId": merchantID,
		"score":      rep.Score,
		"trusted":    rep.Trusted,
		"category":   rep.Category,
	}
	if rep.Note != "" {
		meta["note"] = rep.Note
	}

	if policy.RequireMerchantWhitelist {
		reason := fmt.Sprintf("Merchant %q is not in trusted whitelist (score: %d)", merchantID, rep.Score)
		if rep.Trusted {
			reason = fmt.Sprintf("Merchant %q is trusted (score: %d)", merchantID, rep.Score)
		}
		return domain.CheckResult{
			OK:     rep.Trusted,
			Reason: reason,
			Meta:   meta,
		}
	}

	return domain.CheckResult{
		OK:     true,
		Reason: fmt.Sprintf("Merchant %q accepted (whitelist not required)", merchantID),
		Meta:   meta,
	}
}

// score runs the oracle under the rule's timeout. An unreachable
// reputation source degrades to "untrusted, score 0" so it can never
// block or crash the evaluation.
func (r *MerchantRule) score(ctx context.Context, merchantID string) domain.MerchantReputation {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan domain.MerchantReputation, 1)
	go func() {
		done <- r.oracle.Score(ctx, merchantID)
	}()

	select {
	case rep := <-done:
		return rep
	case <-ctx.Done():
		return domain.MerchantReputation{
			MerchantID: merchantID,
			Score:      0,
			Trusted:    false,
			Category:   "unknown",
			Note:       "reputation lookup timed out",
		}
	}
}
