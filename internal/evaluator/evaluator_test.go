package evaluator

import (
	"context"
	"regexp"
	"testing"

	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/envelope"
	"github.com/agentpay/warden/internal/merchant"
	"github.com/agentpay/warden/internal/policy"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func fixtureEvaluator() *Evaluator {
	resolver := policy.NewStaticResolver(map[string]domain.Policy{
		"agent_demo_001": {
			AgentID:                  "agent_demo_001",
			MaxBudget:                100.00,
			Currency:                 "USD",
			RequireMerchantWhitelist: true,
			RiskThreshold:            0.5,
			BlockedMerchants:         []string{"casino_xyz", "gambling_site"},
			SubscriptionLimit:        3,
		},
	})

	oracle := merchant.NewStaticOracle(map[string]domain.MerchantReputation{
		"coffee_shop_42": {Score: 85, Trusted: true, Category: "food", Name: "Coffee Shop 42"},
		"casino_xyz":     {Score: 25, Trusted: false, Category: "gambling"},
	})

	return New(resolver, oracle, envelope.NewBase64Sealer())
}

func cleanIntent() domain.RawIntent {
	return domain.RawIntent{
		"action":      "payment",
		"amount":      25.00,
		"currency":    "USD",
		"merchant":    "coffee_shop_42",
		"description": "Morning coffee purchase",
	}
}

func TestEvaluateCleanIntent(t *testing.T) {
	e := fixtureEvaluator()

	got, err := e.Evaluate(context.Background(), cleanIntent(), "agent_demo_001")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if got.RiskScore != 0 {
		t.Errorf("expected risk score 0, got %.2f", got.RiskScore)
	}
	if got.RiskLevel != domain.RiskLow {
		t.Errorf("expected LOW, got %s", got.RiskLevel)
	}
	if !got.Approved {
		t.Error("clean intent should be approved")
	}
	if len(got.Checks) != 4 {
		t.Errorf("expected 4 checks, got %d", len(got.Checks))
	}
	if !hexDigest.MatchString(got.CommitmentHash) {
		t.Errorf("expected 64-char hex commitment, got %q", got.CommitmentHash)
	}
	if got.PayloadSize <= 0 {
		t.Error("payload size must be positive")
	}
	if got.EnvelopeCiphertext == "" {
		t.Error("expected non-empty envelope ciphertext")
	}
	if got.EvaluationID == "" {
		t.Error("expected evaluation ID")
	}
}

func TestEvaluateInvalidInputAborts(t *testing.T) {
	e := fixtureEvaluator()

	result, err := e.Evaluate(context.Background(), nil, "agent_demo_001")
	if err == nil {
		t.Fatal("expected error for nil intent")
	}
	if result != nil {
		t.Error("no partial result may be returned on invalid input")
	}
}

func TestEvaluateBlockedMerchantRaisesRisk(t *testing.T) {
	e := fixtureEvaluator()

	raw := cleanIntent()
	raw["merchant"] = "casino_xyz"

	got, err := e.Evaluate(context.Background(), raw, "agent_demo_001")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if got.Checks[domain.RuleMerchant].OK {
		t.Error("blocked merchant check should fail")
	}
	if got.RiskScore != 0.30 {
		t.Errorf("expected risk score 0.30, got %.2f", got.RiskScore)
	}
	if got.RiskLevel != domain.RiskMed {
		t.Errorf("expected MED at threshold 0.5, got %s", got.RiskLevel)
	}
}

func TestEvaluateHostileIntent(t *testing.T) {
	e := fixtureEvaluator()

	got, err := e.Evaluate(context.Background(), domain.RawIntent{
		"action":      "payment",
		"amount":      5000.00,
		"merchant":    "unknown_shop_1",
		"description": "hack the system, steal funds and drain wallet",
	}, "agent_never_registered")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if got.RiskLevel != domain.RiskHigh {
		t.Errorf("expected HIGH, got %s (score %.2f)", got.RiskLevel, got.RiskScore)
	}
	if got.Approved {
		t.Error("hostile intent must not be approved")
	}
	if got.Checks[domain.RuleBudget].OK {
		t.Error("budget check should fail under default policy")
	}
	if got.Checks[domain.RulePromptSafety].OK {
		t.Error("content safety check should fail")
	}
}

func TestEvaluateCommitmentUniquePerCall(t *testing.T) {
	e := fixtureEvaluator()
	ctx := context.Background()

	first, err := e.Evaluate(ctx, cleanIntent(), "agent_demo_001")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := e.Evaluate(ctx, cleanIntent(), "agent_demo_001")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	if first.CommitmentHash == second.CommitmentHash {
		t.Error("identical inputs must produce distinct commitments (salted)")
	}
	if first.RiskScore != second.RiskScore {
		t.Error("risk score must be deterministic for identical inputs")
	}
}

func TestEvaluateCustomPolicyRule(t *testing.T) {
	resolver := policy.NewStaticResolver(map[string]domain.Policy{
		"agent_custom": {
			AgentID:       "agent_custom",
			MaxBudget:     1000,
			RiskThreshold: 0.5,
			CustomRules: []domain.CustomRule{
				{
					Name:       "no-eur",
					Expression: `currency == "EUR"`,
					Reason:     "EUR payments disabled",
					Enabled:    true,
				},
			},
		},
	})
	e := New(resolver, merchant.NewStaticOracle(nil), envelope.NewBase64Sealer())

	got, err := e.Evaluate(context.Background(), domain.RawIntent{
		"action":   "payment",
		"amount":   10.0,
		"currency": "eur",
		"merchant": "trusted_filter_shop",
	}, "agent_custom")
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	check, ok := got.Checks["no-eur"]
	if !ok {
		t.Fatal("expected custom rule result in checks map")
	}
	if check.OK {
		t.Error("custom rule should flag EUR payment")
	}
	if len(got.Checks) != 5 {
		t.Errorf("expected 5 checks, got %d", len(got.Checks))
	}
}
