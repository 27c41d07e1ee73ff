package policy

import (
	"context"
	"testing"

	"github.com/agentpay/warden/internal/domain"
)

func TestStaticResolverKnownAgent(t *testing.T) {
	r := NewStaticResolver(map[string]domain.Policy{
		"agent_demo_001": {
			AgentID:       "agent_demo_001",
			MaxBudget:     100.00,
			Currency:      "USD",
			RiskThreshold: 0.5,
		},
	})

	p := r.Resolve(context.Background(), "agent_demo_001")
	if p.MaxBudget != 100.00 {
		t.Errorf("expected maxBudget 100, got %.2f", p.MaxBudget)
	}
}

func TestStaticResolverUnknownAgentGetsDefault(t *testing.T) {
	r := NewStaticResolver(nil)

	for _, id := range []string{"", "  ", "agent_never_seen"} {
		p := r.Resolve(context.Background(), id)
		def := domain.DefaultPolicy()
		if p.MaxBudget != def.MaxBudget {
			t.Errorf("agent %q: expected default budget %.2f, got %.2f", id, def.MaxBudget, p.MaxBudget)
		}
		if !p.RequireMerchantWhitelist {
			t.Errorf("agent %q: default policy must require whitelist", id)
		}
		if p.SubscriptionLimit != 0 {
			t.Errorf("agent %q: default policy must forbid subscriptions", id)
		}
	}
}

func TestStaticResolverSnapshotIsolation(t *testing.T) {
	table := map[string]domain.Policy{
		"agent_a": {AgentID: "agent_a", MaxBudget: 50},
	}
	r := NewStaticResolver(table)

	// Mutating the source table after construction must not leak.
	table["agent_a"] = domain.Policy{AgentID: "agent_a", MaxBudget: 9999}

	p := r.Resolve(context.Background(), "agent_a")
	if p.MaxBudget != 50 {
		t.Errorf("resolver observed external mutation: %.2f", p.MaxBudget)
	}
}
