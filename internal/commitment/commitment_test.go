package commitment

import (
	"regexp"
	"testing"

	"github.com/agentpay/warden/internal/domain"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCommitProducesHexDigest(t *testing.T) {
	got, err := Commit(&domain.Intent{Action: "payment", Amount: 25}, Metadata{
		AgentID:   "agent_demo_001",
		Timestamp: "2025-06-01T00:00:00Z",
		RiskScore: 0.15,
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if !hexDigest.MatchString(got) {
		t.Errorf("expected 64-char hex digest, got %q", got)
	}
}

func TestCommitSaltRandomization(t *testing.T) {
	intent := &domain.Intent{Action: "payment", Amount: 25, Merchant: "coffee_shop_42"}
	meta := Metadata{AgentID: "agent_demo_001", Timestamp: "2025-06-01T00:00:00Z", RiskScore: 0.15}

	first, err := Commit(intent, meta)
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	second, err := Commit(intent, meta)
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if first == second {
		t.Error("identical inputs must never produce the same commitment (salt randomization)")
	}
}

func TestCommitNilIntent(t *testing.T) {
	if _, err := Commit(nil, Metadata{}); err == nil {
		t.Error("expected error for nil intent")
	}
}

func TestDeterministicHashStable(t *testing.T) {
	data := map[string]any{"b": 2, "a": 1, "c": []string{"x", "y"}}

	first, err := Deterministic(data)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, _ := Deterministic(data)

	if first != second {
		t.Error("deterministic hash must be stable for equal input")
	}
	if !hexDigest.MatchString(first) {
		t.Errorf("expected 64-char hex digest, got %q", first)
	}
}
