package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/agentpay/warden/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "warden-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetPolicy", func(t *testing.T) {
		policy := domain.Policy{
			AgentID:                   "agent-001",
			MaxBudget:                 100.00,
			Currency:                  "USD",
			RequireMerchantWhitelist:  true,
			RiskThreshold:             0.5,
			AllowedMerchantCategories: []string{"food", "retail"},
			BlockedMerchants:          []string{"casino_xyz"},
			SubscriptionLimit:         3,
			DailyTransactionLimit:     500.00,
			CustomRules: []domain.CustomRule{
				{Name: "large-amount", Expression: "amount > 90.0", Enabled: true},
			},
		}

		if err := repo.SavePolicy(ctx, policy); err != nil {
			t.Fatalf("SavePolicy failed: %v", err)
		}

		retrieved, err := repo.GetPolicy(ctx, "agent-001")
		if err != nil {
			t.Fatalf("GetPolicy failed: %v", err)
		}

		if retrieved.MaxBudget != policy.MaxBudget {
			t.Errorf("expected MaxBudget %.2f, got %.2f", policy.MaxBudget, retrieved.MaxBudget)
		}
		if !retrieved.RequireMerchantWhitelist {
			t.Error("expected RequireMerchantWhitelist to survive round trip")
		}
		if len(retrieved.AllowedMerchantCategories) != 2 {
			t.Errorf("expected 2 categories, got %d", len(retrieved.AllowedMerchantCategories))
		}
		if !retrieved.IsBlocked("casino_xyz") {
			t.Error("expected blocked merchant to survive round trip")
		}
		if len(retrieved.CustomRules) != 1 || retrieved.CustomRules[0].Expression != "amount > 90.0" {
			t.Errorf("custom rules did not survive round trip: %+v", retrieved.CustomRules)
		}
	})

	t.Run("UpdatePolicy", func(t *testing.T) {
		policy := domain.Policy{
			AgentID:       "agent-001",
			MaxBudget:     250.00,
			Currency:      "EUR",
			RiskThreshold: 0.7,
		}
		if err := repo.SavePolicy(ctx, policy); err != nil {
			t.Fatalf("SavePolicy failed: %v", err)
		}

		retrieved, err := repo.GetPolicy(ctx, "agent-001")
		if err != nil {
			t.Fatalf("GetPolicy failed: %v", err)
		}
		if retrieved.MaxBudget != 250.00 || retrieved.Currency != "EUR" {
			t.Errorf("expected updated policy, got %+v", retrieved)
		}
		if retrieved.RequireMerchantWhitelist {
			t.Error("expected whitelist flag cleared by update")
		}
	})

	t.Run("GetPolicyNotFound", func(t *testing.T) {
		_, err := repo.GetPolicy(ctx, "agent-missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SavePolicyRequiresAgentID", func(t *testing.T) {
		err := repo.SavePolicy(ctx, domain.Policy{MaxBudget: 10})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("ListPolicies", func(t *testing.T) {
		if err := repo.SavePolicy(ctx, domain.Policy{AgentID: "agent-002", MaxBudget: 50, Currency: "USD"}); err != nil {
			t.Fatalf("SavePolicy failed: %v", err)
		}

		policies, err := repo.ListPolicies(ctx)
		if err != nil {
			t.Fatalf("ListPolicies failed: %v", err)
		}
		if len(policies) != 2 {
			t.Errorf("expected 2 policies, got %d", len(policies))
		}
	})

	t.Run("SaveAndGetMerchant", func(t *testing.T) {
		rep := domain.MerchantReputation{
			MerchantID:    "coffee_shop_42",
			Name:          "Coffee Shop 42",
			Score:         85,
			Trusted:       true,
			Category:      "food",
			VerifiedSince: "2023-01-15",
		}

		if err := repo.SaveMerchant(ctx, rep); err != nil {
			t.Fatalf("SaveMerchant failed: %v", err)
		}

		retrieved, err := repo.GetMerchant(ctx, "coffee_shop_42")
		if err != nil {
			t.Fatalf("GetMerchant failed: %v", err)
		}
		if retrieved.Score != 85 || !retrieved.Trusted || retrieved.Category != "food" {
			t.Errorf("unexpected merchant round trip: %+v", retrieved)
		}
		if retrieved.VerifiedSince != "2023-01-15" {
			t.Errorf("expected VerifiedSince to survive, got %q", retrieved.VerifiedSince)
		}
	})

	t.Run("GetMerchantNotFound", func(t *testing.T) {
		_, err := repo.GetMerchant(ctx, "no_such_merchant")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListMerchants", func(t *testing.T) {
		if err := repo.SaveMerchant(ctx, domain.MerchantReputation{
			MerchantID: "casino_xyz",
			Score:      25,
			Category:   "gambling",
		}); err != nil {
			t.Fatalf("SaveMerchant failed: %v", err)
		}

		merchants, err := repo.ListMerchants(ctx)
		if err != nil {
			t.Fatalf("ListMerchants failed: %v", err)
		}
		if len(merchants) != 2 {
			t.Errorf("expected 2 merchants, got %d", len(merchants))
		}
	})
}

func TestSeedDemoData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := SeedDemoData(ctx, repo); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	// Idempotent
	if err := SeedDemoData(ctx, repo); err != nil {
		t.Fatalf("second SeedDemoData failed: %v", err)
	}

	policy, err := repo.GetPolicy(ctx, "agent_demo_001")
	if err != nil {
		t.Fatalf("GetPolicy failed: %v", err)
	}
	if policy.MaxBudget != 100.00 {
		t.Errorf("expected demo budget 100.00, got %.2f", policy.MaxBudget)
	}
	if !policy.IsBlocked("casino_xyz") {
		t.Error("expected casino_xyz blocked for demo agent")
	}

	merchants, err := repo.ListMerchants(ctx)
	if err != nil {
		t.Fatalf("ListMerchants failed: %v", err)
	}
	if len(merchants) != len(DemoMerchants()) {
		t.Errorf("expected %d merchants, got %d", len(DemoMerchants()), len(merchants))
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
