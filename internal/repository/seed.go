package repository

import (
	"context"
	"fmt"

	"github.com/agentpay/warden/internal/domain"
)

// SeedDemoData loads the demo policies and merchant directory entries
// used by local development and the examples. Idempotent: re-running
// replaces existing rows with the same identifiers.
func SeedDemoData(ctx context.Context, repo domain.Repository) error {
	for _, policy := range DemoPolicies() {
		if err := repo.SavePolicy(ctx, policy); err != nil {
			return fmt.Errorf("seed policy %s: %w", policy.AgentID, err)
		}
	}
	for _, merchant := range DemoMerchants() {
		if err := repo.SaveMerchant(ctx, merchant); err != nil {
			return fmt.Errorf("seed merchant %s: %w", merchant.MerchantID, err)
		}
	}
	return nil
}

// DemoPolicies returns the sample agent policies.
func DemoPolicies() []domain.Policy {
	return []domain.Policy{
		{
			AgentID:                   "agent_demo_001",
			MaxBudget:                 100.00,
			Currency:                  "USD",
			RequireMerchantWhitelist:  true,
			RiskThreshold:             0.5,
			AllowedMerchantCategories: []string{"food", "retail", "services"},
			BlockedMerchants:          []string{"casino_xyz", "gambling_site"},
			SubscriptionLimit:         3,
			DailyTransactionLimit:     500.00,
		},
		{
			AgentID:                   "agent_test_002",
			MaxBudget:                 50.00,
			Currency:                  "USD",
			RequireMerchantWhitelist:  false,
			RiskThreshold:             0.3,
			AllowedMerchantCategories: []string{"food"},
			SubscriptionLimit:         1,
			DailyTransactionLimit:     100.00,
		},
		{
			AgentID:                   "agent_prod_003",
			MaxBudget:                 500.00,
			Currency:                  "USD",
			RequireMerchantWhitelist:  true,
			RiskThreshold:             0.7,
			AllowedMerchantCategories: []string{"food", "retail", "services", "travel"},
			SubscriptionLimit:         10,
			DailyTransactionLimit:     2000.00,
		},
	}
}

// DemoMerchants returns the sample merchant directory.
func DemoMerchants() []domain.MerchantReputation {
	return []domain.MerchantReputation{
		{
			MerchantID:    "coffee_shop_42",
			Name:          "Coffee Shop 42",
			Score:         85,
			Trusted:       true,
			Category:      "food",
			VerifiedSince: "2023-01-15",
		},
		{
			MerchantID:    "electronics_store",
			Name:          "Electronics Store",
			Score:         78,
			Trusted:       true,
			Category:      "retail",
			VerifiedSince: "2022-06-20",
		},
		{
			MerchantID: "casino_xyz",
			Name:       "Casino XYZ",
			Score:      25,
			Trusted:    false,
			Category:   "gambling",
		},
		{
			MerchantID:    "travel_agency_pro",
			Name:          "Travel Agency Pro",
			Score:         92,
			Trusted:       true,
			Category:      "travel",
			VerifiedSince: "2021-03-10",
		},
		{
			MerchantID: "unknown_merchant",
			Name:       "Unknown Merchant",
			Score:      50,
			Trusted:    false,
			Category:   "unknown",
		},
	}
}
