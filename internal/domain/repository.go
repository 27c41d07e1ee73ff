package domain

import (
	"context"
	"time"
)

// Repository is the persistence boundary for the two read-side
// capabilities the pipeline depends on: the policy store and the
// merchant directory. Decision results are deliberately not persisted
// here; each evaluation is a pure function of its inputs plus the
// current policy/merchant snapshot.
type Repository interface {
	// Policy store
	SavePolicy(ctx context.Context, policy Policy) error
	GetPolicy(ctx context.Context, agentID string) (Policy, error)
	ListPolicies(ctx context.Context) ([]Policy, error)

	// Merchant directory
	SaveMerchant(ctx context.Context, rep MerchantReputation) error
	GetMerchant(ctx context.Context, merchantID string) (MerchantReputation, error)
	ListMerchants(ctx context.Context) ([]MerchantReputation, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
