// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentpay/warden/internal/domain"
)

var (
	ErrNotFound     = domain.ErrNotFound
	ErrInvalidInput = domain.ErrInvalidInput
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicy stores or replaces the policy for an agent.
func (r *SQLRepository) SavePolicy(ctx context.Context, policy domain.Policy) error {
	if policy.AgentID == "" {
		return fmt.Errorf("%w: agentID is required", ErrInvalidInput)
	}

	categories, _ := json.Marshal(policy.AllowedMerchantCategories)
	blocked, _ := json.Marshal(policy.BlockedMerchants)
	customRules, _ := json.Marshal(policy.CustomRules)

	query := `
		INSERT INTO policies (
			agent_id, max_budget, currency, require_merchant_whitelist,
			risk_threshold, allowed_categories, blocked_merchants,
			subscription_limit, daily_transaction_limit, custom_rules, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (agent_id) DO UPDATE SET
			max_budget = excluded.max_budget,
			currency = excluded.currency,
			require_merchant_whitelist = excluded.require_merchant_whitelist,
			risk_threshold = excluded.risk_threshold,
			allowed_categories = excluded.allowed_categories,
			blocked_merchants = excluded.blocked_merchants,
			subscription_limit = excluded.subscription_limit,
			daily_transaction_limit = excluded.daily_transaction_limit,
			custom_rules = excluded.custom_rules,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		policy.AgentID, policy.MaxBudget, policy.Currency,
		boolToInt(policy.RequireMerchantWhitelist),
		policy.RiskThreshold, string(categories), string(blocked),
		policy.SubscriptionLimit, policy.DailyTransactionLimit,
		string(customRules), time.Now().UTC(),
	)
	return err
}

// GetPolicy retrieves the policy for an agent.
func (r *SQLRepository) GetPolicy(ctx context.Context, agentID string) (domain.Policy, error) {
	if agentID == "" {
		return domain.Policy{}, fmt.Errorf("%w: agentID is required", ErrInvalidInput)
	}

	query := `
		SELECT agent_id, max_budget, currency, require_merchant_whitelist,
			   risk_threshold, allowed_categories, blocked_merchants,
			   subscription_limit, daily_transaction_limit, custom_rules
		FROM policies
		WHERE agent_id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), agentID)
	policy, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Policy{}, ErrNotFound
	}
	if err != nil {
		return domain.Policy{}, err
	}
	return policy, nil
}

// ListPolicies returns all stored policies.
func (r *SQLRepository) ListPolicies(ctx context.Context) ([]domain.Policy, error) {
	query := `
		SELECT agent_id, max_budget, currency, require_merchant_whitelist,
			   risk_threshold, allowed_categories, blocked_merchants,
			   subscription_limit, daily_transaction_limit, custom_rules
		FROM policies
		ORDER BY agent_id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// SaveMerchant stores or replaces a merchant directory entry.
func (r *SQLRepository) SaveMerchant(ctx context.Context, rep domain.MerchantReputation) error {
	if rep.MerchantID == "" {
		return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO merchants (
			merchant_id, name, score, trusted, category, verified_since, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (merchant_id) DO UPDATE SET
			name = excluded.name,
			score = excluded.score,
			trusted = excluded.trusted,
			category = excluded.category,
			verified_since = excluded.verified_since,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rep.MerchantID, rep.Name, rep.Score, boolToInt(rep.Trusted),
		rep.Category, rep.VerifiedSince, time.Now().UTC(),
	)
	return err
}

// GetMerchant retrieves a merchant directory entry by identifier.
func (r *SQLRepository) GetMerchant(ctx context.Context, merchantID string) (domain.MerchantReputation, error) {
	if merchantID == "" {
		return domain.MerchantReputation{}, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT merchant_id, name, score, trusted, category, verified_since
		FROM merchants
		WHERE merchant_id = ?
	`

	var rep domain.MerchantReputation
	var trusted int
	err := r.db.QueryRowContext(ctx, r.rebind(query), merchantID).Scan(
		&rep.MerchantID, &rep.Name, &rep.Score, &trusted,
		&rep.Category, &rep.VerifiedSince,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MerchantReputation{}, ErrNotFound
	}
	if err != nil {
		return domain.MerchantReputation{}, err
	}
	rep.Trusted = trusted != 0
	return rep, nil
}

// ListMerchants returns all merchant directory entries.
func (r *SQLRepository) ListMerchants(ctx context.Context) ([]domain.MerchantReputation, error) {
	query := `
		SELECT merchant_id, name, score, trusted, category, verified_since
		FROM merchants
		ORDER BY merchant_id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var merchants []domain.MerchantReputation
	for rows.Next() {
		var rep domain.MerchantReputation
		var trusted int
		if err := rows.Scan(
			&rep.MerchantID, &rep.Name, &rep.Score, &trusted,
			&rep.Category, &rep.VerifiedSince,
		); err != nil {
			return nil, err
		}
		rep.Trusted = trusted != 0
		merchants = append(merchants, rep)
	}
	return merchants, rows.Err()
}

// Ping verifies database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (domain.Policy, error) {
	var policy domain.Policy
	var whitelist int
	var categories, blocked, customRules sql.NullString

	err := row.Scan(
		&policy.AgentID, &policy.MaxBudget, &policy.Currency, &whitelist,
		&policy.RiskThreshold, &categories, &blocked,
		&policy.SubscriptionLimit, &policy.DailyTransactionLimit, &customRules,
	)
	if err != nil {
		return domain.Policy{}, err
	}

	policy.RequireMerchantWhitelist = whitelist != 0
	if categories.Valid && categories.String != "" {
		_ = json.Unmarshal([]byte(categories.String), &policy.AllowedMerchantCategories)
	}
	if blocked.Valid && blocked.String != "" {
		_ = json.Unmarshal([]byte(blocked.String), &policy.BlockedMerchants)
	}
	if customRules.Valid && customRules.String != "" {
		_ = json.Unmarshal([]byte(customRules.String), &policy.CustomRules)
	}
	return policy, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
