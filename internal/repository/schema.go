package repository

// Schema definitions for the Warden database.
// Compatible with both SQLite and PostgreSQL.

const schemaPolicies = `
CREATE TABLE IF NOT EXISTS policies (
    agent_id TEXT PRIMARY KEY,
    max_budget REAL NOT NULL,
    currency TEXT NOT NULL,
    require_merchant_whitelist INTEGER NOT NULL DEFAULT 1,
    risk_threshold REAL NOT NULL,
    allowed_categories TEXT,
    blocked_merchants TEXT,
    subscription_limit INTEGER NOT NULL DEFAULT 0,
    daily_transaction_limit REAL NOT NULL DEFAULT 0,
    custom_rules TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaMerchants = `
CREATE TABLE IF NOT EXISTS merchants (
    merchant_id TEXT PRIMARY KEY,
    name TEXT,
    score INTEGER NOT NULL,
    trusted INTEGER NOT NULL DEFAULT 0,
    category TEXT NOT NULL,
    verified_since TEXT,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_merchants_category ON merchants(category);
CREATE INDEX IF NOT EXISTS idx_merchants_trusted ON merchants(trusted);
`

// AllSchemas returns all schema definitions in creation order.
func AllSchemas() []string {
	return []string{
		schemaPolicies,
		schemaMerchants,
	}
}
