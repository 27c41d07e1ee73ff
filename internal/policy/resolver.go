// Package policy maps agent identifiers to spending policies.
package policy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/agentpay/warden/internal/domain"
)

// Resolver maps an agent identifier to its policy. Resolution never
// fails: absent, malformed, or unknown identifiers deterministically
// yield the conservative default policy. Implementations must return
// value-type snapshots so rules cannot observe cross-evaluation
// mutation.
type Resolver interface {
	Resolve(ctx context.Context, agentID string) domain.Policy
}

// StoreResolver resolves policies from the repository, degrading to
// the default policy when the store is unreachable.
type StoreResolver struct {
	repo domain.Repository
}

// NewStoreResolver creates a repository-backed resolver.
func NewStoreResolver(repo domain.Repository) *StoreResolver {
	return &StoreResolver{repo: repo}
}

// Resolve looks up the agent's policy, falling back to the default on
// a miss or a store outage. Store failures degrade rather than
// propagate.
func (r *StoreResolver) Resolve(ctx context.Context, agentID string) domain.Policy {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return domain.DefaultPolicy()
	}

	p, err := r.repo.GetPolicy(ctx, agentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("policy store unavailable, using default policy",
				"agent_id", agentID,
				"error", err,
			)
		}
		return domain.DefaultPolicy()
	}
	return p
}

// StaticResolver resolves policies from an in-memory table. Used by
// the CLI and tests as a fixture-friendly substitute for the store.
type StaticResolver struct {
	policies map[string]domain.Policy
}

// NewStaticResolver creates a resolver over a fixed policy table.
// The table is copied; later mutation by the caller is not observed.
func NewStaticResolver(policies map[string]domain.Policy) *StaticResolver {
	copied := make(map[string]domain.Policy, len(policies))
	for k, v := range policies {
		copied[k] = v
	}
	return &StaticResolver{policies: copied}
}

// Resolve returns the agent's policy or the default.
func (r *StaticResolver) Resolve(_ context.Context, agentID string) domain.Policy {
	if p, ok := r.policies[strings.TrimSpace(agentID)]; ok {
		return p
	}
	return domain.DefaultPolicy()
}
