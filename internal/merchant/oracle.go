// Package merchant resolves merchant identifiers to trust scores.
package merchant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/agentpay/warden/internal/domain"
)

// Oracle maps a merchant identifier to a reputation record. Scoring
// never fails: an empty identifier yields a fixed untrusted record
// with a data-level note, and identifiers absent from the directory
// get a deterministic fallback score.
type Oracle interface {
	Score(ctx context.Context, merchantID string) domain.MerchantReputation
}

// unknownReputation is the fixed record for missing identifiers.
func unknownReputation(note string) domain.MerchantReputation {
	return domain.MerchantReputation{
		Score:    40,
		Trusted:  false,
		Category: "unknown",
		Name:     "Unknown",
		Note:     note,
	}
}

// DirectoryOracle resolves reputations from the merchant directory,
// fronted by a cache, with deterministic fallback scoring for
// identifiers the directory has never seen.
type DirectoryOracle struct {
	repo     domain.Repository
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewDirectoryOracle creates a directory-backed oracle. The cache is
// optional; pass nil to hit the directory on every lookup.
func NewDirectoryOracle(repo domain.Repository, cache domain.Cache, cacheTTL time.Duration) *DirectoryOracle {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DirectoryOracle{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Score resolves a reputation for any string input. Directory misses
// use FallbackScore; directory outages degrade to the fallback as
// well rather than failing the caller.
func (o *DirectoryOracle) Score(ctx context.Context, merchantID string) domain.MerchantReputation {
	id := strings.ToLower(strings.TrimSpace(merchantID))
	if id == "" {
		return unknownReputation("no merchant ID provided")
	}

	if o.cache != nil {
		if rep, err := o.cache.GetReputation(ctx, id); err == nil && rep != nil {
			return *rep
		}
	}

	rep, err := o.repo.GetMerchant(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("merchant directory unavailable, using fallback score",
				"merchant_id", id,
				"error", err,
			)
		}
		rep = Fallback(id)
	}
	rep.MerchantID = id

	if o.cache != nil {
		if err := o.cache.SetReputation(ctx, id, &rep, o.cacheTTL); err != nil {
			slog.Debug("reputation cache write failed", "merchant_id", id, "error", err)
		}
	}

	return rep
}

// StaticOracle resolves reputations from an in-memory directory with
// the same fallback semantics. Used by the CLI and tests.
type StaticOracle struct {
	directory map[string]domain.MerchantReputation
}

// NewStaticOracle creates an oracle over a fixed merchant table.
func NewStaticOracle(directory map[string]domain.MerchantReputation) *StaticOracle {
	copied := make(map[string]domain.MerchantReputation, len(directory))
	for k, v := range directory {
		copied[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &StaticOracle{directory: copied}
}

// Score resolves from the table or falls back deterministically.
func (o *StaticOracle) Score(_ context.Context, merchantID string) domain.MerchantReputation {
	id := strings.ToLower(strings.TrimSpace(merchantID))
	if id == "" {
		return unknownReputation("no merchant ID provided")
	}
	if rep, ok := o.directory[id]; ok {
		rep.MerchantID = id
		return rep
	}
	return Fallback(id)
}

// Fallback computes a deterministic reputation for a merchant absent
// from the directory. The identifier is folded into a 32-bit signed
// integer (h = h*31 + charCode) and reduced mod 100; trust requires a
// score of at least domain.TrustScoreFloor. Determinism is
// load-bearing: the same identifier must score identically within a
// process and across processes.
func Fallback(normalizedID string) domain.MerchantReputation {
	var h int32
	for _, r := range normalizedID {
		h = h*31 + int32(r)
	}
	score := int(h % 100)
	if score < 0 {
		score = -score
	}

	return domain.MerchantReputation{
		MerchantID: normalizedID,
		Score:      score,
		Trusted:    score >= domain.TrustScoreFloor,
		Category:   "unknown",
		Name:       normalizedID,
		Note:       "merchant not in directory, using deterministic scoring",
	}
}
