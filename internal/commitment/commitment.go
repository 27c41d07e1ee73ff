// Package commitment produces tamper-evident hashes binding a
// decision to its inputs.
package commitment

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/agentpay/warden/internal/domain"
)

// Metadata is the decision context folded into the commitment
// alongside the intent.
type Metadata struct {
	AgentID   string  `json:"agentId"`
	Timestamp string  `json:"timestamp"`
	RiskScore float64 `json:"riskScore"`
}

// Commit hashes {intent, meta, salt} with a fresh random salt and
// returns the SHA-256 hex digest (64 characters). The salt is not
// returned, so the commitment is not independently re-verifiable by a
// third party from the intent alone; callers must not assume the hash
// is checkable without also receiving the salt.
func Commit(intent *domain.Intent, meta Metadata) (string, error) {
	if intent == nil {
		return "", fmt.Errorf("%w: intent is required", domain.ErrInvalidInput)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: salt generation failed: %v", domain.ErrInternal, err)
	}

	payload := map[string]any{
		"intent": intent.ToMap(),
		"meta":   meta,
		"salt":   hex.EncodeToString(salt),
	}

	return hash(payload)
}

// Deterministic hashes arbitrary data without a salt. Two calls with
// equal input always produce the same digest.
func Deterministic(data any) (string, error) {
	return hash(data)
}

// hash serializes canonically and applies SHA-256. encoding/json
// emits map keys in sorted order, which is the canonical form the
// commitment relies on.
func hash(data any) (string, error) {
	serialized, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: serialization failed: %v", domain.ErrInternal, err)
	}

	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:]), nil
}
