// Package envelope seals serialized decision payloads. The sealing
// algorithm is a pluggable capability behind the Sealer interface:
// the pipeline only requires that the envelope carry an opaque
// ciphertext and that its size be computable.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentpay/warden/internal/domain"
)

// Version is the envelope format version.
const Version = "0.1.0"

// Sealer produces a sealed envelope from plaintext JSON.
type Sealer interface {
	Seal(plaintext []byte) (*domain.Envelope, error)

	// Algorithm names the sealing scheme the sealer implements.
	Algorithm() string
}

// SizeBytes returns the serialized size of an envelope.
func SizeBytes(env *domain.Envelope) int {
	b, err := json.Marshal(env)
	if err != nil {
		return 0
	}
	return len(b)
}

// Base64Sealer is the non-cryptographic placeholder sealer. The
// ciphertext is a reversible base64 encoding of the plaintext; it
// provides no confidentiality and exists only to exercise the
// envelope contract. Production deployments use BoxSealer.
type Base64Sealer struct{}

// NewBase64Sealer creates the placeholder sealer.
func NewBase64Sealer() *Base64Sealer {
	return &Base64Sealer{}
}

func (s *Base64Sealer) Algorithm() string { return domain.SealingMock }

// Seal base64-encodes the plaintext into the envelope shape.
func (s *Base64Sealer) Seal(plaintext []byte) (*domain.Envelope, error) {
	if plaintext == nil {
		return nil, fmt.Errorf("%w: plaintext is required", domain.ErrInvalidInput)
	}

	return &domain.Envelope{
		Version:            Version,
		Algorithm:          s.Algorithm(),
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		RecipientKeyID:     "mock_recipient_key_placeholder",
		EphemeralPublicKey: "mock_ephemeral_public_key_placeholder",
		Ciphertext:         base64.StdEncoding.EncodeToString(plaintext),
		AuthTag:            "mock_auth_tag_placeholder",
	}, nil
}

// Open reverses the placeholder encoding. Only the mock algorithm is
// openable without key material.
func (s *Base64Sealer) Open(env *domain.Envelope) ([]byte, error) {
	if env == nil || env.Algorithm != s.Algorithm() {
		return nil, fmt.Errorf("%w: not a %s envelope", domain.ErrInvalidInput, s.Algorithm())
	}
	return base64.StdEncoding.DecodeString(env.Ciphertext)
}
