package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/nacl/box"

	"github.com/agentpay/warden/internal/domain"
)

// BoxSealer seals payloads with an X25519-XSalsa20-Poly1305 box to a
// fixed recipient public key. A fresh ephemeral keypair and nonce are
// generated per seal; the Poly1305 tag lives inside the NaCl
// ciphertext, so AuthTag records its placement rather than the tag
// itself.
type BoxSealer struct {
	recipientPub   *[32]byte
	recipientKeyID string
}

// NewBoxSealer creates a sealer for the given recipient public key.
func NewBoxSealer(recipientPub *[32]byte) (*BoxSealer, error) {
	if recipientPub == nil {
		return nil, fmt.Errorf("%w: recipient public key is required", domain.ErrInvalidInput)
	}

	keySum := sha256.Sum256(recipientPub[:])
	return &BoxSealer{
		recipientPub:   recipientPub,
		recipientKeyID: hex.EncodeToString(keySum[:8]),
	}, nil
}

// GenerateRecipientKeys creates a recipient keypair. The private key
// stays with the party that opens envelopes; the pipeline only ever
// sees the public half.
func GenerateRecipientKeys() (pub, priv *[32]byte, err error) {
	return box.GenerateKey(rand.Reader)
}

func (s *BoxSealer) Algorithm() string { return "x25519-xsalsa20-poly1305" }

// Seal encrypts the plaintext for the recipient. The 24-byte nonce is
// prepended to the boxed ciphertext before encoding.
func (s *BoxSealer) Seal(plaintext []byte) (*domain.Envelope, error) {
	if plaintext == nil {
		return nil, fmt.Errorf("%w: plaintext is required", domain.ErrInvalidInput)
	}

	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key generation failed: %v", domain.ErrInternal, err)
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: nonce generation failed: %v", domain.ErrInternal, err)
	}

	sealed := box.Seal(nonce[:], plaintext, &nonce, s.recipientPub, ephPriv)

	return &domain.Envelope{
		Version:            Version,
		Algorithm:          s.Algorithm(),
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		RecipientKeyID:     s.recipientKeyID,
		EphemeralPublicKey: base64.StdEncoding.EncodeToString(ephPub[:]),
		Ciphertext:         base64.StdEncoding.EncodeToString(sealed),
		AuthTag:            "poly1305-embedded",
	}, nil
}

// Open decrypts an envelope with the recipient's private key.
// Provided for the opening party and for tests; the pipeline itself
// never opens what it seals.
func Open(env *domain.Envelope, recipientPriv *[32]byte) ([]byte, error) {
	if env == nil || recipientPriv == nil {
		return nil, fmt.Errorf("%w: envelope and private key are required", domain.ErrInvalidInput)
	}

	ephPubRaw, err := base64.StdEncoding.DecodeString(env.EphemeralPublicKey)
	if err != nil || len(ephPubRaw) != 32 {
		return nil, fmt.Errorf("%w: malformed ephemeral public key", domain.ErrInvalidInput)
	}
	var ephPub [32]byte
	copy(ephPub[:], ephPubRaw)

	sealed, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil || len(sealed) < 24 {
		return nil, fmt.Errorf("%w: malformed ciphertext", domain.ErrInvalidInput)
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := box.Open(nil, sealed[24:], &nonce, &ephPub, recipientPriv)
	if !ok {
		return nil, fmt.Errorf("%w: envelope authentication failed", domain.ErrInvalidInput)
	}
	return plaintext, nil
}
