// Package intent sanitizes and canonicalizes raw payment intents.
package intent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentpay/warden/internal/domain"
)

// Redaction markers substituted for matched PII spans.
const (
	EmailRedacted = "[EMAIL_REDACTED]"
	PhoneRedacted = "[PHONE_REDACTED]"
	CardRedacted  = "[CARD_REDACTED]"
)

// PII patterns applied in fixed order: email, then phone, then card.
// A span consumed by an earlier replacement cannot match a later
// pattern.
var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	cardPattern  = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
)

// Normalize sanitizes a raw intent into a canonical form.
// Pure function: no I/O, no randomness. Returns
// domain.ErrInvalidInput when raw is absent.
func Normalize(raw domain.RawIntent) (*domain.Intent, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: intent must be a mapping", domain.ErrInvalidInput)
	}

	out := &domain.Intent{}

	if v, ok := raw[domain.FieldAction]; ok {
		out.Action = strings.ToLower(strings.TrimSpace(toString(v)))
	}
	if v, ok := raw[domain.FieldAmount]; ok {
		out.Amount = coerceAmount(v)
	}
	if v, ok := raw[domain.FieldCurrency]; ok {
		out.Currency = strings.ToUpper(strings.TrimSpace(toString(v)))
	}
	if v, ok := raw[domain.FieldMerchant]; ok {
		out.Merchant = strings.ToLower(strings.TrimSpace(toString(v)))
	}
	if v, ok := raw[domain.FieldDescription]; ok {
		out.Description = Redact(strings.TrimSpace(toString(v)))
	}

	// Unknown fields pass through unchanged.
	for k, v := range raw {
		switch k {
		case domain.FieldAction, domain.FieldAmount, domain.FieldCurrency,
			domain.FieldMerchant, domain.FieldDescription:
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]any)
			}
			out.Extra[k] = v
		}
	}

	return out, nil
}

// Redact replaces known PII patterns with fixed markers. Replacement
// is textual substring substitution, not structural removal.
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, EmailRedacted)
	text = phonePattern.ReplaceAllString(text, PhoneRedacted)
	text = cardPattern.ReplaceAllString(text, CardRedacted)
	return text
}

// coerceAmount accepts any numeric representation and returns a
// non-negative float. Unparsable input coerces to 0.
func coerceAmount(v any) float64 {
	var amount float64
	switch n := v.(type) {
	case float64:
		amount = n
	case float32:
		amount = float64(n)
	case int:
		amount = float64(n)
	case int64:
		amount = float64(n)
	case json.Number:
		amount, _ = n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		amount = parsed
	default:
		return 0
	}
	if amount < 0 {
		return 0
	}
	return amount
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
