// Package domain defines the core interfaces and types for Warden.
package domain

// RawIntent is a proposed payment action as submitted by an agent.
// The shape is free-form; only a handful of fields are recognized and
// everything else passes through normalization untouched.
type RawIntent map[string]any

// Recognized raw intent fields. Anything else lands in Intent.Extra.
const (
	FieldAction      = "action"
	FieldAmount      = "amount"
	FieldCurrency    = "currency"
	FieldMerchant    = "merchant"
	FieldDescription = "description"
)

// Intent is a normalized payment intent.
// Invariants: Action and Merchant are lowercased and trimmed, Currency
// is uppercased and trimmed, Amount is non-negative, and Description
// has known PII patterns replaced with redaction markers.
type Intent struct {
	Action      string  `json:"action,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Merchant    string  `json:"merchant,omitempty"`
	Description string  `json:"description,omitempty"`

	// Extra holds unrecognized input fields verbatim.
	// Normalization is additive, never lossy.
	Extra map[string]any `json:"extra,omitempty"`
}

// ToMap flattens the intent back into a single mapping, recognized
// fields first, extras layered on top. Used for canonical
// serialization in the commitment hash and the sealed envelope.
func (i *Intent) ToMap() map[string]any {
	m := make(map[string]any, 5+len(i.Extra))
	if i.Action != "" {
		m[FieldAction] = i.Action
	}
	m[FieldAmount] = i.Amount
	if i.Currency != "" {
		m[FieldCurrency] = i.Currency
	}
	if i.Merchant != "" {
		m[FieldMerchant] = i.Merchant
	}
	if i.Description != "" {
		m[FieldDescription] = i.Description
	}
	for k, v := range i.Extra {
		m[k] = v
	}
	return m
}
