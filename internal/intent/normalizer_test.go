package intent

import (
	"errors"
	"reflect"
	"testing"

	"github.com/agentpay/warden/internal/domain"
)

func TestNormalizeNilIntent(t *testing.T) {
	_, err := Normalize(nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeCanonicalForm(t *testing.T) {
	raw := domain.RawIntent{
		"action":   "  PAYMENT ",
		"amount":   25.50,
		"currency": "usd",
		"merchant": "Coffee_Shop_42 ",
	}

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if got.Action != "payment" {
		t.Errorf("action: expected %q, got %q", "payment", got.Action)
	}
	if got.Currency != "USD" {
		t.Errorf("currency: expected %q, got %q", "USD", got.Currency)
	}
	if got.Merchant != "coffee_shop_42" {
		t.Errorf("merchant: expected %q, got %q", "coffee_shop_42", got.Merchant)
	}
	if got.Amount != 25.50 {
		t.Errorf("amount: expected 25.50, got %.2f", got.Amount)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := domain.RawIntent{
		"action":      "payment",
		"amount":      10.0,
		"currency":    "USD",
		"merchant":    "coffee_shop_42",
		"description": "morning coffee",
	}

	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second, err := Normalize(domain.RawIntent(first.ToMap()))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization not idempotent: %+v vs %+v", first, second)
	}
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 42.5, 42.5},
		{"int", 7, 7.0},
		{"string", "19.99", 19.99},
		{"string with spaces", " 5 ", 5.0},
		{"unparsable", "not-a-number", 0},
		{"negative clamps to zero", -10.0, 0},
		{"nil-ish type", []string{"x"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(domain.RawIntent{"amount": tt.in})
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got.Amount != tt.want {
				t.Errorf("expected %.2f, got %.2f", tt.want, got.Amount)
			}
		})
	}
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"email",
			"contact bob@example.com for refund",
			"contact [EMAIL_REDACTED] for refund",
		},
		{
			"phone",
			"call 555-123-4567 now",
			"call [PHONE_REDACTED] now",
		},
		{
			"card",
			"use card 4111 1111 1111 1111 please",
			"use card [CARD_REDACTED] please",
		},
		{
			"no pii",
			"monthly subscription renewal",
			"monthly subscription renewal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(domain.RawIntent{"description": tt.in})
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got.Description != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Description)
			}
		})
	}
}

func TestUnknownFieldsPreserved(t *testing.T) {
	raw := domain.RawIntent{
		"action":    "payment",
		"projectId": "proj-77",
		"nested":    map[string]any{"k": "v"},
	}

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if got.Extra["projectId"] != "proj-77" {
		t.Errorf("expected projectId preserved, got %v", got.Extra["projectId"])
	}
	if _, ok := got.Extra["nested"].(map[string]any); !ok {
		t.Errorf("expected nested map preserved, got %T", got.Extra["nested"])
	}
}
