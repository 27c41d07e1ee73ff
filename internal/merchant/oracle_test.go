package merchant

import (
	"context"
	"testing"

	"github.com/agentpay/warden/internal/domain"
)

func TestFallbackDeterminism(t *testing.T) {
	first := Fallback("merchant_never_seen")
	second := Fallback("merchant_never_seen")

	if first.Score != second.Score || first.Trusted != second.Trusted {
		t.Errorf("fallback not deterministic: %+v vs %+v", first, second)
	}
	if first.Score < 0 || first.Score > 99 {
		t.Errorf("fallback score out of range: %d", first.Score)
	}
}

func TestFallbackTrustFloor(t *testing.T) {
	// Scan a spread of identifiers; trust must track the floor exactly.
	ids := []string{"a", "bb", "shop_one", "shop_two", "x402_handler", "very_long_merchant_identifier_string"}
	for _, id := range ids {
		rep := Fallback(id)
		want := rep.Score >= domain.TrustScoreFloor
		if rep.Trusted != want {
			t.Errorf("merchant %q: score %d, trusted=%v", id, rep.Score, rep.Trusted)
		}
	}
}

func TestStaticOracleEmptyID(t *testing.T) {
	o := NewStaticOracle(nil)

	rep := o.Score(context.Background(), "")
	if rep.Trusted {
		t.Error("empty merchant ID must be untrusted")
	}
	if rep.Score != 40 {
		t.Errorf("expected fixed unknown score 40, got %d", rep.Score)
	}
	if rep.Note == "" {
		t.Error("empty merchant ID must carry a data-level note")
	}
}

func TestStaticOracleDirectoryHit(t *testing.T) {
	o := NewStaticOracle(map[string]domain.MerchantReputation{
		"coffee_shop_42": {Score: 85, Trusted: true, Category: "food", Name: "Coffee Shop 42"},
	})

	rep := o.Score(context.Background(), "  Coffee_Shop_42 ")
	if !rep.Trusted || rep.Score != 85 {
		t.Errorf("expected directory record, got %+v", rep)
	}
	if rep.MerchantID != "coffee_shop_42" {
		t.Errorf("expected normalized ID, got %q", rep.MerchantID)
	}
}

func TestStaticOracleFallbackStableAcrossCalls(t *testing.T) {
	o := NewStaticOracle(nil)
	ctx := context.Background()

	first := o.Score(ctx, "unlisted_shop")
	second := o.Score(ctx, "unlisted_shop")

	if first.Score != second.Score || first.Trusted != second.Trusted {
		t.Errorf("oracle fallback not stable: %+v vs %+v", first, second)
	}
}
