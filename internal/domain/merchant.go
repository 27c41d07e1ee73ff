package domain

// MerchantReputation is a trust record for a merchant identifier.
// Every string resolves to a reputation: known merchants come from
// the directory, unknown ones get a deterministic fallback score.
type MerchantReputation struct {
	MerchantID string `json:"merchantId"`
	Score      int    `json:"score"` // 0-100
	Trusted    bool   `json:"trusted"`
	Category   string `json:"category"`
	Name       string `json:"name,omitempty"`

	// VerifiedSince is empty for unverified merchants.
	VerifiedSince string `json:"verifiedSince,omitempty"`

	// Note carries data-level diagnostics (missing identifier,
	// fallback scoring, lookup timeout). Never a thrown failure.
	Note string `json:"note,omitempty"`
}

// TrustScoreFloor is the fallback score at or above which a merchant
// is considered trusted.
const TrustScoreFloor = 60
