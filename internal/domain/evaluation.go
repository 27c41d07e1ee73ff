package domain

import "time"

// RiskLevel is the discrete risk label derived from the risk score.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskMed  RiskLevel = "MED"
	RiskHigh RiskLevel = "HIGH"
)

// Envelope is the sealed decision payload. The ciphertext is opaque
// to the pipeline; the sealing algorithm is a pluggable capability.
type Envelope struct {
	Version            string `json:"version"`
	Algorithm          string `json:"algorithm"`
	Timestamp          string `json:"timestamp"`
	RecipientKeyID     string `json:"recipientKeyId"`
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	Ciphertext         string `json:"ciphertext"`
	AuthTag            string `json:"authTag"`
}

// EvaluationResult is the final product of one evaluation call.
// Never mutated after construction; not persisted by the pipeline.
type EvaluationResult struct {
	EvaluationID string    `json:"evaluationId"`
	AgentID      string    `json:"agentId"`
	Timestamp    time.Time `json:"timestamp"`

	RiskScore float64                `json:"riskScore"` // [0,1], 2 decimals
	RiskLevel RiskLevel              `json:"riskLevel"`
	Approved  bool                   `json:"approved"`
	Checks    map[string]CheckResult `json:"checks"`

	CommitmentHash     string `json:"commitmentHash"` // 64 hex digits
	PayloadSize        int    `json:"payloadSize"`
	EvaluationTimeMs   int64  `json:"evaluationTimeMs"`
	EnvelopeCiphertext string `json:"envelope"`
}

// Response is the transport-agnostic result shape. On internal
// failure, Message carries a short description and Data is omitted.
type Response struct {
	Status  string            `json:"status"` // "success" or "error"
	Data    *EvaluationResult `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Standard topic names for decision events.
const (
	TopicIntentReceived = "warden.intent.received"
	TopicDecision       = "warden.decision"
	TopicAlert          = "warden.alert"
)
