// Package evaluator sequences the evaluation pipeline: normalize,
// resolve policy, run rules, aggregate, commit and seal.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentpay/warden/internal/commitment"
	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/envelope"
	"github.com/agentpay/warden/internal/intent"
	"github.com/agentpay/warden/internal/policy"
	"github.com/agentpay/warden/internal/risk"
	"github.com/agentpay/warden/internal/rules"
)

var tracer = otel.Tracer("warden-evaluator")

// Evaluator owns the lifecycle of all intermediate values for one
// evaluation call. The injected policy and reputation capabilities
// are read-only from the pipeline's perspective, so concurrent
// evaluations never interfere.
type Evaluator struct {
	resolver   policy.Resolver
	oracle     rules.MerchantOracle
	sealer     envelope.Sealer
	aggregator *risk.Aggregator
	maxWorkers int
}

// New creates an evaluator over the given capabilities.
func New(resolver policy.Resolver, oracle rules.MerchantOracle, sealer envelope.Sealer) *Evaluator {
	return &Evaluator{
		resolver:   resolver,
		oracle:     oracle,
		sealer:     sealer,
		aggregator: risk.NewAggregator(),
		maxWorkers: 10,
	}
}

// Evaluate runs the five pipeline stages for one intent. Stages never
// branch back; a stage raising ErrInvalidInput aborts the whole
// evaluation with no partial result. Timing is measured and reported
// but never affects the outcome.
func (e *Evaluator) Evaluate(ctx context.Context, raw domain.RawIntent, agentID string) (*domain.EvaluationResult, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "evaluate",
		trace.WithAttributes(attribute.String("agent.id", agentID)),
	)
	defer span.End()

	// Stage 1: normalize
	normalized, err := intent.Normalize(raw)
	if err != nil {
		return nil, err
	}

	// Stage 2: resolve policy (never fails; unknown agents get the
	// conservative default)
	pol := e.resolver.Resolve(ctx, agentID)

	// Stage 3: run rules concurrently. Custom policy rules join the
	// built-in four; a malformed custom rule is logged and skipped
	// rather than aborting.
	ruleSet := rules.Builtin(e.oracle)
	custom, compileErrs := rules.CompilePolicyRules(pol)
	for _, cerr := range compileErrs {
		slog.Warn("skipping malformed custom rule", "agent_id", agentID, "error", cerr)
	}
	ruleSet = append(ruleSet, custom...)

	runner := rules.NewRunner(ruleSet, e.maxWorkers)
	checks, err := runner.Run(ctx, normalized, pol)
	if err != nil {
		return nil, err
	}

	// Stage 4: aggregate (the barrier: requires every rule result)
	assessment := e.aggregator.Aggregate(checks, pol)

	span.SetAttributes(
		attribute.Float64("risk.score", assessment.RiskScore),
		attribute.String("risk.level", string(assessment.RiskLevel)),
	)

	// Stage 5: commit and seal
	now := time.Now().UTC()
	hash, err := commitment.Commit(normalized, commitment.Metadata{
		AgentID:   agentID,
		Timestamp: now.Format(time.RFC3339),
		RiskScore: assessment.RiskScore,
	})
	if err != nil {
		return nil, err
	}

	env, payloadSize, err := e.seal(normalized, agentID, assessment, checks, hash, now)
	if err != nil {
		return nil, err
	}

	result := &domain.EvaluationResult{
		EvaluationID:       uuid.New().String(),
		AgentID:            agentID,
		Timestamp:          now,
		RiskScore:          assessment.RiskScore,
		RiskLevel:          assessment.RiskLevel,
		Approved:           risk.ShouldApprove(assessment.RiskScore, pol),
		Checks:             checks,
		CommitmentHash:     hash,
		PayloadSize:        payloadSize,
		EvaluationTimeMs:   time.Since(start).Milliseconds(),
		EnvelopeCiphertext: env.Ciphertext,
	}

	slog.Info("intent evaluated",
		"evaluation_id", result.EvaluationID,
		"agent_id", agentID,
		"risk_score", result.RiskScore,
		"risk_level", result.RiskLevel,
		"approved", result.Approved,
		"duration_ms", result.EvaluationTimeMs,
	)

	return result, nil
}

// sealedPayload is the plaintext packaged into the envelope.
type sealedPayload struct {
	Intent     map[string]any                `json:"intent"`
	AgentID    string                        `json:"agentId"`
	Evaluation sealedEvaluation              `json:"evaluation"`
	Timestamp  string                        `json:"timestamp"`
}

type sealedEvaluation struct {
	RiskScore      float64                       `json:"riskScore"`
	RiskLevel      domain.RiskLevel              `json:"riskLevel"`
	Checks         map[string]domain.CheckResult `json:"checks"`
	CommitmentHash string                        `json:"commitmentHash"`
}

// seal serializes the decision payload and hands it to the pluggable
// sealing capability. A sealing outage is internal, not a business
// rejection.
func (e *Evaluator) seal(normalized *domain.Intent, agentID string, assessment risk.Assessment, checks map[string]domain.CheckResult, hash string, now time.Time) (*domain.Envelope, int, error) {
	plaintext, err := json.Marshal(sealedPayload{
		Intent:  normalized.ToMap(),
		AgentID: agentID,
		Evaluation: sealedEvaluation{
			RiskScore:      assessment.RiskScore,
			RiskLevel:      assessment.RiskLevel,
			Checks:         checks,
			CommitmentHash: hash,
		},
		Timestamp: now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: payload serialization failed: %v", domain.ErrInternal, err)
	}

	env, err := e.sealer.Seal(plaintext)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: envelope sealing failed: %v", domain.ErrInternal, err)
	}

	return env, envelope.SizeBytes(env), nil
}
