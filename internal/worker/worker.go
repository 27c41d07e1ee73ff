// Package worker provides async intent processing off the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/evaluator"
)

// Worker evaluates intents published to the bus instead of arriving
// over HTTP. Decisions and alerts go out on the same topics the API
// handler uses, so downstream consumers cannot tell the paths apart.
type Worker struct {
	bus       domain.EventBus
	evaluator *evaluator.Evaluator

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, eval *evaluator.Evaluator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		evaluator: eval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// IntentMessage is the payload for async intent evaluation. Messages
// without an intent body are API-side notifications and are skipped.
type IntentMessage struct {
	AgentID string           `json:"agentId"`
	Intent  domain.RawIntent `json:"intent,omitempty"`
	TraceID string           `json:"traceId,omitempty"`
}

// Start subscribes to the intent topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicIntentReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicIntentReceived)
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processIntent(ctx, msg)
}

// processIntent evaluates one intent through the pipeline.
func (w *Worker) processIntent(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var intentMsg IntentMessage
	if err := json.Unmarshal(msg.Payload, &intentMsg); err != nil {
		slog.Error("failed to parse intent message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	if intentMsg.Intent == nil {
		// Notification without a body, nothing to evaluate.
		slog.Debug("skipping intent notification", "message_id", msg.ID)
		return nil
	}

	traceID := intentMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing intent",
		"agent_id", intentMsg.AgentID,
		"trace_id", traceID,
	)

	result, err := w.evaluator.Evaluate(ctx, intentMsg.Intent, intentMsg.AgentID)
	if err != nil {
		slog.Error("async evaluation failed",
			"agent_id", intentMsg.AgentID,
			"trace_id", traceID,
			"error", err,
		)
		return err
	}

	resultPayload, _ := json.Marshal(result)
	if err := w.bus.Publish(ctx, domain.TopicDecision, resultPayload); err != nil {
		slog.Error("failed to publish decision",
			"evaluation_id", result.EvaluationID,
			"error", err,
		)
	}

	if result.RiskLevel == domain.RiskHigh {
		if err := w.bus.Publish(ctx, domain.TopicAlert, resultPayload); err != nil {
			slog.Error("failed to publish alert",
				"evaluation_id", result.EvaluationID,
				"error", err,
			)
		}
	}

	slog.Info("intent processed",
		"evaluation_id", result.EvaluationID,
		"agent_id", intentMsg.AgentID,
		"risk_level", result.RiskLevel,
		"approved", result.Approved,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
