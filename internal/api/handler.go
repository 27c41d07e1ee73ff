package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentpay/warden/internal/domain"
	"github.com/agentpay/warden/internal/evaluator"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	evaluator *evaluator.Evaluator
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, eval *evaluator.Evaluator, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		evaluator: eval,
		version:   version,
	}
}

// EvaluateRequest is the request body for POST /evaluate.
type EvaluateRequest struct {
	AgentID string           `json:"agentId"`
	Intent  domain.RawIntent `json:"intent"`
}

// Evaluate handles POST /evaluate requests.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}
	if req.Intent == nil {
		writeError(w, http.StatusBadRequest, "intent is required")
		return
	}

	h.publish(ctx, domain.TopicIntentReceived, map[string]any{
		"agentId": req.AgentID,
		"traceId": GetTraceID(ctx),
	})

	result, err := h.evaluator.Evaluate(ctx, req.Intent, req.AgentID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("evaluation failed", "agent_id", req.AgentID, "error", err)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	h.publish(ctx, domain.TopicDecision, result)
	if result.RiskLevel == domain.RiskHigh {
		h.publish(ctx, domain.TopicAlert, result)
	}

	writeJSON(w, http.StatusOK, domain.Response{
		Status: domain.StatusSuccess,
		Data:   result,
	})
}

// publish sends an event without letting a bus outage affect the
// request path.
func (h *Handler) publish(ctx context.Context, topic string, payload any) {
	if h.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := h.bus.Publish(ctx, topic, data); err != nil {
		slog.Warn("event publish failed", "topic", topic, "error", err)
	}
}

// GetPolicy retrieves the policy for an agent.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent id is required")
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "policy store not available")
		return
	}

	policy, err := h.repo.GetPolicy(r.Context(), agentID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "policy not found")
		return
	}
	if err != nil {
		slog.Error("failed to get policy", "agent_id", agentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get policy")
		return
	}

	writeJSON(w, http.StatusOK, policy)
}

// PutPolicy stores or replaces the policy for an agent.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent id is required")
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "policy store not available")
		return
	}

	var policy domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	// Path wins over body
	policy.AgentID = agentID

	if policy.MaxBudget < 0 {
		writeError(w, http.StatusBadRequest, "maxBudget must be non-negative")
		return
	}
	if policy.RiskThreshold < 0 || policy.RiskThreshold > 1 {
		writeError(w, http.StatusBadRequest, "riskThreshold must be in [0,1]")
		return
	}

	if err := h.repo.SavePolicy(r.Context(), policy); err != nil {
		slog.Error("failed to save policy", "agent_id", agentID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save policy")
		return
	}

	writeJSON(w, http.StatusOK, policy)
}

// ListPolicies returns all stored policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "policy store not available")
		return
	}

	policies, err := h.repo.ListPolicies(r.Context())
	if err != nil {
		slog.Error("failed to list policies", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list policies")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"policies": policies,
		"count":    len(policies),
	})
}

// GetMerchant retrieves a merchant directory entry.
func (h *Handler) GetMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "id")
	if merchantID == "" {
		writeError(w, http.StatusBadRequest, "merchant id is required")
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "merchant directory not available")
		return
	}

	rep, err := h.repo.GetMerchant(r.Context(), merchantID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "merchant not found")
		return
	}
	if err != nil {
		slog.Error("failed to get merchant", "merchant_id", merchantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get merchant")
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// PutMerchant stores or replaces a merchant directory entry.
func (h *Handler) PutMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID := chi.URLParam(r, "id")
	if merchantID == "" {
		writeError(w, http.StatusBadRequest, "merchant id is required")
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "merchant directory not available")
		return
	}

	var rep domain.MerchantReputation
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	rep.MerchantID = merchantID

	if rep.Score < 0 || rep.Score > 100 {
		writeError(w, http.StatusBadRequest, "score must be in [0,100]")
		return
	}

	if err := h.repo.SaveMerchant(r.Context(), rep); err != nil {
		slog.Error("failed to save merchant", "merchant_id", merchantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save merchant")
		return
	}

	// Stale cached reputation must not outlive a directory update.
	if h.cache != nil {
		_ = h.cache.Delete(r.Context(), "reputation:"+merchantID)
	}

	writeJSON(w, http.StatusOK, rep)
}

// ListMerchants returns all merchant directory entries.
func (h *Handler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "merchant directory not available")
		return
	}

	merchants, err := h.repo.ListMerchants(r.Context())
	if err != nil {
		slog.Error("failed to list merchants", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list merchants")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"merchants": merchants,
		"count":     len(merchants),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.Response{
		Status:  domain.StatusError,
		Message: message,
	})
}
