package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/service"
)

type RuleHandler struct {
	detector *service.Detector
}

func NewRuleHandler(detector *service.Detector) *RuleHandler {
	return &RuleHandler{detector: detector}
}

type rulesResponse struct {
	Rules []domain.ContradictionRule `json:"rules"`
	Count int                        `json:"count"`
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules := h.detector.Rules()
	writeJSON(w, http.StatusOK, rulesResponse{Rules: rules, Count: len(rules)})
}

func (h *RuleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	rule, ok := h.detector.GetRule(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

type createRuleRequest struct {
	ID                  string   `json:"id"`
	Description         string   `json:"description,omitempty"`
	SignalKeyA          string   `json:"signal_key_a"`
	SignalKeyB          string   `json:"signal_key_b,omitempty"`
	Type                string   `json:"type"`
	Threshold           float64  `json:"threshold,omitempty"`
	Severity            string   `json:"severity,omitempty"`
	MinConfidence       *float32 `json:"min_confidence_threshold,omitempty"`
	ExpectedValues      []string `json:"expected_values,omitempty"`
	ContradictoryValues []string `json:"contradictory_values,omitempty"`
	Resolution          string   `json:"resolution,omitempty"`
	Enabled             *bool    `json:"enabled,omitempty"`
}

// Create installs a rule, replacing any existing rule with the same id.
// Defaults mirror the YAML loader: severity warning, resolution manual
// review, enabled true.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if !domain.ValidContradictionType(req.Type) {
		writeError(w, http.StatusBadRequest, "unknown rule type")
		return
	}

	severity := req.Severity
	if severity == "" {
		severity = string(domain.SeverityWarning)
	}
	if !domain.ValidSeverity(severity) {
		writeError(w, http.StatusBadRequest, "unknown severity")
		return
	}

	resolution := req.Resolution
	if resolution == "" {
		resolution = string(domain.ResolutionManualReview)
	}
	if !domain.ValidResolution(resolution) {
		writeError(w, http.StatusBadRequest, "unknown resolution")
		return
	}

	minConfidence := float32(service.DefaultRuleMinConfidence)
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := domain.ContradictionRule{
		ID:                     req.ID,
		Description:            req.Description,
		SignalKeyA:             req.SignalKeyA,
		SignalKeyB:             req.SignalKeyB,
		Type:                   domain.ContradictionType(req.Type),
		Threshold:              req.Threshold,
		Severity:               domain.Severity(severity),
		MinConfidenceThreshold: minConfidence,
		ExpectedValues:         req.ExpectedValues,
		ContradictoryValues:    req.ContradictoryValues,
		Resolution:             domain.Resolution(resolution),
		Enabled:                enabled,
	}

	h.detector.AddRule(rule)
	writeJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.detector.RemoveRule(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabled toggles a rule without removing it from the catalog.
func (h *RuleHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ruleID := chi.URLParam(r, "id")
	if !h.detector.SetRuleEnabled(ruleID, req.Enabled) {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}

	rule, _ := h.detector.GetRule(ruleID)
	writeJSON(w, http.StatusOK, rule)
}
