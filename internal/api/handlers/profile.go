package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/service"
)

type ProfileHandler struct {
	svc *service.AnalysisService
}

func NewProfileHandler(svc *service.AnalysisService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

type listProfilesResponse struct {
	Profiles []domain.Profile `json:"profiles"`
	Count    int              `json:"count"`
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	profiles, err := h.svc.ListProfiles(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}

	writeJSON(w, http.StatusOK, listProfilesResponse{Profiles: profiles, Count: len(profiles)})
}

func (h *ProfileHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	if err := h.svc.DeleteProfile(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type findingsResponse struct {
	Findings []domain.Finding `json:"findings"`
	Count    int              `json:"count"`
}

func (h *ProfileHandler) GetFindings(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	findings, err := h.svc.GetFindings(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if findings == nil {
		findings = []domain.Finding{}
	}

	writeJSON(w, http.StatusOK, findingsResponse{Findings: findings, Count: len(findings)})
}

type redetectResponse struct {
	ProfileID      uuid.UUID                    `json:"profile_id"`
	Contradictions []domain.ContradictionResult `json:"contradictions"`
	Count          int                          `json:"count"`
}

// Redetect reruns contradiction detection over a stored profile with the
// detector's current rule set.
func (h *ProfileHandler) Redetect(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	contradictions, err := h.svc.DetectStored(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if contradictions == nil {
		contradictions = []domain.ContradictionResult{}
	}

	writeJSON(w, http.StatusOK, redetectResponse{
		ProfileID:      id,
		Contradictions: contradictions,
		Count:          len(contradictions),
	})
}

type searchProfilesRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type searchProfilesResponse struct {
	Results []domain.ProfileWithScore `json:"results"`
	Query   string                    `json:"query"`
	Count   int                       `json:"count"`
}

func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchProfilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.svc.SearchProfiles(r.Context(), req.Query, req.Limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if results == nil {
		results = []domain.ProfileWithScore{}
	}

	writeJSON(w, http.StatusOK, searchProfilesResponse{
		Results: results,
		Query:   req.Query,
		Count:   len(results),
	})
}

// ListFindings serves findings across all profiles filtered by severity.
func (h *ProfileHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	severity := r.URL.Query().Get("severity")
	if severity == "" {
		writeError(w, http.StatusBadRequest, "severity parameter is required")
		return
	}
	if !domain.ValidSeverity(severity) {
		writeError(w, http.StatusBadRequest, "invalid severity parameter")
		return
	}

	limit := parseLimit(r, 50)

	findings, err := h.svc.ListFindingsBySeverity(r.Context(), domain.Severity(severity), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if findings == nil {
		findings = []domain.Finding{}
	}

	writeJSON(w, http.StatusOK, findingsResponse{Findings: findings, Count: len(findings)})
}

func parseLimit(r *http.Request, fallback int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
