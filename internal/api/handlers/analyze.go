package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/perceptlab/percept/internal/service"
)

type AnalyzeHandler struct {
	svc *service.AnalysisService
}

func NewAnalyzeHandler(svc *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

type analyzeRequest struct {
	ImagePath string   `json:"image_path"`
	Waves     []string `json:"waves,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	Targets   []string `json:"targets,omitempty"`
	Detect    *bool    `json:"detect,omitempty"`
	Persist   bool     `json:"persist,omitempty"`
}

type analyzeResponse struct {
	*service.AnalysisReport
	SignalCount        int `json:"signal_count"`
	ContradictionCount int `json:"contradiction_count"`
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImagePath == "" {
		writeError(w, http.StatusBadRequest, "image_path is required")
		return
	}

	opts := service.AnalyzeOptions{
		WaveNames: req.Waves,
		Tag:       req.Tag,
		Targets:   req.Targets,
		Detect:    req.Detect == nil || *req.Detect,
		Persist:   req.Persist,
	}

	report, err := h.svc.Analyze(r.Context(), req.ImagePath, opts)
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		AnalysisReport:     report,
		SignalCount:        report.Profile.SignalCount,
		ContradictionCount: len(report.Contradictions),
	})
}
