package handlers

import (
	"net/http"
	"strings"

	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/service"
)

type WaveHandler struct {
	registry *service.Registry
}

func NewWaveHandler(registry *service.Registry) *WaveHandler {
	return &WaveHandler{registry: registry}
}

type wavesResponse struct {
	Waves []domain.WaveManifest `json:"waves"`
	Count int                   `json:"count"`
}

// List serves the full manifest catalog.
func (h *WaveHandler) List(w http.ResponseWriter, r *http.Request) {
	manifests := h.registry.Manifests()
	writeJSON(w, http.StatusOK, wavesResponse{Waves: manifests, Count: len(manifests)})
}

type resolveResponse struct {
	Targets []string              `json:"targets"`
	Waves   []domain.WaveManifest `json:"waves"`
	Count   int                   `json:"count"`
}

// Resolve answers which waves must run to produce the comma-separated
// target signal patterns, in execution order.
func (h *WaveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	targetParam := r.URL.Query().Get("target")
	if targetParam == "" {
		writeError(w, http.StatusBadRequest, "target parameter is required")
		return
	}

	targets := splitPatterns(targetParam)
	required := h.registry.GetRequiredWaves(targets)
	if required == nil {
		required = []domain.WaveManifest{}
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Targets: targets,
		Waves:   required,
		Count:   len(required),
	})
}

type orphansResponse struct {
	Orphans []string `json:"orphans"`
	Count   int      `json:"count"`
}

// Orphans reports required signal patterns no registered wave emits.
func (h *WaveHandler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans := h.registry.FindOrphanSignals()
	if orphans == nil {
		orphans = []string{}
	}
	writeJSON(w, http.StatusOK, orphansResponse{Orphans: orphans, Count: len(orphans)})
}

func splitPatterns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
