package service

import (
	"sort"

	"github.com/perceptlab/percept/internal/domain"
)

// Registry catalogs wave manifests and resolves which waves are needed to
// produce a target set of signal patterns. It is purely computational:
// an unsatisfiable requirement is never an error, it only shows up in
// FindOrphanSignals.
type Registry struct {
	manifests []domain.WaveManifest
	byName    map[string]domain.WaveManifest
}

// NewRegistry builds a registry from a manifest catalog. The first manifest
// wins when two share a name.
func NewRegistry(manifests []domain.WaveManifest) *Registry {
	r := &Registry{
		manifests: make([]domain.WaveManifest, 0, len(manifests)),
		byName:    make(map[string]domain.WaveManifest, len(manifests)),
	}
	for _, m := range manifests {
		if _, exists := r.byName[m.Name]; exists {
			continue
		}
		r.manifests = append(r.manifests, m)
		r.byName[m.Name] = m
	}
	return r
}

// Manifests returns the catalog in registration order.
func (r *Registry) Manifests() []domain.WaveManifest {
	out := make([]domain.WaveManifest, len(r.manifests))
	copy(out, r.manifests)
	return out
}

func (r *Registry) Get(name string) (domain.WaveManifest, bool) {
	m, ok := r.byName[name]
	return m, ok
}

func (r *Registry) Len() int {
	return len(r.manifests)
}

// FindWavesEmitting returns every manifest with an Emits entry matching the
// pattern. Matching runs in both directions, so asking for "color.*" finds
// a wave emitting the exact key "color.mean_saturation", and asking for an
// exact key finds a wave whose Emits entry is a wildcard.
func (r *Registry) FindWavesEmitting(pattern string) []domain.WaveManifest {
	var out []domain.WaveManifest
	for _, m := range r.manifests {
		if m.EmitsMatching(pattern) {
			out = append(out, m)
		}
	}
	return out
}

// GetRequiredWaves computes the wave set needed to produce the target
// patterns: collect the direct emitters, then keep resolving each collected
// wave's own Requires until a pass adds nothing new. Every wave is collected
// at most once, so the worklist is bounded by the catalog size and the loop
// terminates even when manifests require each other mutually. The result is
// ordered by ascending priority; lower numbers run earlier.
func (r *Registry) GetRequiredWaves(signalPatterns []string) []domain.WaveManifest {
	seen := make(map[string]struct{})
	var result []domain.WaveManifest

	queue := make([]string, len(signalPatterns))
	copy(queue, signalPatterns)

	for i := 0; i < len(queue); i++ {
		for _, m := range r.FindWavesEmitting(queue[i]) {
			if _, collected := seen[m.Name]; collected {
				continue
			}
			seen[m.Name] = struct{}{}
			result = append(result, m)
			queue = append(queue, m.Requires...)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result
}

// FindOrphanSignals returns every pattern that appears in some manifest's
// Requires but is matched by no manifest's Emits. Meant as a startup
// self-check on a catalog, not a run-time error.
func (r *Registry) FindOrphanSignals() []string {
	var orphans []string
	checked := make(map[string]struct{})
	for _, m := range r.manifests {
		for _, req := range m.Requires {
			if _, done := checked[req]; done {
				continue
			}
			checked[req] = struct{}{}
			if len(r.FindWavesEmitting(req)) == 0 {
				orphans = append(orphans, req)
			}
		}
	}
	return orphans
}
