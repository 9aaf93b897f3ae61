package service

import (
	"testing"

	"github.com/perceptlab/percept/internal/domain"
)

func testCatalog() []domain.WaveManifest {
	return []domain.WaveManifest{
		{Name: "format", Priority: 10, Emits: []string{"format.name", "format.animated"}},
		{Name: "color", Priority: 20, Requires: []string{"format.name"}, Emits: []string{"color.*"}},
		{Name: "quality", Priority: 30, Requires: []string{"format.name"}, Emits: []string{"quality.blur_score", "quality.edge_strength"}},
		{Name: "textlike", Priority: 60, Requires: []string{"quality.edge_strength"}, Emits: []string{"textlike.score"}},
		{Name: "ocr", Priority: 70, Requires: []string{"textlike.score"}, Emits: []string{"ocr.text", "ocr.confidence"}},
	}
}

func TestFindWavesEmitting(t *testing.T) {
	r := NewRegistry(testCatalog())

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"exact key", "format.name", []string{"format"}},
		{"exact key against wildcard emit", "color.mean_saturation", []string{"color"}},
		{"wildcard pattern against exact emits", "quality.*", []string{"quality"}},
		{"universal wildcard", "*", []string{"format", "color", "quality", "textlike", "ocr"}},
		{"no emitter", "audio.pitch", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.FindWavesEmitting(tt.pattern)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d waves, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Name != tt.want[i] {
					t.Errorf("wave %d = %s, want %s", i, m.Name, tt.want[i])
				}
			}
		})
	}
}

func TestGetRequiredWaves(t *testing.T) {
	r := NewRegistry(testCatalog())

	got := r.GetRequiredWaves([]string{"ocr.text"})

	want := []string{"format", "quality", "textlike", "ocr"}
	if len(got) != len(want) {
		t.Fatalf("got %d waves, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Name != want[i] {
			t.Errorf("wave %d = %s, want %s", i, m.Name, want[i])
		}
	}

	// Ascending priority, lower numbers first.
	for i := 1; i < len(got); i++ {
		if got[i-1].Priority > got[i].Priority {
			t.Errorf("wave %s (priority %d) ordered before %s (priority %d)",
				got[i-1].Name, got[i-1].Priority, got[i].Name, got[i].Priority)
		}
	}
}

func TestGetRequiredWavesDirectEmitterOnly(t *testing.T) {
	r := NewRegistry(testCatalog())

	got := r.GetRequiredWaves([]string{"format.name"})
	if len(got) != 1 || got[0].Name != "format" {
		t.Fatalf("got %v, want just format", names(got))
	}
}

func TestGetRequiredWavesTerminatesOnMutualRequires(t *testing.T) {
	r := NewRegistry([]domain.WaveManifest{
		{Name: "a", Priority: 1, Requires: []string{"b.out"}, Emits: []string{"a.out"}},
		{Name: "b", Priority: 2, Requires: []string{"a.out"}, Emits: []string{"b.out"}},
	})

	got := r.GetRequiredWaves([]string{"a.out"})
	if len(got) != 2 {
		t.Fatalf("got %d waves, want 2", len(got))
	}
}

func TestGetRequiredWavesClosureSatisfied(t *testing.T) {
	r := NewRegistry(testCatalog())
	orphans := r.FindOrphanSignals()

	for _, target := range []string{"ocr.text", "color.*", "textlike.score", "*"} {
		waves := r.GetRequiredWaves([]string{target})
		for _, w := range waves {
			for _, req := range w.Requires {
				if satisfiedBy(waves, req) || contains(orphans, req) {
					continue
				}
				t.Errorf("target %s: wave %s requires %s, satisfied by no returned wave and not orphaned",
					target, w.Name, req)
			}
		}
	}
}

func TestFindOrphanSignals(t *testing.T) {
	catalog := append(testCatalog(), domain.WaveManifest{
		Name:     "synthesis",
		Priority: 90,
		Requires: []string{"vision.caption"},
		Emits:    []string{"synthesis.summary"},
	})
	r := NewRegistry(catalog)

	orphans := r.FindOrphanSignals()
	if !contains(orphans, "vision.caption") {
		t.Errorf("orphans = %v, want vision.caption reported", orphans)
	}
	if contains(orphans, "format.name") {
		t.Error("format.name has an emitter, should not be orphaned")
	}
}

func TestFindOrphanSignalsCleanCatalog(t *testing.T) {
	r := NewRegistry(testCatalog())
	if orphans := r.FindOrphanSignals(); len(orphans) != 0 {
		t.Errorf("orphans = %v, want none", orphans)
	}
}

func TestRegistryDuplicateNamesFirstWins(t *testing.T) {
	r := NewRegistry([]domain.WaveManifest{
		{Name: "color", Priority: 20},
		{Name: "color", Priority: 99},
	})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	m, ok := r.Get("color")
	if !ok || m.Priority != 20 {
		t.Errorf("Get(color) = %+v, want the first registration", m)
	}
}

func names(manifests []domain.WaveManifest) []string {
	out := make([]string, len(manifests))
	for i, m := range manifests {
		out[i] = m.Name
	}
	return out
}

func satisfiedBy(waves []domain.WaveManifest, pattern string) bool {
	for _, w := range waves {
		if w.EmitsMatching(pattern) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
