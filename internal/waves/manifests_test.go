package waves

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/llm"
	"github.com/perceptlab/percept/internal/service"
)

func TestDefaultManifestsMatchDefaultWaves(t *testing.T) {
	manifests := DefaultManifests()
	built := DefaultWaves(llm.NewMockClient(), llm.NewMockClient(), zap.NewNop())

	if len(manifests) != 9 {
		t.Fatalf("got %d manifests, want 9", len(manifests))
	}
	if len(built) != len(manifests) {
		t.Fatalf("got %d waves for %d manifests", len(built), len(manifests))
	}

	byName := make(map[string]domain.WaveManifest)
	for _, m := range manifests {
		if _, dup := byName[m.Name]; dup {
			t.Errorf("duplicate manifest name %q", m.Name)
		}
		byName[m.Name] = m
	}

	for _, w := range built {
		m, ok := byName[w.Name()]
		if !ok {
			t.Errorf("wave %q has no manifest", w.Name())
			continue
		}
		if w.Priority() != m.Priority {
			t.Errorf("%s priority: wave %d, manifest %d", w.Name(), w.Priority(), m.Priority)
		}
		if len(w.Tags()) != len(m.Tags) {
			t.Errorf("%s tags: wave %v, manifest %v", w.Name(), w.Tags(), m.Tags)
			continue
		}
		for i, tag := range w.Tags() {
			if m.Tags[i] != tag {
				t.Errorf("%s tags: wave %v, manifest %v", w.Name(), w.Tags(), m.Tags)
				break
			}
		}
	}
}

func TestDefaultCatalogHasNoOrphans(t *testing.T) {
	registry := service.NewRegistry(DefaultManifests())

	if orphans := registry.FindOrphanSignals(); len(orphans) != 0 {
		t.Errorf("default catalog has orphan requirements: %v", orphans)
	}
}

func TestDefaultCatalogResolvesOCRChain(t *testing.T) {
	registry := service.NewRegistry(DefaultManifests())

	resolved := registry.GetRequiredWaves([]string{"ocr.text"})

	// layout is only an optional input of textlike, so resolution skips it.
	want := []string{"format", "quality", "textlike", "ocr"}
	if len(resolved) != len(want) {
		names := make([]string, 0, len(resolved))
		for _, m := range resolved {
			names = append(names, m.Name)
		}
		t.Fatalf("resolved %v, want %v", names, want)
	}
	for i, m := range resolved {
		if m.Name != want[i] {
			t.Errorf("resolved[%d] = %s, want %s", i, m.Name, want[i])
		}
	}
}

func TestWavesObserveCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ac := domain.NewAnalysisContext()
	for _, w := range DefaultWaves(llm.NewMockClient(), llm.NewMockClient(), zap.NewNop()) {
		if _, err := w.Analyze(ctx, "irrelevant.png", ac); !errors.Is(err, context.Canceled) {
			t.Errorf("%s wave error = %v, want context.Canceled", w.Name(), err)
		}
	}
}
