package service

import (
	"context"
	"errors"
	"testing"

	"github.com/perceptlab/percept/internal/domain"
	"go.uber.org/zap"
)

type stubWave struct {
	name     string
	priority int
	tags     []string
	analyze  func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error)
}

func (w *stubWave) Name() string   { return w.name }
func (w *stubWave) Priority() int  { return w.priority }
func (w *stubWave) Tags() []string { return w.tags }

func (w *stubWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if w.analyze == nil {
		return nil, nil
	}
	return w.analyze(ctx, imagePath, ac)
}

func emitWave(name string, priority int, signals ...domain.Signal) *stubWave {
	return &stubWave{
		name:     name,
		priority: priority,
		analyze: func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
			return signals, nil
		},
	}
}

func TestOrchestratorRunsInPriorityOrder(t *testing.T) {
	var order []string
	record := func(name string, priority int) *stubWave {
		return &stubWave{
			name:     name,
			priority: priority,
			analyze: func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
				order = append(order, name)
				return nil, nil
			},
		}
	}

	o := NewOrchestrator([]domain.Wave{
		record("third", 30),
		record("first", 10),
		record("second", 20),
	}, zap.NewNop())

	o.Run(context.Background(), "/tmp/img.png")

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("ran %d waves, want %d", len(order), len(want))
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("position %d = %s, want %s", i, order[i], name)
		}
	}
}

func TestOrchestratorFaultIsolation(t *testing.T) {
	waves := []domain.Wave{
		emitWave("w1", 1, domain.NewSignal("w1.a", 1, 0.9, "w1")),
		emitWave("w2", 2, domain.NewSignal("w2.a", 2, 0.9, "w2")),
		&stubWave{name: "broken", priority: 3, analyze: func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
			return nil, errors.New("decode failed")
		}},
		emitWave("w4", 4, domain.NewSignal("w4.a", 4, 0.9, "w4")),
		emitWave("w5", 5, domain.NewSignal("w5.a", 5, 0.9, "w5")),
	}

	o := NewOrchestrator(waves, zap.NewNop())
	profile := o.Run(context.Background(), "/tmp/img.png")

	errSignals := profile.ErrorSignals()
	if len(errSignals) != 1 {
		t.Fatalf("got %d error signals, want 1", len(errSignals))
	}
	errSig := errSignals[0]
	if errSig.Key != "error.broken" {
		t.Errorf("error signal key = %s, want error.broken", errSig.Key)
	}
	if errSig.Value != "decode failed" {
		t.Errorf("error signal value = %v, want the error message", errSig.Value)
	}
	if errSig.Confidence != 1.0 {
		t.Errorf("error signal confidence = %f, want 1.0", errSig.Confidence)
	}
	if errSig.Source != "broken" {
		t.Errorf("error signal source = %s, want broken", errSig.Source)
	}

	if profile.SignalCount != 5 {
		t.Errorf("SignalCount = %d, want 5 (four outputs plus one error)", profile.SignalCount)
	}
	for _, key := range []string{"w1.a", "w2.a", "w4.a", "w5.a"} {
		if !hasKey(profile, key) {
			t.Errorf("profile missing %s from a healthy wave", key)
		}
	}
}

func TestOrchestratorPanicIsolation(t *testing.T) {
	waves := []domain.Wave{
		&stubWave{name: "panicky", priority: 1, analyze: func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
			panic("index out of range")
		}},
		emitWave("steady", 2, domain.NewSignal("steady.a", true, 0.9, "steady")),
	}

	o := NewOrchestrator(waves, zap.NewNop())
	profile := o.Run(context.Background(), "/tmp/img.png")

	if len(profile.ErrorSignals()) != 1 {
		t.Fatalf("got %d error signals, want 1", len(profile.ErrorSignals()))
	}
	if !hasKey(profile, "error.panicky") {
		t.Error("profile missing error.panicky")
	}
	if !hasKey(profile, "steady.a") {
		t.Error("wave after the panic did not run")
	}
}

func TestOrchestratorContextAccumulation(t *testing.T) {
	first := emitWave("first", 1, domain.NewSignal("first.out", "hello", 0.9, "first"))
	second := &stubWave{name: "second", priority: 2, analyze: func(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
		seen := domain.Value(ac, "first.out", "")
		return []domain.Signal{domain.NewSignal("second.echo", seen, 0.9, "second")}, nil
	}}

	o := NewOrchestrator([]domain.Wave{first, second}, zap.NewNop())
	profile := o.Run(context.Background(), "/tmp/img.png")

	for _, s := range profile.Signals {
		if s.Key == "second.echo" {
			if s.Value != "hello" {
				t.Errorf("second wave saw %v, want hello", s.Value)
			}
			return
		}
	}
	t.Fatal("second.echo not emitted")
}

func TestOrchestratorRecordsDuration(t *testing.T) {
	o := NewOrchestrator([]domain.Wave{emitWave("w", 1)}, zap.NewNop())
	profile := o.Run(context.Background(), "/tmp/img.png")
	if profile.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", profile.Duration)
	}
}

func TestSortWavesIsPure(t *testing.T) {
	a := emitWave("a", 30)
	b := emitWave("b", 10)
	input := []domain.Wave{a, b}

	sorted := SortWaves(input)

	if input[0].Name() != "a" {
		t.Error("SortWaves mutated its input")
	}
	if sorted[0].Name() != "b" || sorted[1].Name() != "a" {
		t.Errorf("sorted order = [%s %s], want [b a]", sorted[0].Name(), sorted[1].Name())
	}
}

func TestWavesNamed(t *testing.T) {
	waves := []domain.Wave{emitWave("color", 20), emitWave("ocr", 70), emitWave("vision", 80)}

	got := WavesNamed(waves, []string{"ocr", "color"})
	if len(got) != 2 {
		t.Fatalf("got %d waves, want 2", len(got))
	}
	// Input order preserved, not the order of names.
	if got[0].Name() != "color" || got[1].Name() != "ocr" {
		t.Errorf("order = [%s %s], want [color ocr]", got[0].Name(), got[1].Name())
	}
}

func TestWavesTagged(t *testing.T) {
	waves := []domain.Wave{
		&stubWave{name: "color", priority: 20, tags: []string{"fast", "local"}},
		&stubWave{name: "vision", priority: 80, tags: []string{"remote"}},
		&stubWave{name: "quality", priority: 30, tags: []string{"fast"}},
	}

	got := WavesTagged(waves, "fast")
	if len(got) != 2 {
		t.Fatalf("got %d waves, want 2", len(got))
	}
	if got[0].Name() != "color" || got[1].Name() != "quality" {
		t.Errorf("order = [%s %s], want [color quality]", got[0].Name(), got[1].Name())
	}

	if got := WavesTagged(waves, "gpu"); len(got) != 0 {
		t.Errorf("got %d waves for unknown tag, want 0", len(got))
	}
}

func hasKey(p *domain.Profile, key string) bool {
	for _, s := range p.Signals {
		if s.Key == key {
			return true
		}
	}
	return false
}
