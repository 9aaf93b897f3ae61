package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/perceptlab/percept/internal/domain"
	"go.uber.org/zap"
)

// Orchestrator runs waves sequentially against one image, feeding each wave
// the accumulated context. A failing wave never aborts the run: its error
// becomes an error.<wave> signal and the next wave still runs.
type Orchestrator struct {
	waves  []domain.Wave
	logger *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given waves, ordered by
// ascending priority.
func NewOrchestrator(waves []domain.Wave, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		waves:  SortWaves(waves),
		logger: logger,
	}
}

// Waves returns the orchestrator's wave set in execution order.
func (o *Orchestrator) Waves() []domain.Wave {
	out := make([]domain.Wave, len(o.waves))
	copy(out, o.waves)
	return out
}

// Run executes every configured wave against the image.
func (o *Orchestrator) Run(ctx context.Context, imagePath string) *domain.Profile {
	return o.RunWaves(ctx, imagePath, o.waves)
}

// RunWaves executes the given waves, in the order given, against the image.
// Cancellation is advisory: ctx is handed to every wave, but a wave that
// ignores it is awaited to completion.
func (o *Orchestrator) RunWaves(ctx context.Context, imagePath string, waves []domain.Wave) *domain.Profile {
	start := time.Now()
	profile := domain.NewProfile(imagePath)
	ac := domain.NewAnalysisContext()
	defer ac.ClearCache()

	for _, w := range waves {
		signals, err := o.runWave(ctx, w, imagePath, ac)
		if err != nil {
			o.logger.Warn("wave failed",
				zap.String("wave", w.Name()),
				zap.String("image", imagePath),
				zap.Error(err))
			signals = []domain.Signal{errorSignal(w.Name(), err)}
		}
		ac.AddSignals(signals)
		profile.AddSignals(signals)
	}

	profile.Duration = time.Since(start)
	o.logger.Info("analysis complete",
		zap.String("image", imagePath),
		zap.Int("waves", len(waves)),
		zap.Int("signals", profile.SignalCount),
		zap.Duration("duration", profile.Duration))
	return profile
}

func (o *Orchestrator) runWave(ctx context.Context, w domain.Wave, imagePath string, ac *domain.AnalysisContext) (signals []domain.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signals = nil
			err = fmt.Errorf("wave panicked: %v", r)
		}
	}()

	o.logger.Debug("running wave",
		zap.String("wave", w.Name()),
		zap.Int("priority", w.Priority()))
	return w.Analyze(ctx, imagePath, ac)
}

func errorSignal(waveName string, err error) domain.Signal {
	return domain.NewSignal("error."+waveName, err.Error(), 1.0, waveName, domain.TagError)
}

// SortWaves returns a copy of waves ordered by ascending priority. Equal
// priorities keep their relative order.
func SortWaves(waves []domain.Wave) []domain.Wave {
	out := make([]domain.Wave, len(waves))
	copy(out, waves)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// WavesNamed returns the waves whose name appears in names, preserving the
// input order.
func WavesNamed(waves []domain.Wave, names []string) []domain.Wave {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var out []domain.Wave
	for _, w := range waves {
		if _, ok := wanted[w.Name()]; ok {
			out = append(out, w)
		}
	}
	return out
}

// WavesTagged returns the waves carrying the tag, preserving the input
// order.
func WavesTagged(waves []domain.Wave, tag string) []domain.Wave {
	var out []domain.Wave
	for _, w := range waves {
		for _, t := range w.Tags() {
			if t == tag {
				out = append(out, w)
				break
			}
		}
	}
	return out
}
