package waves

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
)

// SynthesisWave folds every accumulated signal into a prose summary via the
// LLM client. It runs last so the digest covers the whole run.
type SynthesisWave struct {
	client domain.LLMClient
	logger *zap.Logger
}

func NewSynthesisWave(client domain.LLMClient, logger *zap.Logger) *SynthesisWave {
	return &SynthesisWave{
		client: client,
		logger: logger,
	}
}

func (w *SynthesisWave) Name() string   { return "synthesis" }
func (w *SynthesisWave) Priority() int  { return 90 }
func (w *SynthesisWave) Tags() []string { return []string{"remote"} }

func (w *SynthesisWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("vision.caption") {
		return nil, nil
	}
	if w.client == nil {
		return nil, errors.New("no llm client configured")
	}

	signals := ac.AllSignals()
	summary, err := w.client.Summarize(ctx, imagePath, signals)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		w.logger.Debug("synthesis produced an empty summary", zap.String("image", imagePath))
		return nil, nil
	}

	return []domain.Signal{
		domain.NewSignal("synthesis.summary", summary, 0.8, w.Name()),
	}, nil
}
