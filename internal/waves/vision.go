package waves

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
)

// VisionWave asks the vision model to describe the image and fans the
// structured description out into signals. It runs after the local color
// and quality passes so the detector can cross-check the model against
// measured pixels.
type VisionWave struct {
	client domain.VisionClient
	logger *zap.Logger
}

func NewVisionWave(client domain.VisionClient, logger *zap.Logger) *VisionWave {
	return &VisionWave{
		client: client,
		logger: logger,
	}
}

func (w *VisionWave) Name() string   { return "vision" }
func (w *VisionWave) Priority() int  { return 80 }
func (w *VisionWave) Tags() []string { return []string{"remote"} }

func (w *VisionWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("format.name") {
		return nil, nil
	}
	if w.client == nil {
		return nil, errors.New("no vision client configured")
	}

	desc, err := w.client.Describe(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if ac.HasSignal("color.mean_saturation") {
		w.logger.Debug("vision description received",
			zap.String("image", imagePath),
			zap.Float64("model_saturation", desc.SaturationEstimate),
			zap.Float64("measured_saturation", domain.Value(ac, "color.mean_saturation", 0.0)))
	}

	signals := []domain.Signal{
		domain.NewSignal("vision.caption", desc.Caption, desc.Confidence, w.Name()),
		domain.NewSignal("vision.classification", desc.Classification, desc.Confidence, w.Name()),
		domain.NewSignal("vision.face_count", desc.FaceCount, desc.Confidence, w.Name()),
		domain.NewSignal("vision.is_monochrome", desc.IsMonochrome, desc.Confidence, w.Name()),
		domain.NewSignal("vision.saturation_estimate", desc.SaturationEstimate, desc.Confidence, w.Name()),
	}
	if len(desc.Tags) > 0 {
		signals = append(signals, domain.NewSignal("vision.tags", desc.Tags, desc.Confidence, w.Name()))
	}
	return signals, nil
}
