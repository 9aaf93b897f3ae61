package waves

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// ocrMinTextlike is the textlike score below which the remote call is
	// not worth making.
	ocrMinTextlike = 0.2

	// ocrMaxWhitespace skips frames the layout wave read as essentially
	// blank.
	ocrMaxWhitespace = 0.98
)

// OCRWave reads visible text out of the image through the vision client.
// It only fires when the local passes found something text-shaped.
type OCRWave struct {
	client domain.VisionClient
	logger *zap.Logger
}

func NewOCRWave(client domain.VisionClient, logger *zap.Logger) *OCRWave {
	return &OCRWave{
		client: client,
		logger: logger,
	}
}

func (w *OCRWave) Name() string   { return "ocr" }
func (w *OCRWave) Priority() int  { return 70 }
func (w *OCRWave) Tags() []string { return []string{"remote"} }

func (w *OCRWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("textlike.score") {
		return nil, nil
	}

	score := domain.Value(ac, "textlike.score", 0.0)
	if score < ocrMinTextlike {
		w.logger.Debug("skipping ocr, image does not look text-bearing",
			zap.String("image", imagePath),
			zap.Float64("textlike_score", score))
		return nil, nil
	}
	if domain.Value(ac, "layout.whitespace_ratio", 0.0) > ocrMaxWhitespace {
		w.logger.Debug("skipping ocr, frame is blank", zap.String("image", imagePath))
		return nil, nil
	}
	if w.client == nil {
		return nil, errors.New("no vision client configured")
	}

	extraction, err := w.client.ExtractText(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	return []domain.Signal{
		domain.NewSignal("ocr.text", extraction.Text, extraction.Confidence, w.Name()),
		domain.NewSignal("ocr.confidence", float64(extraction.Confidence), 1.0, w.Name()),
		domain.NewSignal("ocr.word_count", extraction.WordCount(), extraction.Confidence, w.Name()),
	}, nil
}
