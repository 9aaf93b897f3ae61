package waves

import (
	"context"
	"math"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// edgeWeight and rowWeight blend the two textiness components when both
	// are available.
	edgeWeight = 0.55
	rowWeight  = 0.45

	// edgeNorm maps edge strength to a full textiness component. Dense text
	// renders far more edge cells than a typical photo.
	edgeNorm = 2.5

	// rowNorm is the text row count that reads as fully text-like.
	rowNorm = 10.0
)

// TextlikeWave estimates how text-bearing the image looks. It reads only
// signals earlier waves produced, never the pixels.
type TextlikeWave struct{}

func NewTextlikeWave() *TextlikeWave { return &TextlikeWave{} }

func (w *TextlikeWave) Name() string   { return "textlike" }
func (w *TextlikeWave) Priority() int  { return 60 }
func (w *TextlikeWave) Tags() []string { return []string{"local", "fast"} }

func (w *TextlikeWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("quality.edge_strength") {
		return nil, nil
	}

	edge := domain.Value(ac, "quality.edge_strength", 0.0)
	edgeComponent := math.Min(1, edge*edgeNorm)

	// Without the layout read the estimate leans on edges alone, at lower
	// confidence.
	if !ac.HasSignal("layout.text_rows") {
		score := edgeWeight * edgeComponent
		return []domain.Signal{
			domain.NewSignal("textlike.score", score, 0.5, w.Name()),
		}, nil
	}

	rows := domain.Value(ac, "layout.text_rows", 0.0)
	rowComponent := math.Min(1, rows/rowNorm)
	if rows < 2 {
		rowComponent = 0
	}

	score := edgeWeight*edgeComponent + rowWeight*rowComponent
	return []domain.Signal{
		domain.NewSignal("textlike.score", score, 0.7, w.Name()),
	}, nil
}
