package waves

import (
	"context"
	"image"
	"image/draw"
	"math"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// maxMotionFrames caps how many composited frames the delta walk
	// compares.
	maxMotionFrames = 16

	// motionNorm scales mean frame delta into a score. A delta of 0.2 in
	// luma terms already reads as heavy motion.
	motionNorm = 5.0
)

// MotionWave measures animation by compositing GIF frames and averaging the
// luma delta between consecutive frames. Still images emit nothing.
type MotionWave struct{}

func NewMotionWave() *MotionWave { return &MotionWave{} }

func (w *MotionWave) Name() string   { return "motion" }
func (w *MotionWave) Priority() int  { return 40 }
func (w *MotionWave) Tags() []string { return []string{"local", "fast"} }

func (w *MotionWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("format.animated") {
		return nil, nil
	}
	if !domain.Value(ac, "format.animated", false) {
		return nil, nil
	}
	if domain.Value(ac, "format.frame_count", 2.0) < 2 {
		return nil, nil
	}

	g, err := loadGIF(ac, imagePath)
	if err != nil {
		return nil, err
	}
	if len(g.Image) < 2 {
		return nil, nil
	}

	delta := meanFrameDelta(g.Image)

	return []domain.Signal{
		domain.NewSignal("motion.score", math.Min(1, delta*motionNorm), 0.8, w.Name()),
		domain.NewSignal("motion.frame_delta", delta, 0.8, w.Name()),
	}, nil
}

// meanFrameDelta composites each frame over the previous canvas state and
// averages the luma difference between consecutive composites. Progressive
// drawing approximates GIF disposal well enough for a motion estimate.
func meanFrameDelta(frames []*image.Paletted) float64 {
	step := 1
	if len(frames) > maxMotionFrames {
		step = len(frames) / maxMotionFrames
	}

	bounds := frames[0].Bounds()
	for _, f := range frames {
		bounds = bounds.Union(f.Bounds())
	}
	canvas := image.NewRGBA(bounds)

	var prev [][]float64
	var deltaSum float64
	var comparisons int

	for i := 0; i < len(frames); i += step {
		draw.Draw(canvas, frames[i].Bounds(), frames[i], frames[i].Bounds().Min, draw.Over)
		plane := grayPlane(canvas)
		if prev != nil {
			deltaSum += planeDelta(prev, plane)
			comparisons++
		}
		prev = plane
	}
	if comparisons == 0 {
		return 0
	}
	return deltaSum / float64(comparisons)
}

// planeDelta is the mean absolute luma difference between two grids of the
// same shape.
func planeDelta(a, b [][]float64) float64 {
	var sum float64
	var n int
	for y := range a {
		if y >= len(b) {
			break
		}
		for x := range a[y] {
			if x >= len(b[y]) {
				break
			}
			sum += math.Abs(a[y][x] - b[y][x])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
