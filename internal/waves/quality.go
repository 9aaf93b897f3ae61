package waves

import (
	"context"
	"math"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// sharpnessNorm is the Laplacian variance that maps to full sharpness.
	// Variances above it clamp; a flat frame scores zero.
	sharpnessNorm = 0.005

	// edgeMagnitude is the Sobel gradient magnitude a grid cell must exceed
	// to count as an edge.
	edgeMagnitude = 0.5

	// flatRange is the max local luma range for a neighborhood to count as
	// flat when measuring noise.
	flatRange = 0.1

	// noiseNorm scales mean flat-region deviation into [0, 1].
	noiseNorm = 10.0
)

// QualityWave walks the luma grid and emits sharpness and texture
// statistics: blur, edge strength, noise, and contrast.
type QualityWave struct{}

func NewQualityWave() *QualityWave { return &QualityWave{} }

func (w *QualityWave) Name() string   { return "quality" }
func (w *QualityWave) Priority() int  { return 30 }
func (w *QualityWave) Tags() []string { return []string{"local", "fast"} }

func (w *QualityWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("format.name") {
		return nil, nil
	}

	plane, err := loadLuma(ac, imagePath)
	if err != nil {
		return nil, err
	}
	if len(plane) < 3 || len(plane[0]) < 3 {
		return nil, nil
	}

	blur := blurScore(plane)
	edges := edgeStrength(plane)
	noise := noiseLevel(plane)
	contrast := contrastScore(plane)

	return []domain.Signal{
		domain.NewSignal("quality.blur_score", blur, 0.7, w.Name()),
		domain.NewSignal("quality.edge_strength", edges, 0.8, w.Name()),
		domain.NewSignal("quality.noise_level", noise, 0.7, w.Name()),
		domain.NewSignal("quality.contrast", contrast, 0.8, w.Name()),
	}, nil
}

// blurScore inverts the normalized variance of the 4-neighbor Laplacian.
// Sharp detail produces high-variance responses, so low variance reads as
// blur.
func blurScore(plane [][]float64) float64 {
	var sum, sumSq float64
	var n int
	for y := 1; y < len(plane)-1; y++ {
		for x := 1; x < len(plane[y])-1; x++ {
			lap := 4*plane[y][x] - plane[y-1][x] - plane[y+1][x] - plane[y][x-1] - plane[y][x+1]
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 1
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	sharpness := math.Min(1, variance/sharpnessNorm)
	return 1 - sharpness
}

// edgeStrength is the fraction of grid cells whose Sobel gradient magnitude
// crosses the edge threshold.
func edgeStrength(plane [][]float64) float64 {
	var edges, n int
	for y := 1; y < len(plane)-1; y++ {
		for x := 1; x < len(plane[y])-1; x++ {
			gx := plane[y-1][x+1] + 2*plane[y][x+1] + plane[y+1][x+1] -
				plane[y-1][x-1] - 2*plane[y][x-1] - plane[y+1][x-1]
			gy := plane[y+1][x-1] + 2*plane[y+1][x] + plane[y+1][x+1] -
				plane[y-1][x-1] - 2*plane[y-1][x] - plane[y-1][x+1]
			if math.Sqrt(gx*gx+gy*gy) > edgeMagnitude {
				edges++
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(edges) / float64(n)
}

// noiseLevel is the mean deviation from the local 3x3 mean, measured only
// in flat neighborhoods where deviation cannot be explained by real detail.
func noiseLevel(plane [][]float64) float64 {
	var devSum float64
	var flat int
	for y := 1; y < len(plane)-1; y++ {
		for x := 1; x < len(plane[y])-1; x++ {
			min, max, sum := plane[y][x], plane[y][x], 0.0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := plane[y+dy][x+dx]
					sum += v
					if v < min {
						min = v
					}
					if v > max {
						max = v
					}
				}
			}
			if max-min >= flatRange {
				continue
			}
			flat++
			devSum += math.Abs(plane[y][x] - sum/9)
		}
	}
	if flat == 0 {
		return 0
	}
	return math.Min(1, devSum/float64(flat)*noiseNorm)
}

// contrastScore scales the luma standard deviation so a half-black,
// half-white frame scores 1.
func contrastScore(plane [][]float64) float64 {
	var sum, sumSq float64
	var n int
	for _, row := range plane {
		for _, v := range row {
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Min(1, 2*math.Sqrt(variance))
}
