package waves

import (
	"context"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// inkCut is how far from the mean luma a cell must sit to count as ink.
	inkCut = 0.15

	// bandInkMin and bandInkMax bound the ink fraction a row or column can
	// carry and still look like text. Nearly solid runs are blocks, not
	// text.
	bandInkMin = 0.05
	bandInkMax = 0.9
)

// LayoutWave projects ink onto the row and column axes and reads document
// structure out of the profiles: text row bands, column bands, and how much
// of the frame is whitespace.
type LayoutWave struct{}

func NewLayoutWave() *LayoutWave { return &LayoutWave{} }

func (w *LayoutWave) Name() string   { return "layout" }
func (w *LayoutWave) Priority() int  { return 50 }
func (w *LayoutWave) Tags() []string { return []string{"local", "fast"} }

func (w *LayoutWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
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
	if len(plane) < 4 || len(plane[0]) < 4 {
		return nil, nil
	}

	rows, cols, whitespace := projectInk(plane)
	textRows := countBands(rows)
	columns := countBands(cols)

	// Grayscale frames are usually documents or screenshots, where the
	// projection read is more trustworthy.
	var confidence float32 = 0.6
	if domain.Value(ac, "color.is_grayscale", false) {
		confidence = 0.7
	}

	return []domain.Signal{
		domain.NewSignal("layout.text_rows", textRows, confidence, w.Name()),
		domain.NewSignal("layout.columns", columns, confidence, w.Name()),
		domain.NewSignal("layout.whitespace_ratio", whitespace, confidence, w.Name()),
	}, nil
}

// projectInk classifies each cell as ink or background relative to the mean
// luma, then reduces the grid to per-row and per-column ink fractions.
func projectInk(plane [][]float64) (rows, cols []float64, whitespace float64) {
	var lumaSum float64
	var n int
	for _, row := range plane {
		for _, v := range row {
			lumaSum += v
			n++
		}
	}
	mean := lumaSum / float64(n)

	// Dark backgrounds flip the polarity: ink is whatever stands out.
	isInk := func(v float64) bool {
		if mean >= 0.5 {
			return v < mean-inkCut
		}
		return v > mean+inkCut
	}

	rows = make([]float64, len(plane))
	cols = make([]float64, len(plane[0]))
	inkTotal := 0

	for y, row := range plane {
		for x, v := range row {
			if x >= len(cols) {
				break
			}
			if isInk(v) {
				rows[y]++
				cols[x]++
				inkTotal++
			}
		}
	}
	for y := range rows {
		rows[y] /= float64(len(plane[y]))
	}
	for x := range cols {
		cols[x] /= float64(len(plane))
	}
	return rows, cols, 1 - float64(inkTotal)/float64(n)
}

// countBands counts maximal runs of profile entries whose ink fraction sits
// inside the text band range, separated by near-empty entries. Solid runs
// break bands the same way empty ones do.
func countBands(profile []float64) int {
	bands := 0
	inBand := false
	for _, ink := range profile {
		switch {
		case ink < bandInkMin:
			inBand = false
		case ink <= bandInkMax:
			if !inBand {
				bands++
			}
			inBand = true
		default:
			inBand = false
		}
	}
	return bands
}
