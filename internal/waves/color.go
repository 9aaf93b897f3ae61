package waves

import (
	"context"
	"math"
	"sort"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	// grayscaleSpread is the max 8-bit channel spread a pixel can show and
	// still count as gray. JPEG chroma noise sits a little below this on
	// genuinely gray photos.
	grayscaleSpread = 8.0

	// chromaticFraction is the share of non-gray pixels above which the
	// image stops counting as grayscale.
	chromaticFraction = 0.02

	// hueMinSaturation and hueMinValue gate which pixels vote in the hue
	// histogram. Hue is meaningless on washed-out or near-black pixels.
	hueMinSaturation = 0.15
	hueMinValue      = 0.15

	// paletteFraction is the share of samples a hue needs to make the
	// palette.
	paletteFraction = 0.05

	paletteSize = 3
)

// ColorWave reads the decoded image and emits chromatic statistics:
// grayscale flag, mean saturation and brightness, and the dominant hues.
type ColorWave struct{}

func NewColorWave() *ColorWave { return &ColorWave{} }

func (w *ColorWave) Name() string   { return "color" }
func (w *ColorWave) Priority() int  { return 20 }
func (w *ColorWave) Tags() []string { return []string{"local", "fast"} }

func (w *ColorWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ac.HasSignal("format.name") {
		return nil, nil
	}

	img, err := loadImage(ac, imagePath)
	if err != nil {
		return nil, err
	}

	var satSum, brightSum float64
	var samples, chromatic int
	hueVotes := make(map[string]int)

	b := img.Bounds()
	step := sampleStep(b)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl := rgbAt(img, x, y)
			samples++

			spread := math.Max(r, math.Max(g, bl)) - math.Min(r, math.Min(g, bl))
			if spread > grayscaleSpread {
				chromatic++
			}

			h, s, v := rgbToHSV(r, g, bl)
			satSum += s
			brightSum += v
			if s >= hueMinSaturation && v >= hueMinValue {
				hueVotes[hueName(h)]++
			}
		}
	}
	if samples == 0 {
		return nil, nil
	}

	isGrayscale := float64(chromatic)/float64(samples) < chromaticFraction
	dominant, palette := rankHues(hueVotes, samples)
	if dominant == "" {
		dominant = "gray"
		palette = []string{"gray"}
	}

	return []domain.Signal{
		domain.NewSignal("color.is_grayscale", isGrayscale, 0.9, w.Name()),
		domain.NewSignal("color.mean_saturation", satSum/float64(samples), 0.9, w.Name()),
		domain.NewSignal("color.mean_brightness", brightSum/float64(samples), 0.9, w.Name()),
		domain.NewSignal("color.dominant", dominant, 0.7, w.Name()),
		domain.NewSignal("color.palette", palette, 0.6, w.Name()),
	}, nil
}

// hueName buckets a hue angle into a color word.
func hueName(h float64) string {
	switch {
	case h < 15 || h >= 345:
		return "red"
	case h < 45:
		return "orange"
	case h < 75:
		return "yellow"
	case h < 165:
		return "green"
	case h < 195:
		return "cyan"
	case h < 255:
		return "blue"
	case h < 285:
		return "purple"
	default:
		return "magenta"
	}
}

// rankHues returns the most voted hue and the palette of hues that cover at
// least paletteFraction of the samples. Ties break alphabetically so the
// result is stable.
func rankHues(votes map[string]int, samples int) (dominant string, palette []string) {
	if len(votes) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(votes))
	for name := range votes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if votes[names[i]] != votes[names[j]] {
			return votes[names[i]] > votes[names[j]]
		}
		return names[i] < names[j]
	})

	floor := int(paletteFraction * float64(samples))
	for _, name := range names {
		if votes[name] >= floor && len(palette) < paletteSize {
			palette = append(palette, name)
		}
	}
	if len(palette) == 0 {
		palette = names[:1]
	}
	return names[0], palette
}
