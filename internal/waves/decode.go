package waves

import (
	"fmt"
	"image"
	"image/gif"
	"math"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/perceptlab/percept/internal/domain"
)

// Scratch cache keys shared between waves. The format wave fills them;
// later waves read them and fall back to decoding from disk.
const (
	cacheKeyImage  = "decode.image"
	cacheKeyFormat = "decode.format"
	cacheKeyGIF    = "decode.gif"
	cacheKeyLuma   = "decode.luma"
)

// maxAnalyzeDim bounds the sampling grid the pixel heuristics walk. Pixels
// between grid points are skipped, which keeps large photos cheap.
const maxAnalyzeDim = 256

// decodeImage opens and decodes the file, returning the image and the
// registered format name ("png", "jpeg", ...).
func decodeImage(imagePath string) (image.Image, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// loadImage returns the decoded image for the run, preferring the scratch
// cache and decoding from disk when it is empty.
func loadImage(ac *domain.AnalysisContext, imagePath string) (image.Image, error) {
	if v, ok := ac.GetCached(cacheKeyImage); ok {
		if img, ok := v.(image.Image); ok {
			return img, nil
		}
	}

	img, format, err := decodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	ac.SetCached(cacheKeyImage, img)
	ac.SetCached(cacheKeyFormat, format)
	return img, nil
}

// loadGIF returns the fully decoded GIF with all frames, preferring the
// scratch cache.
func loadGIF(ac *domain.AnalysisContext, imagePath string) (*gif.GIF, error) {
	if v, ok := ac.GetCached(cacheKeyGIF); ok {
		if g, ok := v.(*gif.GIF); ok {
			return g, nil
		}
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	ac.SetCached(cacheKeyGIF, g)
	return g, nil
}

// loadLuma returns the sampled luma grid for the run, computing and caching
// it on first use.
func loadLuma(ac *domain.AnalysisContext, imagePath string) ([][]float64, error) {
	if v, ok := ac.GetCached(cacheKeyLuma); ok {
		if plane, ok := v.([][]float64); ok {
			return plane, nil
		}
	}

	img, err := loadImage(ac, imagePath)
	if err != nil {
		return nil, err
	}
	plane := grayPlane(img)
	ac.SetCached(cacheKeyLuma, plane)
	return plane, nil
}

// sampleStep picks a stride that keeps the sampling grid near maxAnalyzeDim
// on the longer side.
func sampleStep(b image.Rectangle) int {
	longer := b.Dx()
	if b.Dy() > longer {
		longer = b.Dy()
	}
	step := longer / maxAnalyzeDim
	if step < 1 {
		step = 1
	}
	return step
}

// grayPlane samples the image down to a luma grid in [0, 1]. The grid is
// what the quality and layout heuristics actually walk.
func grayPlane(img image.Image) [][]float64 {
	b := img.Bounds()
	step := sampleStep(b)

	var plane [][]float64
	for y := b.Min.Y; y < b.Max.Y; y += step {
		var row []float64
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			// Rec. 601 luma on 16-bit channel values.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 65535
			row = append(row, luma)
		}
		plane = append(plane, row)
	}
	return plane
}

// rgbAt returns 8-bit channel values at a pixel.
func rgbAt(img image.Image, x, y int) (r, g, b float64) {
	pr, pg, pb, _ := img.At(x, y).RGBA()
	return float64(pr >> 8), float64(pg >> 8), float64(pb >> 8)
}

// rgbToHSV converts 8-bit RGB to hue in degrees plus saturation and value
// in [0, 1].
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	r, g, b = r/255, g/255, b/255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max > 0 {
		s = d / max
	}
	if d == 0 {
		return 0, s, v
	}

	switch max {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}
