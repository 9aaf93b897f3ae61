package waves

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/perceptlab/percept/internal/domain"
)

// flatImage fills a frame with a single color.
func flatImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// checkerboard alternates black and white cells.
func checkerboard(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

// grayGradient ramps luma horizontally with equal RGB channels.
func grayGradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func palettedFrame(w, h int, c color.Color) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Black, color.White, c})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp image: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func writeGIF(t *testing.T, frames ...*image.Paletted) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp image: %v", err)
	}
	defer func() { _ = f.Close() }()

	g := &gif.GIF{}
	for _, frame := range frames {
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return path
}

// runWave executes a wave and folds its signals into the context the way
// the orchestrator would.
func runWave(t *testing.T, ac *domain.AnalysisContext, w domain.Wave, path string) []domain.Signal {
	t.Helper()
	signals, err := w.Analyze(context.Background(), path, ac)
	if err != nil {
		t.Fatalf("%s wave failed: %v", w.Name(), err)
	}
	ac.AddSignals(signals)
	return signals
}

// signalValue pulls one signal's value out of a batch, failing the test
// when the key is missing.
func signalValue(t *testing.T, signals []domain.Signal, key string) any {
	t.Helper()
	for _, s := range signals {
		if s.Key == key {
			return s.Value
		}
	}
	t.Fatalf("no signal %q in %v", key, signalKeys(signals))
	return nil
}

func signalKeys(signals []domain.Signal) []string {
	keys := make([]string, 0, len(signals))
	for _, s := range signals {
		keys = append(keys, s.Key)
	}
	return keys
}

func hasSignalKey(signals []domain.Signal, key string) bool {
	for _, s := range signals {
		if s.Key == key {
			return true
		}
	}
	return false
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 120, 1, 1},
		{"blue", 0, 0, 255, 240, 1, 1},
		{"white", 255, 255, 255, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 128, 128, 128, 0, 0, 128.0 / 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.h) > 0.5 {
				t.Errorf("hue = %.2f, want %.2f", h, tt.h)
			}
			if math.Abs(s-tt.s) > 0.01 {
				t.Errorf("saturation = %.3f, want %.3f", s, tt.s)
			}
			if math.Abs(v-tt.v) > 0.01 {
				t.Errorf("value = %.3f, want %.3f", v, tt.v)
			}
		})
	}
}

func TestSampleStep(t *testing.T) {
	if got := sampleStep(image.Rect(0, 0, 64, 64)); got != 1 {
		t.Errorf("step for 64px = %d, want 1", got)
	}
	if got := sampleStep(image.Rect(0, 0, 1024, 512)); got != 4 {
		t.Errorf("step for 1024px = %d, want 4", got)
	}
}

func TestLoadImageUsesCache(t *testing.T) {
	path := writePNG(t, flatImage(16, 16, color.White))
	ac := domain.NewAnalysisContext()

	if _, err := loadImage(ac, path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove temp image: %v", err)
	}
	if _, err := loadImage(ac, path); err != nil {
		t.Errorf("load after file removal = %v, want cache hit", err)
	}
}
