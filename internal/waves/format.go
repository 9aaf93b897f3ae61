package waves

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/perceptlab/percept/internal/domain"
)

// Orientation labels for geometry.orientation.
const (
	orientLandscape = "landscape"
	orientPortrait  = "portrait"
	orientSquare    = "square"
)

// exifScanBytes is how much of the file head the EXIF sniff reads.
const exifScanBytes = 64 * 1024

// FormatWave sniffs the container: registered format name, pixel geometry,
// animation frames for GIFs, and an EXIF marker scan. It also primes the
// scratch cache with the decoded image so later waves decode only once.
type FormatWave struct{}

func NewFormatWave() *FormatWave { return &FormatWave{} }

func (w *FormatWave) Name() string   { return "format" }
func (w *FormatWave) Priority() int  { return 10 }
func (w *FormatWave) Tags() []string { return []string{"local", "fast"} }

func (w *FormatWave) Analyze(ctx context.Context, imagePath string, ac *domain.AnalysisContext) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := decodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	ac.SetCached(cacheKeyImage, img)
	ac.SetCached(cacheKeyFormat, format)

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	signals := []domain.Signal{
		domain.NewSignal("format.name", format, 1.0, w.Name()),
		domain.NewSignal("geometry.width", width, 1.0, w.Name()),
		domain.NewSignal("geometry.height", height, 1.0, w.Name()),
		domain.NewSignal("geometry.megapixels", float64(width)*float64(height)/1e6, 1.0, w.Name()),
		domain.NewSignal("geometry.orientation", orientation(width, height), 1.0, w.Name()),
	}
	if height > 0 {
		signals = append(signals, domain.NewSignal("geometry.aspect_ratio", float64(width)/float64(height), 1.0, w.Name()))
	}

	animated := false
	frameCount := 1
	if format == "gif" {
		if g, err := loadGIF(ac, imagePath); err == nil {
			frameCount = len(g.Image)
			animated = frameCount > 1
		}
	}
	signals = append(signals,
		domain.NewSignal("format.animated", animated, 1.0, w.Name()),
		domain.NewSignal("format.frame_count", frameCount, 1.0, w.Name()),
	)

	hasEXIF, confidence := sniffEXIF(imagePath, format)
	signals = append(signals, domain.NewSignal("format.has_exif", hasEXIF, confidence, w.Name()))

	return signals, nil
}

func orientation(width, height int) string {
	switch {
	case width > height:
		return orientLandscape
	case height > width:
		return orientPortrait
	default:
		return orientSquare
	}
}

// sniffEXIF scans the head of the file for an EXIF marker. JPEG and WebP
// carry the "Exif\0\0" prefix, PNG uses an eXIf chunk, and TIFF is
// EXIF-shaped by definition. The confidence reflects how conclusive a head
// scan is for the format.
func sniffEXIF(imagePath, format string) (bool, float32) {
	if format == "tiff" {
		return true, 1.0
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return false, 0.5
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, exifScanBytes)
	n, _ := io.ReadFull(f, head)
	head = head[:n]

	if bytes.Contains(head, []byte("Exif\x00\x00")) || bytes.Contains(head, []byte("eXIf")) {
		return true, 1.0
	}
	if format == "jpeg" {
		return false, 0.9
	}
	return false, 0.6
}
