package llm

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxImageBytes caps what gets inlined into a request body. Provider APIs
// reject payloads much above this anyway.
const maxImageBytes = 20 << 20

// encodeImage reads an image file and returns its base64 payload and MIME type.
func encodeImage(imagePath string) (data, mimeType string, err error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return "", "", fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > maxImageBytes {
		return "", "", fmt.Errorf("image %s is %d bytes, over the %d byte request limit", imagePath, info.Size(), maxImageBytes)
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), imageMIMEType(imagePath, raw), nil
}

// imageMIMEType sniffs the MIME type from the file's magic bytes, falling
// back to the extension for formats the sniffer does not know.
func imageMIMEType(imagePath string, raw []byte) string {
	sniffed := http.DetectContentType(raw)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}

	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
