package domain

import (
	"context"

	"github.com/google/uuid"
)

type ProfileWithScore struct {
	Profile
	Score float32 `json:"score"`
}

type ProfileStore interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context, limit int) ([]Profile, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]ProfileWithScore, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FindingStore interface {
	CreateBatch(ctx context.Context, findings []Finding) error
	GetByProfileID(ctx context.Context, profileID uuid.UUID) ([]Finding, error)
	ListBySeverity(ctx context.Context, severity Severity, limit int) ([]Finding, error)
}

// VisionDescription is the structured result of a vision model describing
// an image.
type VisionDescription struct {
	Caption            string   `json:"caption"`
	Classification     string   `json:"classification"`
	FaceCount          int      `json:"face_count"`
	IsMonochrome       bool     `json:"is_monochrome"`
	SaturationEstimate float64  `json:"saturation_estimate"`
	Tags               []string `json:"tags,omitempty"`
	Confidence         float32  `json:"confidence"`
}

// TextExtraction is the structured result of reading visible text out of
// an image.
type TextExtraction struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

func (t TextExtraction) WordCount() int {
	if t.Text == "" {
		return 0
	}
	n := 0
	inWord := false
	for _, r := range t.Text {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			inWord = false
		case !inWord:
			inWord = true
			n++
		}
	}
	return n
}

type VisionClient interface {
	Describe(ctx context.Context, imagePath string) (*VisionDescription, error)
	ExtractText(ctx context.Context, imagePath string) (*TextExtraction, error)
}

type LLMClient interface {
	Summarize(ctx context.Context, imagePath string, signals []Signal) (string, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
