package llm

import (
	"fmt"
	"strings"

	"github.com/perceptlab/percept/internal/domain"
)

// Client is the full model surface the analysis pipeline needs: image
// description, text reading, and summarization.
type Client interface {
	domain.VisionClient
	domain.LLMClient
}

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// defaultModelConfidence stands in when a model omits its own confidence.
const defaultModelConfidence = 0.5

// NewClient creates a vision-capable model client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown vision provider: %s (valid options: openai, anthropic, gemini, mock)", provider)
	}
}

// signalDigest renders signals one per line for inclusion in a prompt.
func signalDigest(signals []domain.Signal) string {
	var sb strings.Builder
	for _, s := range signals {
		sb.WriteString(fmt.Sprintf("%s = %s (%.2f, %s)\n", s.Key, domain.StringValue(s.Value), s.Confidence, s.Source))
	}
	return sb.String()
}

func clampConfidence(c float32) float32 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// normalizeDescription keeps model-reported fields inside their documented
// ranges. A missing confidence becomes the default rather than zero.
func normalizeDescription(d *domain.VisionDescription) {
	d.Caption = strings.TrimSpace(d.Caption)
	d.Classification = strings.ToLower(strings.TrimSpace(d.Classification))
	d.Confidence = clampConfidence(d.Confidence)
	if d.Confidence == 0 {
		d.Confidence = defaultModelConfidence
	}
	if d.FaceCount < 0 {
		d.FaceCount = 0
	}
	if d.SaturationEstimate < 0 {
		d.SaturationEstimate = 0
	} else if d.SaturationEstimate > 1 {
		d.SaturationEstimate = 1
	}
}

func normalizeExtraction(t *domain.TextExtraction) {
	t.Text = strings.TrimSpace(t.Text)
	t.Confidence = clampConfidence(t.Confidence)
	if t.Confidence == 0 && t.Text != "" {
		t.Confidence = defaultModelConfidence
	}
}
