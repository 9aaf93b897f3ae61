package waves

import (
	"testing"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/llm"
)

func TestSynthesisWaveSummarizes(t *testing.T) {
	client := llm.NewMockClient()
	client.SummarizeResponse = "Most likely a scanned receipt with faded text."

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("format.name", "jpeg", 1.0, "format"))
	ac.AddSignal(domain.NewSignal("vision.caption", "a receipt", 0.8, "vision"))

	signals := runWave(t, ac, NewSynthesisWave(client, zap.NewNop()), "receipt.jpg")

	if got := signalValue(t, signals, "synthesis.summary"); got != client.SummarizeResponse {
		t.Errorf("synthesis.summary = %v", got)
	}
	if len(client.SummarizeCalls) != 1 {
		t.Fatalf("SummarizeCalls = %v, want one call", client.SummarizeCalls)
	}
}

func TestSynthesisWaveWithoutCaption(t *testing.T) {
	client := llm.NewMockClient()

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("format.name", "png", 1.0, "format"))

	signals := runWave(t, ac, NewSynthesisWave(client, zap.NewNop()), "photo.png")

	if len(signals) != 0 {
		t.Errorf("got %d signals without vision.caption, want 0", len(signals))
	}
	if len(client.SummarizeCalls) != 0 {
		t.Error("remote call made without a caption")
	}
}

func TestSynthesisWaveEmptySummary(t *testing.T) {
	client := llm.NewMockClient()
	client.SummarizeResponse = "   "

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("vision.caption", "a receipt", 0.8, "vision"))

	signals := runWave(t, ac, NewSynthesisWave(client, zap.NewNop()), "receipt.jpg")
	if len(signals) != 0 {
		t.Errorf("got %d signals for an empty summary, want 0", len(signals))
	}
}
