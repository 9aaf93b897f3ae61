package waves

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/llm"
)

func TestOCRWaveExtractsText(t *testing.T) {
	client := llm.NewMockClient()
	client.ExtractTextResponse = &domain.TextExtraction{Text: "exit stage left", Confidence: 0.9}

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("textlike.score", 0.8, 0.7, "textlike"))

	signals := runWave(t, ac, NewOCRWave(client, zap.NewNop()), "sign.png")

	if got := signalValue(t, signals, "ocr.text"); got != "exit stage left" {
		t.Errorf("ocr.text = %v, want extracted text", got)
	}
	conf, _ := domain.NumericValue(signalValue(t, signals, "ocr.confidence"))
	if conf != 0.9 {
		t.Errorf("ocr.confidence value = %v, want 0.9", conf)
	}
	if got := signalValue(t, signals, "ocr.word_count"); got != 3 {
		t.Errorf("ocr.word_count = %v, want 3", got)
	}
	if len(client.ExtractTextCalls) != 1 || client.ExtractTextCalls[0] != "sign.png" {
		t.Errorf("ExtractTextCalls = %v, want one call with sign.png", client.ExtractTextCalls)
	}
}

func TestOCRWaveSkipsNonTextImages(t *testing.T) {
	client := llm.NewMockClient()

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("textlike.score", 0.05, 0.7, "textlike"))

	signals := runWave(t, ac, NewOCRWave(client, zap.NewNop()), "photo.jpg")

	if len(signals) != 0 {
		t.Errorf("got %d signals below the textlike floor, want 0", len(signals))
	}
	if len(client.ExtractTextCalls) != 0 {
		t.Errorf("remote call made for a non-text image: %v", client.ExtractTextCalls)
	}
}

func TestOCRWaveSkipsBlankFrames(t *testing.T) {
	client := llm.NewMockClient()

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("textlike.score", 0.5, 0.7, "textlike"))
	ac.AddSignal(domain.NewSignal("layout.whitespace_ratio", 1.0, 0.6, "layout"))

	signals := runWave(t, ac, NewOCRWave(client, zap.NewNop()), "blank.png")

	if len(signals) != 0 {
		t.Errorf("got %d signals for a blank frame, want 0", len(signals))
	}
	if len(client.ExtractTextCalls) != 0 {
		t.Error("remote call made for a blank frame")
	}
}

func TestOCRWaveWithoutTextlikeSignal(t *testing.T) {
	client := llm.NewMockClient()
	ac := domain.NewAnalysisContext()

	signals := runWave(t, ac, NewOCRWave(client, zap.NewNop()), "photo.jpg")
	if len(signals) != 0 {
		t.Errorf("got %d signals without textlike.score, want 0", len(signals))
	}
}

func TestOCRWavePropagatesClientError(t *testing.T) {
	client := llm.NewMockClient()
	client.ExtractTextError = errors.New("rate limited")

	ac := domain.NewAnalysisContext()
	ac.AddSignal(domain.NewSignal("textlike.score", 0.8, 0.7, "textlike"))

	_, err := NewOCRWave(client, zap.NewNop()).Analyze(context.Background(), "sign.png", ac)
	if err == nil || err.Error() != "rate limited" {
		t.Errorf("err = %v, want rate limited", err)
	}
}
