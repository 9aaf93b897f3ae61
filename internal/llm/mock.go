package llm

import (
	"context"

	"github.com/perceptlab/percept/internal/domain"
)

// MockClient is a configurable vision client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	DescribeResponse    *domain.VisionDescription
	DescribeError       error
	ExtractTextResponse *domain.TextExtraction
	ExtractTextError    error
	SummarizeResponse   string
	SummarizeError      error

	// Call tracking for assertions
	DescribeCalls    []string
	ExtractTextCalls []string
	SummarizeCalls   []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		DescribeResponse: &domain.VisionDescription{
			Caption:            "Mock caption",
			Classification:     "photo",
			FaceCount:          0,
			IsMonochrome:       false,
			SaturationEstimate: 0.5,
			Tags:               []string{"mock"},
			Confidence:         0.8,
		},
		ExtractTextResponse: &domain.TextExtraction{
			Text:       "",
			Confidence: 1.0,
		},
		SummarizeResponse: "Mock summary",
	}
}

func (c *MockClient) Describe(ctx context.Context, imagePath string) (*domain.VisionDescription, error) {
	c.DescribeCalls = append(c.DescribeCalls, imagePath)
	if c.DescribeError != nil {
		return nil, c.DescribeError
	}
	return c.DescribeResponse, nil
}

func (c *MockClient) ExtractText(ctx context.Context, imagePath string) (*domain.TextExtraction, error) {
	c.ExtractTextCalls = append(c.ExtractTextCalls, imagePath)
	if c.ExtractTextError != nil {
		return nil, c.ExtractTextError
	}
	return c.ExtractTextResponse, nil
}

func (c *MockClient) Summarize(ctx context.Context, imagePath string, signals []domain.Signal) (string, error) {
	c.SummarizeCalls = append(c.SummarizeCalls, imagePath)
	if c.SummarizeError != nil {
		return "", c.SummarizeError
	}
	return c.SummarizeResponse, nil
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.DescribeResponse = &domain.VisionDescription{
		Caption:            "Mock caption",
		Classification:     "photo",
		FaceCount:          0,
		IsMonochrome:       false,
		SaturationEstimate: 0.5,
		Tags:               []string{"mock"},
		Confidence:         0.8,
	}
	c.DescribeError = nil
	c.ExtractTextResponse = &domain.TextExtraction{
		Text:       "",
		Confidence: 1.0,
	}
	c.ExtractTextError = nil
	c.SummarizeResponse = "Mock summary"
	c.SummarizeError = nil
	c.DescribeCalls = nil
	c.ExtractTextCalls = nil
	c.SummarizeCalls = nil
}
