package embedding

import (
	"context"
	"hash/fnv"
)

// MockClient is a deterministic embedding client for testing and for
// running without a real provider. Equal texts embed to equal vectors.
type MockClient struct {
	Response []float32
	Err      error

	// Call tracking for assertions
	Calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.Calls = append(c.Calls, text)
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Response != nil {
		return c.Response, nil
	}
	return hashVector(text), nil
}

// hashVector expands an FNV hash of the text into a pseudo-embedding so
// different texts diverge without any model call.
func hashVector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, Dim)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%2000)/1000 - 1
	}
	return v
}
