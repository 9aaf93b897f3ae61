package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/perceptlab/percept/internal/domain"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
)

type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// content types for the Gemini API. Images travel as inline_data parts next
// to the text part.
type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) complete(ctx context.Context, parts []geminiPart) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{
				Parts: parts,
				Role:  "user",
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", geminiBaseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal gemini response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini API returned no content")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

func geminiImageParts(prompt, imagePath string) ([]geminiPart, error) {
	data, mimeType, err := encodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	return []geminiPart{
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: data}},
		{Text: prompt},
	}, nil
}

func (c *GeminiClient) Describe(ctx context.Context, imagePath string) (*domain.VisionDescription, error) {
	parts, err := geminiImageParts(describePrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	result, err := c.complete(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	// Strip markdown fences if present
	result = strings.TrimPrefix(result, "```json")
	result = strings.TrimPrefix(result, "```")
	result = strings.TrimSuffix(result, "```")
	result = strings.TrimSpace(result)

	var desc domain.VisionDescription
	if err := json.Unmarshal([]byte(result), &desc); err != nil {
		return nil, fmt.Errorf("parse description result: %w (raw: %s)", err, result)
	}
	normalizeDescription(&desc)

	return &desc, nil
}

func (c *GeminiClient) ExtractText(ctx context.Context, imagePath string) (*domain.TextExtraction, error) {
	parts, err := geminiImageParts(extractTextPrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	result, err := c.complete(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	// Strip markdown fences if present
	result = strings.TrimPrefix(result, "```json")
	result = strings.TrimPrefix(result, "```")
	result = strings.TrimSuffix(result, "```")
	result = strings.TrimSpace(result)

	var extraction domain.TextExtraction
	if err := json.Unmarshal([]byte(result), &extraction); err != nil {
		return nil, fmt.Errorf("parse text extraction result: %w (raw: %s)", err, result)
	}
	normalizeExtraction(&extraction)

	return &extraction, nil
}

func (c *GeminiClient) Summarize(ctx context.Context, imagePath string, signals []domain.Signal) (string, error) {
	prompt := fmt.Sprintf(summarizePrompt, filepath.Base(imagePath), signalDigest(signals))

	result, err := c.complete(ctx, []geminiPart{{Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return result, nil
}
