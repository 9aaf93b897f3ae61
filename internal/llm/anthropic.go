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
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicModel       = "claude-3-5-sonnet-20241022"
	anthropicVersion     = "2023-06-01"
)

type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// message types for the Anthropic API. Content is a list of blocks so a
// single user turn can carry the image alongside the instruction text.
type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) complete(ctx context.Context, messages []anthropicMessage, maxTokens int) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal anthropic response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", result.Error.Message)
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic API returned no content")
	}

	return strings.TrimSpace(result.Content[0].Text), nil
}

// anthropicImageMessage builds a user turn with the image block first, the
// way the messages API prefers it.
func anthropicImageMessage(prompt, imagePath string) (anthropicMessage, error) {
	data, mimeType, err := encodeImage(imagePath)
	if err != nil {
		return anthropicMessage{}, err
	}
	return anthropicMessage{
		Role: "user",
		Content: []anthropicContent{
			{Type: "image", Source: &anthropicImageSource{Type: "base64", MediaType: mimeType, Data: data}},
			{Type: "text", Text: prompt},
		},
	}, nil
}

func anthropicTextMessage(prompt string) anthropicMessage {
	return anthropicMessage{
		Role:    "user",
		Content: []anthropicContent{{Type: "text", Text: prompt}},
	}
}

func (c *AnthropicClient) Describe(ctx context.Context, imagePath string) (*domain.VisionDescription, error) {
	msg, err := anthropicImageMessage(describePrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	result, err := c.complete(ctx, []anthropicMessage{msg}, 1024)
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

func (c *AnthropicClient) ExtractText(ctx context.Context, imagePath string) (*domain.TextExtraction, error) {
	msg, err := anthropicImageMessage(extractTextPrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	result, err := c.complete(ctx, []anthropicMessage{msg}, 2048)
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

func (c *AnthropicClient) Summarize(ctx context.Context, imagePath string, signals []domain.Signal) (string, error) {
	prompt := fmt.Sprintf(summarizePrompt, filepath.Base(imagePath), signalDigest(signals))

	result, err := c.complete(ctx, []anthropicMessage{anthropicTextMessage(prompt)}, 512)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return result, nil
}
