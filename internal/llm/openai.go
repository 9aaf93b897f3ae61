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
	openAIChatURL = "https://api.openai.com/v1/chat/completions"
	chatModel     = "gpt-4o-mini"
)

type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// chat types for the OpenAI API. Message content is a list of parts so a
// single user turn can carry both the instruction text and the image.
type chatImageURL struct {
	URL string `json:"url"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) complete(ctx context.Context, messages []chatMessage, temp float32) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       chatModel,
		Messages:    messages,
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// imageMessage builds a single user turn holding the prompt text and the
// image as a base64 data URL.
func imageMessage(prompt, imagePath string) (chatMessage, error) {
	data, mimeType, err := encodeImage(imagePath)
	if err != nil {
		return chatMessage{}, err
	}
	return chatMessage{
		Role: "user",
		Content: []chatPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &chatImageURL{URL: fmt.Sprintf("data:%s;base64,%s", mimeType, data)}},
		},
	}, nil
}

func textMessage(prompt string) chatMessage {
	return chatMessage{
		Role:    "user",
		Content: []chatPart{{Type: "text", Text: prompt}},
	}
}

func (c *OpenAIClient) Describe(ctx context.Context, imagePath string) (*domain.VisionDescription, error) {
	msg, err := imageMessage(describePrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	result, err := c.complete(ctx, []chatMessage{msg}, 0.2)
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

func (c *OpenAIClient) ExtractText(ctx context.Context, imagePath string) (*domain.TextExtraction, error) {
	msg, err := imageMessage(extractTextPrompt, imagePath)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	result, err := c.complete(ctx, []chatMessage{msg}, 0)
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

func (c *OpenAIClient) Summarize(ctx context.Context, imagePath string, signals []domain.Signal) (string, error) {
	prompt := fmt.Sprintf(summarizePrompt, filepath.Base(imagePath), signalDigest(signals))

	result, err := c.complete(ctx, []chatMessage{textMessage(prompt)}, 0.3)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return result, nil
}
