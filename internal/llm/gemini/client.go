// Package gemini implements llm.Client on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/shared/storage/object"
	"resumeai-backend/internal/shared/telemetry"
)

const (
	defaultModel  = "gemini-2.5-flash"
	maxImageBytes = 20 << 20
)

// generator is the subset of genai.Models used by Client.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends resume images to Gemini.
type Client struct {
	models    generator
	modelName string
	images    object.ObjectStore
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string, images object.ObjectStore) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if images == nil {
		return nil, errors.New("object store is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newWithGenerator(client.Models, model, images), nil
}

func newWithGenerator(models generator, model string, images object.ObjectStore) *Client {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{models: models, modelName: model, images: images}
}

// Feedback sends the stored image inline with the instructions.
func (c *Client) Feedback(ctx context.Context, imagePath, instructions string) (*llm.Response, error) {
	data, err := object.ReadAll(ctx, c.images, imagePath, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", imagePath, err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: http.DetectContentType(data), Data: data}},
			{Text: instructions},
		},
	}}
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	resp, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return nil, errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			builder.WriteString(part.Text)
		}
		// Only the first usable candidate is read.
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	fields := map[string]any{"provider": "gemini", "model": c.modelName}
	if meta := resp.UsageMetadata; meta != nil {
		fields["prompt_tokens"] = meta.PromptTokenCount
		fields["completion_tokens"] = meta.CandidatesTokenCount
		fields["total_tokens"] = meta.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)

	return &llm.Response{Message: llm.Message{Role: "assistant", Content: llm.TextContent(output)}}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

var _ llm.Client = (*Client)(nil)
