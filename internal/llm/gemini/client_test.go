package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"resumeai-backend/internal/shared/storage/object"
	"resumeai-backend/internal/shared/storage/object/local"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func saveImage(t *testing.T) (object.ObjectStore, string) {
	t.Helper()
	store := local.New(t.TempDir())
	key, _, _, err := store.Save(context.Background(), "cv.png", strings.NewReader("\x89PNG\r\n\x1a\npixels"))
	require.NoError(t, err)
	return store, key
}

func TestFeedbackSendsInlineImage(t *testing.T) {
	store, key := saveImage(t)
	models := &fakeModels{resp: textResponse(`{"overallScore":`, `55}`)}
	client := newWithGenerator(models, "", store)

	resp, err := client.Feedback(context.Background(), key, "review")
	require.NoError(t, err)
	assert.Equal(t, `{"overallScore":55}`, resp.Message.Content.Text())

	assert.Equal(t, defaultModel, models.model)
	require.Len(t, models.contents, 1)
	parts := models.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, "review", parts[1].Text)
	assert.Equal(t, "application/json", models.config.ResponseMIMEType)
}

func TestFeedbackErrors(t *testing.T) {
	store, key := saveImage(t)

	tests := []struct {
		name   string
		models *fakeModels
		path   string
	}{
		{name: "api error", models: &fakeModels{err: errors.New("quota")}, path: key},
		{name: "empty response", models: &fakeModels{resp: textResponse("  ")}, path: key},
		{name: "nil response", models: &fakeModels{}, path: key},
		{name: "missing image", models: &fakeModels{resp: textResponse("{}")}, path: "missing/cv.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newWithGenerator(tt.models, "gemini-pro", store)
			resp, err := client.Feedback(context.Background(), tt.path, "review")
			assert.Error(t, err)
			assert.Nil(t, resp)
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "", local.New(t.TempDir()))
	assert.Error(t, err)
}
