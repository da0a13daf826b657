package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai-backend/internal/bootstrap"
	"resumeai-backend/internal/documents"
	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/rasterizer"
	"resumeai-backend/internal/resumes"
	"resumeai-backend/internal/shared/storage/kv"
	localstore "resumeai-backend/internal/shared/storage/object/local"
)

type stubRasterizer struct{}

func (stubRasterizer) Rasterize(_ context.Context, name string, _ []byte) rasterizer.Result {
	return rasterizer.Result{Image: []byte("\x89PNG\r\n\x1a\nstub"), Name: rasterizer.ImageName(name), ContentType: "image/png"}
}

type stubLLM struct{}

func (stubLLM) Feedback(context.Context, string, string) (*llm.Response, error) {
	return &llm.Response{Message: llm.Message{Content: llm.TextContent(`{"overallScore":70}`)}}, nil
}

// sharedStore survives the Close each command performs.
type sharedStore struct{ kv.Store }

func (sharedStore) Close() error { return nil }

func useTestApp(t *testing.T) *resumes.Service {
	t.Helper()
	records := sharedStore{kv.NewMemoryStore()}
	svc := &resumes.Service{
		Blobs:      localstore.New(t.TempDir()),
		Records:    records,
		Rasterizer: stubRasterizer{},
		LLM:        stubLLM{},
	}
	orig := buildApp
	buildApp = func(context.Context) (*bootstrap.App, error) {
		return &bootstrap.App{Records: records, Blobs: svc.Blobs, Resumes: svc}, nil
	}
	t.Cleanup(func() { buildApp = orig })
	return svc
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	useTestApp(t)
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, documents.BlankPDF(1), 0o644))

	out, err := run(t, "ingest", path, "--company", "Acme", "--title", "Engineer")
	require.NoError(t, err)
	assert.Contains(t, out, "[uploading] Uploading the file...")
	assert.Contains(t, out, "[complete] Analysis complete")
	assert.Contains(t, out, `"companyName": "Acme"`)
	assert.NotContains(t, out, "only page 1 is analyzed")
}

func TestIngestCommandNotesMultiPage(t *testing.T) {
	useTestApp(t)
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, documents.BlankPDF(3), 0o644))

	out, err := run(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "note: 3 pages, only page 1 is analyzed")
}

func TestIngestCommandRejectsNonPDF(t *testing.T) {
	useTestApp(t)
	path := filepath.Join(t.TempDir(), "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := run(t, "ingest", path)
	assert.ErrorIs(t, err, documents.ErrNotPDF)
}

func TestRecordCommands(t *testing.T) {
	svc := useTestApp(t)
	rec, err := svc.Ingest(context.Background(), resumes.IngestInput{FileName: "cv.pdf", Data: documents.BlankPDF(1), JobTitle: "Engineer"}, nil)
	require.NoError(t, err)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, rec.ID)
	assert.Contains(t, out, "Engineer")
	assert.Contains(t, out, "complete")

	out, err = run(t, "get", rec.ID)
	require.NoError(t, err)
	var got resumes.Record
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, rec.ID, got.ID)

	out, err = run(t, "retire", rec.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+rec.ID)

	_, err = run(t, "get", rec.ID)
	assert.ErrorIs(t, err, resumes.ErrNotFound)
}

func TestWipeRequiresConfirmation(t *testing.T) {
	svc := useTestApp(t)
	_, err := svc.Ingest(context.Background(), resumes.IngestInput{FileName: "cv.pdf", Data: documents.BlankPDF(1)}, nil)
	require.NoError(t, err)

	_, err = run(t, "wipe")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, "wipe", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 2 file(s)")

	recs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}
