package resumes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/rasterizer"
	"resumeai-backend/internal/shared/storage/kv"
	"resumeai-backend/internal/shared/storage/object"
)

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int

	saveErr   func(name string) error
	deleteErr func(key string) error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	if f.saveErr != nil {
		if err := f.saveErr(fileName); err != nil {
			return "", 0, "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := path.Join(fmt.Sprintf("%04d", f.seq), fileName)
	f.objects[key] = data
	return key, int64(len(data)), http.DetectContentType(data), nil
}

func (f *fakeBlobs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		if err := f.deleteErr(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("delete %s: %w", key, object.ErrNotFound)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeRecords struct {
	*kv.MemoryStore
	sets atomic.Int32

	setErr   func(n int32, key, value string) error
	delFalse bool
	delHook  func(key string) error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{MemoryStore: kv.NewMemoryStore()}
}

func (f *fakeRecords) Set(ctx context.Context, key, value string) error {
	n := f.sets.Add(1)
	if f.setErr != nil {
		if err := f.setErr(n, key, value); err != nil {
			return err
		}
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *fakeRecords) Del(ctx context.Context, key string) (bool, error) {
	if f.delHook != nil {
		if err := f.delHook(key); err != nil {
			return false, err
		}
	}
	if f.delFalse {
		return false, nil
	}
	return f.MemoryStore.Del(ctx, key)
}

type rasterizeFunc func(ctx context.Context, name string, data []byte) rasterizer.Result

func (f rasterizeFunc) Rasterize(ctx context.Context, name string, data []byte) rasterizer.Result {
	return f(ctx, name, data)
}

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake-image")

func okRasterizer() rasterizeFunc {
	return func(_ context.Context, name string, _ []byte) rasterizer.Result {
		return rasterizer.Result{
			Image:       fakePNG,
			Name:        rasterizer.ImageName(name),
			ContentType: "image/png",
			Width:       2448,
			Height:      3168,
		}
	}
}

type llmCall struct {
	imagePath    string
	instructions string
}

type fakeLLM struct {
	mu    sync.Mutex
	calls []llmCall
	reply func(imagePath string) (*llm.Response, error)
}

func textLLM(text string) *fakeLLM {
	return &fakeLLM{reply: func(string) (*llm.Response, error) {
		return &llm.Response{Message: llm.Message{Role: "assistant", Content: llm.TextContent(text)}}, nil
	}}
}

func (f *fakeLLM) Feedback(ctx context.Context, imagePath, instructions string) (*llm.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, llmCall{imagePath: imagePath, instructions: instructions})
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.reply(imagePath)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const sampleFeedback = `{"overallScore":82,"ATS":{"score":75,"tips":[]}}`

type testEnv struct {
	svc     *Service
	blobs   *fakeBlobs
	records *fakeRecords
	llm     *fakeLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		blobs:   newFakeBlobs(),
		records: newFakeRecords(),
		llm:     textLLM(sampleFeedback),
	}
	env.svc = &Service{
		Blobs:      env.blobs,
		Records:    env.records,
		Rasterizer: okRasterizer(),
		LLM:        env.llm,
	}
	return env
}

func collect(statuses *[]Status) Reporter {
	return func(st Status) { *statuses = append(*statuses, st) }
}

var _ object.ObjectStore = (*fakeBlobs)(nil)
var _ kv.Store = (*fakeRecords)(nil)
