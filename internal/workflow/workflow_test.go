package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/task"
)

// fakeModel is a scripted provider.LanguageModel: every structured-output
// call replies with a canned JSON object, every plain-text call echoes a
// per-call counter so chapter ordering can be asserted.
type fakeModel struct {
	calls int32
}

func (m *fakeModel) Provider() string               { return "fake" }
func (m *fakeModel) ModelID() string                { return "fake-1" }
func (m *fakeModel) SupportsStructuredOutput() bool { return true }
func (m *fakeModel) SupportsImageInput() bool       { return true }
func (m *fakeModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *fakeModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	n := atomic.AddInt32(&m.calls, 1)

	if opts.ResponseFormat != nil && opts.ResponseFormat.Type == "json_schema" {
		schema, _ := opts.ResponseFormat.Schema.(map[string]interface{})
		required, _ := schema["required"].([]interface{})
		return &types.GenerateResult{Text: fakeObjectFor(required)}, nil
	}

	return &types.GenerateResult{Text: fmt.Sprintf("chapter body %d", n)}, nil
}

func fakeObjectFor(required []interface{}) string {
	obj := map[string]interface{}{}
	for _, r := range required {
		key, _ := r.(string)
		switch key {
		case "chapters":
			obj[key] = []interface{}{
				map[string]interface{}{"id": float64(1), "title": "Chapter One", "summary": "s1"},
				map[string]interface{}{"id": float64(2), "title": "Chapter Two", "summary": "s2"},
			}
		default:
			obj[key] = "value-" + key
		}
	}
	raw, _ := json.Marshal(obj)
	return string(raw)
}

type fakeFetcher struct{}

func (fakeFetcher) FetchSubtitleText(ctx context.Context, url string) (string, string, error) {
	return "transcript text for " + url, "My Video Title", nil
}

func (fakeFetcher) UploadFile(ctx context.Context, fileBytes []byte, mimeType string) (string, error) {
	return "vendor-file-ref", nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (c *capturingPublisher) Publish(taskID, eventType string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, eventType)
}

func newTestStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWorkflowRunSucceedsForSubtitleTask(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	pub := &capturingPublisher{}
	reg := task.NewRegistry(pub)

	wf := New(Config{
		Model:    &fakeModel{},
		Fetcher:  fakeFetcher{},
		Store:    store,
		Registry: reg,
	})

	taskID := reg.CreateTask(task.TypeYouTube, task.SubtitlePayload{URL: "https://youtu.be/dQw4w9WgXcQ"}, task.PriorityNormal)
	require.NoError(t, reg.UpdateStatus(taskID, task.StatusRunning))
	snap, _ := reg.GetSnapshot(taskID)

	err := wf.Run(context.Background(), snap)
	require.NoError(t, err)

	final, ok := reg.GetSnapshot(taskID)
	require.True(t, ok)
	assert.Equal(t, task.StatusSucceeded, final.Status)
	assert.Equal(t, 100, final.ProgressPct)
	require.NotNil(t, final.Result)
	assert.NotEmpty(t, final.Result.DocHash)
	assert.Equal(t, 1, final.Result.Version)

	committed, err := store.GetLatest(final.Result.DocHash)
	require.NoError(t, err)
	assert.Contains(t, committed.Body, "Chapter One")
	assert.Contains(t, committed.Body, "Chapter Two")
	assert.Equal(t, "My Video Title", committed.Metadata.TitleEN)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", committed.Metadata.VideoURL)
}

// erroringFetcher fails source acquisition to exercise the failure path.
type erroringFetcher struct{}

func (erroringFetcher) FetchSubtitleText(ctx context.Context, url string) (string, string, error) {
	return "", "", fmt.Errorf("subtitle service unavailable")
}

func (erroringFetcher) UploadFile(ctx context.Context, fileBytes []byte, mimeType string) (string, error) {
	return "", fmt.Errorf("upload unavailable")
}

func TestWorkflowRunReportsErrorOnSourceFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	reg := task.NewRegistry(&capturingPublisher{})
	wf := New(Config{
		Model:    &fakeModel{},
		Fetcher:  erroringFetcher{},
		Store:    store,
		Registry: reg,
	})

	taskID := reg.CreateTask(task.TypeYouTube, task.SubtitlePayload{URL: "https://youtu.be/bad"}, task.PriorityNormal)
	require.NoError(t, reg.UpdateStatus(taskID, task.StatusRunning))
	snap, _ := reg.GetSnapshot(taskID)

	err := wf.Run(context.Background(), snap)
	require.Error(t, err)

	final, ok := reg.GetSnapshot(taskID)
	require.True(t, ok)
	assert.True(t, final.Status.IsTerminal())
	assert.NotEqual(t, task.StatusSucceeded, final.Status)
	require.NotNil(t, final.Error)
}

func TestWorkflowRunSucceedsForFilePayload(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	reg := task.NewRegistry(&capturingPublisher{})
	wf := New(Config{
		Model:    &fakeModel{},
		Fetcher:  fakeFetcher{},
		Store:    store,
		Registry: reg,
	})

	taskID := reg.CreateTask(task.TypeDocument, task.FilePayload{
		Filename: "notes.txt",
		Data:     []byte("plain text source material"),
		MimeType: "text/plain",
		Title:    "Notes",
	}, task.PriorityNormal)
	require.NoError(t, reg.UpdateStatus(taskID, task.StatusRunning))
	snap, _ := reg.GetSnapshot(taskID)

	err := wf.Run(context.Background(), snap)
	require.NoError(t, err)

	final, ok := reg.GetSnapshot(taskID)
	require.True(t, ok)
	assert.Equal(t, task.StatusSucceeded, final.Status)
	require.NotNil(t, final.Result)

	committed, err := store.GetLatest(final.Result.DocHash)
	require.NoError(t, err)
	assert.Equal(t, "Notes", committed.Metadata.TitleEN)
	assert.Equal(t, "文档", committed.Metadata.ContentType)
}
