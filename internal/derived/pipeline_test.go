package derived

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/events"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
)

type fakeVisualModel struct{}

func (fakeVisualModel) Provider() string               { return "fake" }
func (fakeVisualModel) ModelID() string                { return "fake-visual" }
func (fakeVisualModel) SupportsStructuredOutput() bool { return false }
func (fakeVisualModel) SupportsImageInput() bool       { return false }
func (fakeVisualModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	return nil, fmt.Errorf("not implemented")
}
func (fakeVisualModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	return &types.GenerateResult{Text: "<html><body>rendered</body></html>"}, nil
}

type fakeSpeechModel struct {
	calls int
}

func (m *fakeSpeechModel) Provider() string { return "fake" }
func (m *fakeSpeechModel) ModelID() string  { return "fake-speech" }
func (m *fakeSpeechModel) DoGenerate(ctx context.Context, opts *provider.SpeechGenerateOptions) (*types.SpeechResult, error) {
	m.calls++
	return &types.SpeechResult{Audio: []byte("audio-" + opts.Text), MimeType: "audio/mpeg"}, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *artifact.Store) {
	t.Helper()
	store, err := artifact.Open(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := New(Config{
		Store:              store,
		Bus:                events.NewBus(),
		VisualModel:        fakeVisualModel{},
		Speech:             &fakeSpeechModel{},
		VisualWorkers:      1,
		TTSWorkers:         1,
		QueueSize:          10,
		ProcessedSetPath:   filepath.Join(t.TempDir(), "processed.json"),
		TTSCacheRoot:       t.TempDir(),
		TTSDefaultVoice:    "voice-a",
		TTSDefaultLanguage: "en",
		TTSChunkMaxChars:   40,
		TTSTextMaxChars:    1000,
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, store
}

func TestProcessVisualWritesSiblingAndMarksProcessed(t *testing.T) {
	t.Parallel()
	p, store := newTestPipeline(t)

	docHash, version, err := store.Commit("canonical-1", "Title EN", "标题", "# Heading\n\nBody text.", artifact.Metadata{})
	require.NoError(t, err)

	require.NoError(t, p.processVisual(context.Background(), docHash, version))

	html, err := os.ReadFile(store.VisualPath(docHash, version))
	require.NoError(t, err)
	assert.Contains(t, string(html), "rendered")
	assert.True(t, p.processed.has(processedKey(docHash, version)))

	// Calling again with an intact sibling must not regenerate.
	require.NoError(t, os.WriteFile(store.VisualPath(docHash, version), []byte("stale-but-present"), 0o644))
	require.NoError(t, p.processVisual(context.Background(), docHash, version))
	html2, err := os.ReadFile(store.VisualPath(docHash, version))
	require.NoError(t, err)
	assert.Equal(t, "stale-but-present", string(html2))
}

func TestProcessVisualRegeneratesWhenSiblingMissingDespiteProcessedEntry(t *testing.T) {
	t.Parallel()
	p, store := newTestPipeline(t)

	docHash, version, err := store.Commit("canonical-2", "Title EN", "标题", "# Heading\n\nBody text.", artifact.Metadata{})
	require.NoError(t, err)

	require.NoError(t, p.processed.mark(processedKey(docHash, version)))
	// No sibling file exists on disk even though the processed set claims
	// otherwise -- the on-disk file is the source of truth.
	require.NoError(t, p.processVisual(context.Background(), docHash, version))

	_, err = os.Stat(store.VisualPath(docHash, version))
	require.NoError(t, err)
}

func TestRequestTTSGeneratesChunksAndPersistsMeta(t *testing.T) {
	t.Parallel()
	p, store := newTestPipeline(t)

	longText := ""
	for i := 0; i < 10; i++ {
		longText += fmt.Sprintf("Sentence number %d. ", i)
	}
	docHash, version, err := store.Commit("canonical-3", "Title EN", "标题", longText, artifact.Metadata{})
	require.NoError(t, err)

	meta, err := p.RequestTTS(context.Background(), docHash, version, "voice-a", "en")
	require.NoError(t, err)
	assert.True(t, meta.Completed)
	assert.Greater(t, meta.TotalChunks, 0)
	assert.Equal(t, meta.TotalChunks, meta.ChunksGenerated)

	status, err := p.TTSStatus(docHash, version, "voice-a", "en")
	require.NoError(t, err)
	assert.True(t, status.Completed)

	// A second request against unchanged text must be a cache hit: no new
	// chunks are written, and the underlying vendor isn't called again.
	speech := p.cfg.Speech.(*fakeSpeechModel)
	callsBefore := speech.calls
	_, err = p.RequestTTS(context.Background(), docHash, version, "voice-a", "en")
	require.NoError(t, err)
	assert.Equal(t, callsBefore, speech.calls)
}

func TestExtractNarrationTextStripsCodeAndImages(t *testing.T) {
	t.Parallel()
	body := "Intro sentence.\n\n```go\ncode here\n```\n\n![alt](img.png)\n\nClosing sentence."
	text := extractNarrationText(body, 0)
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "img.png")
	assert.Contains(t, text, "Intro sentence")
	assert.Contains(t, text, "Closing sentence")
}

func TestChunkNarrationRespectsSentenceBoundaries(t *testing.T) {
	t.Parallel()
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := chunkNarration(text, 25)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 25)
		assert.True(t, strings.HasSuffix(c, "."), "chunk %q does not end on a sentence boundary", c)
	}
}

func TestScheduleFollowOnsProcessesWatchedArtifact(t *testing.T) {
	t.Parallel()
	p, store := newTestPipeline(t)

	docHash, version, err := store.Commit("canonical-4", "Title EN", "标题", "# H\n\nSome narration text here.", artifact.Metadata{})
	require.NoError(t, err)

	p.scheduleFollowOns(docHash, version)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(store.VisualPath(docHash, version)); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("visual sibling was never written by the scheduled follow-on")
}
