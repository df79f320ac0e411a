// Package derived implements the derived-artifact pipeline: a filesystem
// watcher over the artifact root that schedules two independent follow-ons
// for every newly appeared or changed Markdown artifact -- visual-HTML
// generation and TTS pre-generation -- each on its own small worker pool
// built from internal/pool's same bounded-concurrency pattern used by the
// main job queue. The visual-HTML call reuses internal/ai's single-call
// text generation, and TTS pre-generation drives the elevenlabs speech
// adapter.
package derived

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/events"
	"github.com/digitallysavvy/deepreader/internal/pool"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/task"
)

// derivedTaskTimeout bounds a single visual or TTS follow-on. Neither
// operation is user-facing in the way a submitted analysis task is, so
// there is no per-request configuration for it.
const derivedTaskTimeout = 5 * time.Minute

// Config wires a Pipeline to its collaborators.
type Config struct {
	Store *artifact.Store
	Bus   *events.Bus

	VisualModel provider.LanguageModel
	Speech      provider.SpeechModel

	VisualWorkers int
	TTSWorkers    int
	QueueSize     int

	ProcessedSetPath string

	TTSCacheRoot       string
	TTSDefaultVoice    string
	TTSDefaultLanguage string
	TTSChunkMaxChars   int
	TTSTextMaxChars    int
}

// Pipeline watches the artifact store's root and drives the visual-HTML and
// TTS-pregeneration follow-ons for every committed artifact version.
type Pipeline struct {
	cfg Config

	visualPool *pool.Pool
	ttsPool    *pool.Pool
	processed  *processedSet

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New builds a Pipeline, performs the startup reconciliation scan (stray
// .tmp cleanup, catch-up on any artifact missed while the process was
// down), and starts the filesystem watch.
func New(cfg Config) (*Pipeline, error) {
	if cfg.VisualWorkers <= 0 {
		cfg.VisualWorkers = 2
	}
	if cfg.TTSWorkers <= 0 {
		cfg.TTSWorkers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 50
	}

	p := &Pipeline{
		cfg:        cfg,
		visualPool: pool.New(cfg.VisualWorkers, cfg.QueueSize),
		ttsPool:    pool.New(cfg.TTSWorkers, cfg.QueueSize),
		processed:  loadProcessedSet(cfg.ProcessedSetPath),
		done:       make(chan struct{}),
	}

	cleanStaleTemp(cfg.Store.Root())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting derived-pipeline watcher: %w", err)
	}
	if err := watcher.Add(cfg.Store.Root()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching artifact root: %w", err)
	}
	p.watcher = watcher

	if err := p.scanExisting(); err != nil {
		watcher.Close()
		return nil, err
	}

	go p.watchLoop()
	return p, nil
}

// Close stops the filesystem watch and shuts down both worker pools.
func (p *Pipeline) Close() {
	close(p.done)
	if p.watcher != nil {
		p.watcher.Close()
	}
	p.visualPool.Shutdown(true)
	p.ttsPool.Shutdown(true)
}

// scanExisting walks every document directory already on disk at startup,
// adds it to the watch (fsnotify is not recursive), and schedules follow-
// ons for every version found -- reconciling any backlog that accrued
// while the pipeline was not running.
func (p *Pipeline) scanExisting() error {
	root := p.cfg.Store.Root()
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("scanning artifact root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if err := p.watcher.Add(dir); err != nil {
			continue
		}
		p.scanDocDir(e.Name(), dir)
	}
	return nil
}

func (p *Pipeline) scanDocDir(docHash, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if v, ok := parseVersionMD(e.Name()); ok {
			p.scheduleFollowOns(docHash, v)
		}
	}
}

func parseVersionMD(name string) (int, bool) {
	if !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".md") || strings.Contains(name, ".visual.") {
		return 0, false
	}
	var v int
	if _, err := fmt.Sscanf(name, "v%d.md", &v); err != nil {
		return 0, false
	}
	return v, true
}

func (p *Pipeline) watchLoop() {
	for {
		select {
		case <-p.done:
			return
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handleEvent(ev)
		case _, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (p *Pipeline) handleEvent(ev fsnotify.Event) {
	info, err := os.Stat(ev.Name)
	if err == nil && info.IsDir() {
		// A Commit just created a new document directory; watch it too so
		// its version writes are observed (fsnotify watches are not
		// recursive).
		_ = p.watcher.Add(ev.Name)
		docHash := filepath.Base(ev.Name)
		p.scanDocDir(docHash, ev.Name)
		return
	}

	if !strings.HasSuffix(ev.Name, ".md") {
		return
	}
	docHash := filepath.Base(filepath.Dir(ev.Name))
	version, ok := parseVersionMD(filepath.Base(ev.Name))
	if !ok {
		return
	}
	p.scheduleFollowOns(docHash, version)
}

func (p *Pipeline) scheduleFollowOns(docHash string, version int) {
	taskID := fmt.Sprintf("visual:%s:v%d", docHash, version)
	_ = p.visualPool.Submit(pool.WorkerTask{
		TaskID:   taskID,
		Priority: task.PriorityLow,
		Timeout:  derivedTaskTimeout,
		Run: func(ctx context.Context) error {
			return p.processVisual(ctx, docHash, version)
		},
	})

	ttsTaskID := fmt.Sprintf("tts-pregen:%s:v%d", docHash, version)
	_ = p.ttsPool.Submit(pool.WorkerTask{
		TaskID:   ttsTaskID,
		Priority: task.PriorityLow,
		Timeout:  derivedTaskTimeout,
		Run: func(ctx context.Context) error {
			_, err := p.RequestTTS(ctx, docHash, version, p.cfg.TTSDefaultVoice, p.cfg.TTSDefaultLanguage)
			return err
		},
	})
}

// VisualStats and TTSStats expose each dedicated pool's point-in-time
// counters, surfaced by the HTTP transport's stats route alongside the
// main queue's.
func (p *Pipeline) VisualStats() pool.Stats { return p.visualPool.Stats() }
func (p *Pipeline) TTSStats() pool.Stats    { return p.ttsPool.Stats() }

// RequestTTSAsync submits an on-demand RequestTTS call onto ttsPool and
// returns as soon as it is queued, rather than blocking the caller for the
// full chunked synthesis loop. Progress is observable by subscribing to
// TTSStreamKey(docHash, voice, language) on the event bus, or by polling
// TTSStatus. The queue's own backpressure (pool.ErrQueueFull) is returned
// synchronously so an HTTP handler can map it to a 503.
func (p *Pipeline) RequestTTSAsync(docHash string, version int, voice, language string) error {
	if voice == "" {
		voice = p.cfg.TTSDefaultVoice
	}
	if language == "" {
		language = p.cfg.TTSDefaultLanguage
	}
	taskID := fmt.Sprintf("tts-request:%s:v%d:%s:%s", docHash, version, voice, language)
	return p.ttsPool.Submit(pool.WorkerTask{
		TaskID:   taskID,
		Priority: task.PriorityNormal,
		Timeout:  derivedTaskTimeout,
		Run: func(ctx context.Context) error {
			_, err := p.RequestTTS(ctx, docHash, version, voice, language)
			return err
		},
	})
}
