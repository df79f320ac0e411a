package workflow

import (
	"context"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/ai"
	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/task"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// Progress checkpoints: outline start/success, chapters span the bulk of
// the run, conclusion, then the committed artifact.
const (
	progressOutlineStart   = 10
	progressOutlineDone    = 25
	progressChaptersDone   = 75
	progressConclusionDone = 90
	progressComplete       = 100
)

// Config wires a Workflow to the collaborators it needs: the LM to generate
// with, the source-acquisition boundary, the artifact store to commit into,
// and the task registry to report progress/results through.
type Config struct {
	Model              provider.LanguageModel
	Fetcher            Fetcher
	Store              *artifact.Store
	Registry           *task.Registry
	ChapterConcurrency int
	Retry              ai.RetryConfig
}

// Workflow runs the Generation Workflow (Phases A-E) for a single task. One
// Workflow is shared across all tasks; Run carries no mutable state of its
// own.
type Workflow struct {
	cfg Config
}

// New builds a Workflow from cfg, filling in defaults for zero-valued
// fields.
func New(cfg Config) *Workflow {
	if cfg.ChapterConcurrency <= 0 {
		cfg.ChapterConcurrency = 3
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry = ai.DefaultRetryConfig()
	}
	return &Workflow{cfg: cfg}
}

// Run executes the full pipeline for t and reports its outcome through the
// registry: it is the func(ctx context.Context) error a pool.WorkerTask.Run
// closure wraps for document-generation task types. The caller is
// responsible for the queued->running transition at dispatch time; Run
// itself only ever reports progress, logs, and the terminal result/error.
func (w *Workflow) Run(ctx context.Context, t task.Task) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.cfg.Registry.RegisterCancelFunc(t.ID, cancel)

	result, runErr := w.run(runCtx, t)
	if runErr != nil {
		taskErr := w.classify(runCtx, runErr)
		_ = w.cfg.Registry.SetError(t.ID, taskErr)
		return taskErr
	}

	_ = w.cfg.Registry.SetResult(t.ID, result)
	return nil
}

func (w *Workflow) run(ctx context.Context, t task.Task) (task.ResultRef, error) {
	reg := w.cfg.Registry

	_ = reg.AppendLog(t.ID, "preparing source")
	content, title, _, err := prepareSource(ctx, w.cfg.Fetcher, t.Payload)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase a (prepare source): %w", err)
	}

	_ = reg.UpdateProgress(t.ID, progressOutlineStart)
	_ = reg.AppendLog(t.ID, "generating outline")
	outline, err := generateOutline(ctx, w.cfg.Model, content)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase b (outline): %w", err)
	}
	_ = reg.UpdateProgress(t.ID, progressOutlineDone)

	_ = reg.AppendLog(t.ID, fmt.Sprintf("generating %d chapters", len(outline.Chapters)))
	total := len(outline.Chapters)
	onChapterDone := func(id int, chErr error) {
		if chErr != nil {
			_ = reg.AppendLog(t.ID, fmt.Sprintf("chapter %d failed: %v", id, chErr))
			return
		}
		_ = reg.AppendLog(t.ID, fmt.Sprintf("chapter %d complete", id))
	}
	chapterBodies, err := generateChapters(ctx, w.cfg.Model, content, outline, w.cfg.ChapterConcurrency, w.cfg.Retry, onChapterDone)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase c (chapters, %d/%d): %w", len(chapterBodies), total, err)
	}
	_ = reg.UpdateProgress(t.ID, progressChaptersDone)

	_ = reg.AppendLog(t.ID, "generating conclusion")
	conclusion, err := generateConclusion(ctx, w.cfg.Model, w.cfg.Retry, outline, chapterBodies)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase d (conclusion): %w", err)
	}
	_ = reg.UpdateProgress(t.ID, progressConclusionDone)

	_ = reg.AppendLog(t.ID, "assembling and committing artifact")
	body := assemble(outline, chapterBodies, conclusion)

	canonicalSource, md, err := canonicalSourceAndMetadata(t, title)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase e (metadata): %w", err)
	}
	md.TitleEN = title

	docHash, version, err := w.cfg.Store.Commit(canonicalSource, md.TitleEN, outline.TitleCN, body, md)
	if err != nil {
		return task.ResultRef{}, fmt.Errorf("phase e (commit): %w", err)
	}
	_ = reg.UpdateProgress(t.ID, progressComplete)
	_ = reg.AppendLog(t.ID, "done")

	return task.ResultRef{DocHash: docHash, Version: version, TitleCN: outline.TitleCN}, nil
}

// classify turns an arbitrary phase error into the TaskError the registry's
// terminal-status mapping expects, preferring a kind already tagged onto
// err's chain and otherwise inferring cancellation/timeout from ctx.
func (w *Workflow) classify(ctx context.Context, err error) *taskerr.TaskError {
	if te, ok := taskerr.Of(err); ok {
		return te
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return taskerr.New(taskerr.KindWorkflowTimeout, "workflow", "deadline exceeded", 0, err)
	case context.Canceled:
		return taskerr.New(taskerr.KindWorkflowCancelled, "workflow", "cancelled", 0, err)
	default:
		return taskerr.New(taskerr.KindInternal, "workflow", err.Error(), 0, err)
	}
}
