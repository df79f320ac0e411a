package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/digitallysavvy/deepreader/internal/ai"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// chapterResult pairs a generated chapter body back to its outline id so
// final assembly can sort deterministically regardless of completion order.
type chapterResult struct {
	id   int
	body string
	err  error
}

// generateChapters is Phase C: each outline chapter becomes a sub-task
// generating Markdown for that chapter, bounded to at most concurrency
// in-flight at once via a WaitGroup, a buffered result channel, and a
// counting semaphore sized to the chapter bound. Publication to the event
// bus may interleave; the returned slice is always ordered by chapter id.
func generateChapters(
	ctx context.Context,
	model provider.LanguageModel,
	content SourceContent,
	outline Outline,
	concurrency int,
	retry ai.RetryConfig,
	onChapterDone func(id int, err error),
) ([]string, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan chapterResult, len(outline.Chapters))
	var wg sync.WaitGroup

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, ch := range outline.Chapters {
		wg.Add(1)
		go func(ch ChapterOutline) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				results <- chapterResult{id: ch.ID, err: runCtx.Err()}
				return
			}

			body, err := generateOneChapter(runCtx, model, content, outline, ch, retry)
			if onChapterDone != nil {
				onChapterDone(ch.ID, err)
			}
			if err != nil {
				// A hard failure anywhere cancels the remaining in-flight
				// chapters; the run fails regardless of how many others
				// already succeeded.
				cancel()
			}
			results <- chapterResult{id: ch.ID, body: body, err: err}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make(map[int]chapterResult, len(outline.Chapters))
	var firstErr error
	for r := range results {
		collected[r.id] = r
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	ids := make([]int, 0, len(collected))
	for id := range collected {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bodies := make([]string, 0, len(ids))
	for _, id := range ids {
		bodies = append(bodies, collected[id].body)
	}
	return bodies, nil
}

// generateOneChapter calls the model for a single chapter, retrying
// lm_transient failures with exponential backoff up to retry.MaxRetries.
// lm_fatal and any other error kind fails the sub-task immediately.
func generateOneChapter(ctx context.Context, model provider.LanguageModel, content SourceContent, outline Outline, ch ChapterOutline, retry ai.RetryConfig) (string, error) {
	var body string
	err := ai.Do(ctx, withRetryPolicy(retry), func(ctx context.Context, attempt int) error {
		res, err := ai.GenerateText(ctx, ai.GenerateTextOptions{
			Model:    model,
			Messages: buildMessages(chapterPrompt(content, outline, ch), content),
			System:   chapterSystemPrompt,
		})
		if err != nil {
			return taggedAttempt(err, attempt)
		}
		body = res.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generating chapter %d (%s): %w", ch.ID, ch.Title, err)
	}
	return body, nil
}

// withRetryPolicy composes cfg's numeric backoff parameters with the task
// error taxonomy's Retryable() classification, so only lm_transient errors
// are retried and everything else (lm_fatal, invalid_input, …) fails the
// sub-task on first attempt.
func withRetryPolicy(cfg ai.RetryConfig) ai.RetryConfig {
	cfg.ShouldRetry = func(err error) bool {
		return taskerr.KindOf(err).Retryable()
	}
	return cfg
}

func taggedAttempt(err error, attempt int) error {
	if te, ok := taskerr.Of(err); ok {
		te.AttemptCount = attempt
		return te
	}
	return err
}
