package derived

import (
	"context"
	"fmt"
	"os"

	"github.com/digitallysavvy/deepreader/internal/ai"
)

const visualSystemPrompt = `You transform a finished Markdown document into a single self-contained HTML
file: inline CSS, no external resources, readable typography, and a layout suited to on-screen reading.
Preserve the document's structure (headings, paragraphs, lists) faithfully. Respond with the HTML document
only, no commentary.`

// processedKey is the visual processed-set key for one artifact version.
func processedKey(docHash string, version int) string {
	return fmt.Sprintf("%s/v%d", docHash, version)
}

// generateVisualHTML is the visual-HTML follow-on: a single LM call with a
// fixed prompt template turning the committed Markdown into a
// self-contained HTML sibling.
func (p *Pipeline) generateVisualHTML(ctx context.Context, markdown string) (string, error) {
	res, err := ai.GenerateText(ctx, ai.GenerateTextOptions{
		Model:  p.cfg.VisualModel,
		Prompt: markdown,
		System: visualSystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("generating visual html: %w", err)
	}
	return res.Text, nil
}

// processVisual regenerates and writes the visual-HTML sibling for
// (docHash, version) unless a processed entry already exists AND its
// sibling is present on disk -- the on-disk file is the source of truth,
// so a processed entry with a missing sibling is purged and regenerated.
func (p *Pipeline) processVisual(ctx context.Context, docHash string, version int) error {
	key := processedKey(docHash, version)
	dest := p.cfg.Store.VisualPath(docHash, version)

	if p.processed.has(key) {
		if _, err := os.Stat(dest); err == nil {
			return nil
		}
		_ = p.processed.purge(key)
	}

	artifact, err := p.cfg.Store.GetVersion(docHash, version)
	if err != nil {
		return fmt.Errorf("loading artifact %s v%d: %w", docHash, version, err)
	}

	html, err := p.generateVisualHTML(ctx, artifact.Body)
	if err != nil {
		return err
	}
	if err := atomicWrite(dest, []byte(html)); err != nil {
		return fmt.Errorf("writing visual sibling: %w", err)
	}
	return p.processed.mark(key)
}
