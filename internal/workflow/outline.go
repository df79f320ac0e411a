package workflow

import (
	"context"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/ai"
	"github.com/digitallysavvy/deepreader/internal/provider"
)

// generateOutline is Phase B: a single structured-output call returning
// {title_cn, introduction_paragraph, chapters}. Failures here are fatal to
// the run.
func generateOutline(ctx context.Context, model provider.LanguageModel, content SourceContent) (Outline, error) {
	res, err := ai.GenerateObject(ctx, ai.GenerateObjectOptions{
		Model:    model,
		Messages: buildMessages(outlinePrompt(content), content),
		System:   outlineSystemPrompt,
		Schema:   outlineSchema(),
	})
	if err != nil {
		return Outline{}, fmt.Errorf("generating outline: %w", err)
	}
	return decodeOutline(res.Object)
}

func decodeOutline(obj map[string]interface{}) (Outline, error) {
	titleCN, _ := obj["title_cn"].(string)
	intro, _ := obj["introduction_paragraph"].(string)

	rawChapters, ok := obj["chapters"].([]interface{})
	if !ok {
		return Outline{}, fmt.Errorf("outline response missing chapters array")
	}

	chapters := make([]ChapterOutline, 0, len(rawChapters))
	for _, rc := range rawChapters {
		m, ok := rc.(map[string]interface{})
		if !ok {
			continue
		}
		id := intFromJSON(m["id"])
		title, _ := m["title"].(string)
		summary, _ := m["summary"].(string)
		chapters = append(chapters, ChapterOutline{ID: id, Title: title, Summary: summary})
	}
	if len(chapters) == 0 {
		return Outline{}, fmt.Errorf("outline response produced zero chapters")
	}

	return Outline{TitleCN: titleCN, IntroductionParagraph: intro, Chapters: chapters}, nil
}

func intFromJSON(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
