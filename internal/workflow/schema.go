package workflow

import "github.com/digitallysavvy/deepreader/internal/schema"

// outlineSchema is Phase B's structured-output contract: {title_cn,
// introduction_paragraph, chapters: [{id, title, summary}]}.
func outlineSchema() schema.Schema {
	return schema.NewJSONSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"title_cn", "introduction_paragraph", "chapters"},
		"properties": map[string]interface{}{
			"title_cn":               map[string]interface{}{"type": "string"},
			"introduction_paragraph": map[string]interface{}{"type": "string"},
			"chapters": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"id", "title", "summary"},
					"properties": map[string]interface{}{
						"id":      map[string]interface{}{"type": "integer"},
						"title":   map[string]interface{}{"type": "string"},
						"summary": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	})
}

// Outline is Phase B's parsed result.
type Outline struct {
	TitleCN               string
	IntroductionParagraph string
	Chapters              []ChapterOutline
}

// ChapterOutline is one entry of the outline's chapter list, fed into Phase
// C to generate that chapter's full body.
type ChapterOutline struct {
	ID      int
	Title   string
	Summary string
}
