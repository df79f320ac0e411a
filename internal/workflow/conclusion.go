package workflow

import (
	"context"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/ai"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/schema"
)

// Conclusion is Phase D's parsed output: the enriched introduction that
// replaces the outline's placeholder one, plus the closing section
// (insights + memorable quotes).
type Conclusion struct {
	EnrichedIntroduction string
	ClosingSection       string
}

func conclusionSchema() schema.Schema {
	return schema.NewJSONSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"enriched_introduction", "closing_section"},
		"properties": map[string]interface{}{
			"enriched_introduction": map[string]interface{}{"type": "string"},
			"closing_section":       map[string]interface{}{"type": "string"},
		},
	})
}

// generateConclusion is Phase D: one call producing the closing section
// (insights + memorable quotes) and a short enriched introduction,
// conditioned on the assembled chapter bodies. Same transient retry policy
// as Phase C.
func generateConclusion(ctx context.Context, model provider.LanguageModel, retry ai.RetryConfig, outline Outline, chapterBodies []string) (Conclusion, error) {
	var result Conclusion
	err := ai.Do(ctx, withRetryPolicy(retry), func(ctx context.Context, attempt int) error {
		res, err := ai.GenerateObject(ctx, ai.GenerateObjectOptions{
			Model:  model,
			Prompt: conclusionPrompt(outline, chapterBodies),
			System: conclusionSystemPrompt,
			Schema: conclusionSchema(),
		})
		if err != nil {
			return taggedAttempt(err, attempt)
		}
		intro, _ := res.Object["enriched_introduction"].(string)
		closing, _ := res.Object["closing_section"].(string)
		result = Conclusion{EnrichedIntroduction: intro, ClosingSection: closing}
		return nil
	})
	if err != nil {
		return Conclusion{}, fmt.Errorf("generating conclusion: %w", err)
	}
	return result, nil
}
