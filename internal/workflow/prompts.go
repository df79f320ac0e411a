package workflow

import "fmt"

const outlineSystemPrompt = `You are producing a long-form "deep interpretation" of a piece of source material.
Read the provided content and respond with a single JSON object: a Chinese title, a one-paragraph
introduction, and an ordered list of chapters (id starting at 1, a title, and a short summary of what that
chapter should cover). Chapters should follow the material's own structure, not an arbitrary template.`

const chapterSystemPrompt = `You are writing one chapter of a long-form deep interpretation document in Markdown.
Write only this chapter's body: do not repeat the title as a top-level heading, do not write an
introduction or conclusion, and ground every claim in the supplied source material.`

const conclusionSystemPrompt = `You are writing the closing section of a long-form deep interpretation document.
Given the assembled chapter bodies, write: a short enriched introduction (replacing the outline's
placeholder introduction), key insights, and a short list of memorable quotes drawn from the source
material. Respond in Markdown.`

func outlinePrompt(content SourceContent) string {
	if content.Kind == SourceKindText {
		return fmt.Sprintf("Source material:\n\n%s", content.Text)
	}
	return "Source material is attached as a file reference."
}

func chapterPrompt(content SourceContent, outline Outline, ch ChapterOutline) string {
	base := fmt.Sprintf(
		"Document title: %s\nChapter %d: %s\nChapter summary: %s\n\n",
		outline.TitleCN, ch.ID, ch.Title, ch.Summary,
	)
	if content.Kind == SourceKindText {
		return base + fmt.Sprintf("Source material:\n\n%s", content.Text)
	}
	return base + "Source material is attached as a file reference."
}

func conclusionPrompt(outline Outline, chapterBodies []string) string {
	prompt := fmt.Sprintf("Document title: %s\n\n", outline.TitleCN)
	for i, body := range chapterBodies {
		prompt += fmt.Sprintf("--- Chapter %d ---\n%s\n\n", i+1, body)
	}
	return prompt
}
