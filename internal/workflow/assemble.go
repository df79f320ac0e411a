package workflow

import (
	"sort"
	"strings"
)

// assemble is Phase E's concatenation step: enriched introduction, ordered
// chapters, then the closing section. chapterBodies arrive sorted by
// chapter id, so the outline's chapter list is put in the same order before
// pairing headings with bodies. The metadata header is prepended
// separately by the caller immediately before Commit, since the header
// itself needs the canonical source and doc hash that only Commit computes.
func assemble(outline Outline, chapterBodies []string, conclusion Conclusion) string {
	chapters := append([]ChapterOutline(nil), outline.Chapters...)
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].ID < chapters[j].ID })

	var b strings.Builder
	b.WriteString(conclusion.EnrichedIntroduction)
	b.WriteString("\n\n")
	for i, body := range chapterBodies {
		b.WriteString(chapterHeading(chapters[i]))
		b.WriteString("\n\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(conclusion.ClosingSection)
	return b.String()
}

func chapterHeading(ch ChapterOutline) string {
	return "## " + ch.Title
}
