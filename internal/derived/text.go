package derived

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	codeFenceRe        = regexp.MustCompile("(?s)```.*?```")
	imageRe            = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	headingHashRe      = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	sentenceBoundaryRe = regexp.MustCompile(`[.!?。！？]\s`)
)

// tableRowThreshold is the longest run of consecutive "| ... |" lines kept
// in narration text; a longer table is dropped from it entirely.
const tableRowThreshold = 3

// extractNarrationText strips Markdown constructs unsuitable for narration
// (code fences, images, long tables) from body and truncates the remainder
// to at most maxChars at the nearest sentence boundary, so TTS never cuts a
// chunk mid-sentence.
func extractNarrationText(body string, maxChars int) string {
	text := codeFenceRe.ReplaceAllString(body, "")
	text = imageRe.ReplaceAllString(text, "")
	text = headingHashRe.ReplaceAllString(text, "")
	text = stripLongTables(text, tableRowThreshold)
	text = strings.TrimSpace(text)

	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return truncateAtSentence(text, maxChars)
}

func stripLongTables(text string, threshold int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) {
		if isTableRow(lines[i]) {
			start := i
			for i < len(lines) && isTableRow(lines[i]) {
				i++
			}
			if i-start <= threshold {
				out = append(out, lines[start:i]...)
			}
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return strings.Join(out, "\n")
}

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

func truncateAtSentence(text string, maxChars int) string {
	window := text[:maxChars]
	locs := sentenceBoundaryRe.FindAllStringIndex(window, -1)
	if len(locs) == 0 {
		return window
	}
	last := locs[len(locs)-1]
	return strings.TrimSpace(window[:last[1]])
}

// chunkNarration splits text into chunks no longer than chunkChars, never
// splitting a sentence across a chunk boundary when a boundary exists
// within the window.
func chunkNarration(text string, chunkChars int) []string {
	if chunkChars <= 0 {
		chunkChars = len(text)
		if chunkChars == 0 {
			return nil
		}
	}
	var chunks []string
	for len(text) > 0 {
		if len(text) <= chunkChars {
			chunks = append(chunks, strings.TrimSpace(text))
			break
		}
		window := text[:chunkChars]
		locs := sentenceBoundaryRe.FindAllStringIndex(window, -1)
		cut := chunkChars
		if len(locs) > 0 {
			cut = locs[len(locs)-1][1]
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = text[cut:]
	}
	return chunks
}

// textFingerprint is the (doc_hash, voice, language, text) cache key's text
// component: a short hash of the narration text itself, so a re-edited
// artifact invalidates cached audio without touching doc_hash.
func textFingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}
