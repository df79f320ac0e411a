// Package workflow implements the Generation Workflow: the outline ->
// parallel chapters -> conclusion -> assembly pipeline invoked inside a
// worker-pool slot. The chapter phase's bounded fan-out is a WaitGroup +
// buffered channel over a counting semaphore, so the concurrency bound
// applies to chapter count rather than raw API call count.
package workflow

import (
	"context"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/task"
)

// SourceKind distinguishes the two ways source material reaches the model:
// plain text already in hand, or a file reference the LM vendor holds after
// an out-of-scope upload step.
type SourceKind int

const (
	SourceKindText SourceKind = iota
	SourceKindMultimodal
)

// SourceContent is the uniform value Phase A produces for Phase B/C/D
// prompts, regardless of whether the original material was subtitles,
// plain text, or a PDF/DOCX file.
type SourceContent struct {
	Kind SourceKind

	Text string // populated when Kind == SourceKindText

	FileRef  string // vendor-side file handle, when Kind == SourceKindMultimodal
	MimeType string

	ApproxTokens int
}

// Fetcher is the external collaborator boundary for source acquisition:
// subtitle download and multimodal file upload to the LM vendor. The
// workflow only ever calls through this narrow interface.
type Fetcher interface {
	// FetchSubtitleText returns the cleaned plain-text transcript and the
	// source's own title for a youtube-style URL.
	FetchSubtitleText(ctx context.Context, url string) (text string, title string, err error)
	// UploadFile hands fileBytes to the LM vendor's file-upload capability
	// and returns a reference usable in a later multimodal prompt.
	UploadFile(ctx context.Context, fileBytes []byte, mimeType string) (fileRef string, err error)
}

// prepareSource implements Phase A: for subtitle/text/markdown sources the
// cleaned plain text is already in hand; for PDF/DOCX a vendor file
// reference is obtained and carried by reference instead.
func prepareSource(ctx context.Context, fetcher Fetcher, payload task.Payload) (SourceContent, string, string, error) {
	switch p := payload.(type) {
	case task.SubtitlePayload:
		text, title, err := fetcher.FetchSubtitleText(ctx, p.URL)
		if err != nil {
			return SourceContent{}, "", "", fmt.Errorf("fetching subtitle text: %w", err)
		}
		return SourceContent{Kind: SourceKindText, Text: text, ApproxTokens: approxTokens(text)}, title, p.URL, nil

	case task.FilePayload:
		if isTextualMime(p.MimeType) {
			text := string(p.Data)
			return SourceContent{Kind: SourceKindText, Text: text, ApproxTokens: approxTokens(text)}, p.Title, "", nil
		}
		ref, err := fetcher.UploadFile(ctx, p.Data, p.MimeType)
		if err != nil {
			return SourceContent{}, "", "", fmt.Errorf("uploading source file: %w", err)
		}
		return SourceContent{Kind: SourceKindMultimodal, FileRef: ref, MimeType: p.MimeType}, p.Title, "", nil

	default:
		return SourceContent{}, "", "", fmt.Errorf("unsupported payload type %T", payload)
	}
}

func isTextualMime(mime string) bool {
	switch mime {
	case "text/plain", "text/markdown", "":
		return true
	default:
		return false
	}
}

// approxTokens is a cheap, deterministic estimate (no tokenizer dependency
// anywhere in the pack) used only to size prompts, never to bill usage.
func approxTokens(text string) int {
	return len(text) / 4
}
