package workflow

import "github.com/digitallysavvy/deepreader/internal/provider/types"

// buildMessages turns a prompt string plus a SourceContent into the message
// list a multimodal-capable call needs: the prompt text, and (for file-
// sourced material) the uploaded file reference as a sibling content part.
func buildMessages(promptText string, content SourceContent) []types.Message {
	parts := []types.ContentPart{types.TextContent{Text: promptText}}
	if content.Kind == SourceKindMultimodal {
		parts = append(parts, types.FileContent{Ref: content.FileRef, MimeType: content.MimeType})
	}
	return []types.Message{{Role: types.RoleUser, Content: parts}}
}
