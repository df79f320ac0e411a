// Package provider defines the vendor-neutral LM capability contracts that
// the Generation Workflow and Derived-Artifact Pipeline depend on. Concrete
// vendors live under internal/llm/<vendor> and satisfy these interfaces;
// nothing outside internal/llm knows about a specific vendor's wire format.
package provider

import (
	"context"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/provider/types"
)

// Provider is a vendor that may expose zero or more model capabilities.
// Capability factory methods return an "unsupported" error for whatever a
// given vendor doesn't implement, the same pattern every adapter in
// internal/llm follows.
type Provider interface {
	Name() string
	LanguageModel(modelID string) (LanguageModel, error)
	SpeechModel(modelID string) (SpeechModel, error)
}

// Unsupported builds the standard "vendor does not support X" error returned
// by a Provider's unimplemented capability methods.
func Unsupported(providerName, capability string) error {
	return fmt.Errorf("%s does not support %s", providerName, capability)
}

// LanguageModel is the `Generate(prompt, mode) → text` capability this
// package treats as an external collaborator.
type LanguageModel interface {
	Provider() string
	ModelID() string

	SupportsStructuredOutput() bool
	SupportsImageInput() bool

	DoGenerate(ctx context.Context, opts *GenerateOptions) (*types.GenerateResult, error)
	DoStream(ctx context.Context, opts *GenerateOptions) (TextStream, error)
}

// GenerateOptions carries everything a single generation call needs.
type GenerateOptions struct {
	Prompt         types.Prompt
	Temperature    *float64
	MaxTokens      *int
	TopP           *float64
	ResponseFormat *ResponseFormat
}

// ResponseFormat requests structured output from the model.
type ResponseFormat struct {
	// Type is "text", "json_object", or "json_schema".
	Type   string
	Schema interface{}
}

// TextStream is a streaming response. Implementations in internal/llm that
// have no true incremental transport (because this workflow never actually
// streams a partial chapter to a client) wrap a single DoGenerate call in a
// one-chunk stream.
type TextStream interface {
	Next() (*StreamChunk, error)
	Close() error
}

// StreamChunk is a single unit of a streaming response.
type StreamChunk struct {
	Type         ChunkType
	Text         string
	Usage        *types.Usage
	FinishReason types.FinishReason
}

type ChunkType string

const (
	ChunkTypeText   ChunkType = "text"
	ChunkTypeFinish ChunkType = "finish"
)

// SpeechModel is the TTS capability used by the Derived-Artifact Pipeline's
// pre-generation sub-pipeline.
type SpeechModel interface {
	Provider() string
	ModelID() string
	DoGenerate(ctx context.Context, opts *SpeechGenerateOptions) (*types.SpeechResult, error)
}

// SpeechGenerateOptions carries a single chunk of text to synthesize.
type SpeechGenerateOptions struct {
	Text  string
	Voice string
}
