package ai

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/telemetry"
)

// GenerateTextOptions is a single-step text generation call.
type GenerateTextOptions struct {
	Model    provider.LanguageModel
	Prompt   string
	Messages []types.Message
	System   string

	Temperature *float64
	MaxTokens   *int
	TopP        *float64

	Timeout   *TimeoutConfig
	Telemetry *telemetry.Settings
}

// GenerateTextResult is the outcome of a GenerateText call.
type GenerateTextResult struct {
	Text         string
	FinishReason types.FinishReason
	Usage        types.Usage
	Warnings     []types.Warning
}

// GenerateText performs one non-streaming LM call, wrapped in a telemetry
// span and an optional per-call timeout. There is no tool-calling loop: the
// Generation Workflow's phases never hand the model a tool.
func GenerateText(ctx context.Context, opts GenerateTextOptions) (*GenerateTextResult, error) {
	if opts.Model == nil {
		return nil, fmt.Errorf("model is required")
	}

	tracer := telemetry.GetTracer(opts.Telemetry)
	return telemetry.RecordSpan(ctx, tracer, telemetry.SpanOptions{
		Name: "ai.generateText",
		Attributes: []attribute.KeyValue{
			attribute.String("ai.model.provider", opts.Model.Provider()),
			attribute.String("ai.model.id", opts.Model.ModelID()),
		},
	}, func(ctx context.Context, _ trace.Span) (*GenerateTextResult, error) {
		return doGenerateText(ctx, opts)
	})
}

func doGenerateText(ctx context.Context, opts GenerateTextOptions) (*GenerateTextResult, error) {
	callCtx, cancel := opts.Timeout.CreateTimeoutContext(ctx)
	defer cancel()

	genOpts := &provider.GenerateOptions{
		Prompt:      buildPrompt(opts.Prompt, opts.Messages, opts.System),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
	}

	res, err := opts.Model.DoGenerate(callCtx, genOpts)
	if err != nil {
		return nil, err
	}

	return &GenerateTextResult{
		Text:         res.Text,
		FinishReason: res.FinishReason,
		Usage:        res.Usage,
		Warnings:     res.Warnings,
	}, nil
}

func buildPrompt(text string, messages []types.Message, system string) types.Prompt {
	if len(messages) > 0 {
		return types.Prompt{Messages: messages, System: system}
	}
	if text != "" {
		return types.Prompt{
			Messages: []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: text}}}},
			System:   system,
		}
	}
	return types.Prompt{}
}
