package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/schema"
	"github.com/digitallysavvy/deepreader/internal/telemetry"
)

// GenerateObjectOptions drives a single structured-output call. Only the
// plain-object mode is implemented here: the outline and the conclusion
// are the only structured results the Generation Workflow requests, both
// plain objects, so array/enum/no-schema modes and incremental
// streaming-object parsing have no caller.
type GenerateObjectOptions struct {
	Model    provider.LanguageModel
	Prompt   string
	Messages []types.Message
	System   string
	Schema   schema.Schema

	Temperature *float64
	MaxTokens   *int

	Timeout   *TimeoutConfig
	Telemetry *telemetry.Settings
}

// GenerateObjectResult is the parsed, schema-validated JSON object together
// with the usage the call consumed.
type GenerateObjectResult struct {
	Object map[string]interface{}
	Raw    string
	Usage  types.Usage
}

// GenerateObject asks the model for a single JSON object matching Schema,
// parses the response, and validates it before returning. A model that
// cannot do structured output natively is asked via a JSON-object response
// format and its text response is parsed the same way.
func GenerateObject(ctx context.Context, opts GenerateObjectOptions) (*GenerateObjectResult, error) {
	if opts.Model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if opts.Schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	tracer := telemetry.GetTracer(opts.Telemetry)
	return telemetry.RecordSpan(ctx, tracer, telemetry.SpanOptions{
		Name: "ai.generateObject",
		Attributes: []attribute.KeyValue{
			attribute.String("ai.model.provider", opts.Model.Provider()),
			attribute.String("ai.model.id", opts.Model.ModelID()),
		},
	}, func(ctx context.Context, _ trace.Span) (*GenerateObjectResult, error) {
		return doGenerateObject(ctx, opts)
	})
}

func doGenerateObject(ctx context.Context, opts GenerateObjectOptions) (*GenerateObjectResult, error) {
	callCtx, cancel := opts.Timeout.CreateTimeoutContext(ctx)
	defer cancel()

	messages := opts.Messages
	if len(messages) == 0 {
		messages = []types.Message{{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: opts.Prompt}}}}
	}
	genOpts := &provider.GenerateOptions{
		Prompt: types.Prompt{
			Messages: messages,
			System:   opts.System,
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.Model.SupportsStructuredOutput() {
		genOpts.ResponseFormat = &provider.ResponseFormat{Type: "json_schema", Schema: opts.Schema.Validator().JSONSchema()}
	} else {
		genOpts.ResponseFormat = &provider.ResponseFormat{Type: "json_object"}
	}

	res, err := opts.Model.DoGenerate(callCtx, genOpts)
	if err != nil {
		return nil, err
	}

	raw := extractJSON(res.Text)
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("parsing model object output: %w", err)
	}

	if err := opts.Schema.Validator().Validate(obj); err != nil {
		return nil, fmt.Errorf("validating model object output: %w", err)
	}

	return &GenerateObjectResult{Object: obj, Raw: raw, Usage: res.Usage}, nil
}

// extractJSON strips a model's tendency to wrap JSON in a markdown fence,
// since not every vendor honors a strict json_object response format.
func extractJSON(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		if idx := strings.Index(t, "\n"); idx != -1 {
			t = t[idx+1:]
		}
		t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	}
	return strings.TrimSpace(t)
}
