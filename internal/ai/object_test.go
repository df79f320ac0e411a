package ai

import (
	"context"
	"testing"

	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/schema"
)

type fakeModel struct {
	text               string
	structuredOutput   bool
	lastResponseFormat *provider.ResponseFormat
}

func (f *fakeModel) Provider() string               { return "fake" }
func (f *fakeModel) ModelID() string                { return "fake-model" }
func (f *fakeModel) SupportsStructuredOutput() bool { return f.structuredOutput }
func (f *fakeModel) SupportsImageInput() bool       { return false }
func (f *fakeModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	return nil, nil
}
func (f *fakeModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	f.lastResponseFormat = opts.ResponseFormat
	return &types.GenerateResult{Text: f.text, FinishReason: types.FinishReasonStop}, nil
}

func TestGenerateObjectParsesFencedJSON(t *testing.T) {
	t.Parallel()
	model := &fakeModel{text: "```json\n{\"title\": \"hello\"}\n```"}
	s := schema.NewSimpleJSONSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"title"},
		"properties": map[string]interface{}{
			"title": map[string]interface{}{"type": "string"},
		},
	})

	res, err := GenerateObject(context.Background(), GenerateObjectOptions{Model: model, Prompt: "outline this", Schema: s})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Object["title"] != "hello" {
		t.Fatalf("expected title=hello, got %v", res.Object["title"])
	}
}

func TestGenerateObjectRejectsInvalidOutput(t *testing.T) {
	t.Parallel()
	model := &fakeModel{text: "{}"}
	s := schema.NewSimpleJSONSchema(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"title"},
	})

	_, err := GenerateObject(context.Background(), GenerateObjectOptions{Model: model, Prompt: "x", Schema: s})
	if err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestGenerateObjectRequestsJSONSchemaWhenSupported(t *testing.T) {
	t.Parallel()
	model := &fakeModel{text: `{"title":"x"}`, structuredOutput: true}
	s := schema.NewSimpleJSONSchema(map[string]interface{}{"type": "object"})

	if _, err := GenerateObject(context.Background(), GenerateObjectOptions{Model: model, Prompt: "x", Schema: s}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.lastResponseFormat == nil || model.lastResponseFormat.Type != "json_schema" {
		t.Fatalf("expected json_schema response format, got %+v", model.lastResponseFormat)
	}
}
