package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/digitallysavvy/deepreader/internal/httpclient"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// LanguageModel implements provider.LanguageModel against the Anthropic
// Messages API.
type LanguageModel struct {
	provider *Provider
	modelID  string
}

// NewLanguageModel creates a Claude completion model bound to modelID.
func NewLanguageModel(p *Provider, modelID string) *LanguageModel {
	return &LanguageModel{provider: p, modelID: modelID}
}

func (m *LanguageModel) Provider() string { return "anthropic" }
func (m *LanguageModel) ModelID() string  { return m.modelID }

// SupportsStructuredOutput matches the vendor's output_config.format support
// across the claude-*-4-6/4-5 and claude-opus-4-1 model families.
func (m *LanguageModel) SupportsStructuredOutput() bool {
	id := m.modelID
	return strings.Contains(id, "claude-sonnet-4-6") ||
		strings.Contains(id, "claude-opus-4-6") ||
		strings.Contains(id, "claude-sonnet-4-5") ||
		strings.Contains(id, "claude-opus-4-5") ||
		strings.Contains(id, "claude-haiku-4-5") ||
		strings.Contains(id, "claude-opus-4-1")
}

// SupportsImageInput reports vision support, relevant to Phase A's
// multimodal source variant.
func (m *LanguageModel) SupportsImageInput() bool {
	switch m.modelID {
	case "claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307", "claude-3-5-sonnet-20241022":
		return true
	}
	return strings.Contains(m.modelID, "claude-sonnet-4") || strings.Contains(m.modelID, "claude-opus-4")
}

// DoGenerate performs one non-streaming completion call.
func (m *LanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	if err := m.provider.waitLimiter(ctx); err != nil {
		return nil, err
	}

	reqBody := m.buildRequestBody(opts)

	var resp anthropicResponse
	err := m.provider.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		Body:   reqBody,
	}, &resp)
	if err != nil {
		return nil, m.classifyError(err)
	}

	return convertResponse(resp), nil
}

// DoStream wraps a single DoGenerate call in a one-chunk stream. Nothing in
// the Generation Workflow streams a partial chapter to a client, so there is
// no true SSE consumer to implement.
func (m *LanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	res, err := m.DoGenerate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newSingleChunkStream(res), nil
}

func (m *LanguageModel) buildRequestBody(opts *provider.GenerateOptions) map[string]interface{} {
	body := map[string]interface{}{
		"model":  m.modelID,
		"stream": false,
	}

	if opts.Prompt.IsMessages() {
		body["messages"] = toAnthropicMessages(opts.Prompt.Messages)
	} else if opts.Prompt.IsSimple() {
		body["messages"] = toAnthropicMessages([]types.Message{
			{Role: types.RoleUser, Content: []types.ContentPart{types.TextContent{Text: opts.Prompt.Text}}},
		})
	}
	if opts.Prompt.System != "" {
		body["system"] = opts.Prompt.System
	}

	maxTokens := 4096
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	body["max_tokens"] = maxTokens

	if opts.Temperature != nil {
		body["temperature"] = *opts.Temperature
	} else if opts.TopP != nil {
		body["top_p"] = *opts.TopP
	}

	if opts.ResponseFormat != nil && opts.ResponseFormat.Schema != nil {
		body["output_config"] = map[string]interface{}{
			"format": map[string]interface{}{
				"type":   "json_schema",
				"schema": opts.ResponseFormat.Schema,
			},
		}
	}

	return body
}

func toAnthropicMessages(messages []types.Message) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}
		content := make([]map[string]interface{}, 0, len(msg.Content))
		for _, part := range msg.Content {
			switch p := part.(type) {
			case types.TextContent:
				content = append(content, map[string]interface{}{"type": "text", "text": p.Text})
			case types.FileContent:
				if p.Ref != "" {
					content = append(content, map[string]interface{}{
						"type": "document",
						"source": map[string]interface{}{
							"type":    "file",
							"file_id": p.Ref,
						},
					})
					continue
				}
				content = append(content, map[string]interface{}{
					"type": "document",
					"source": map[string]interface{}{
						"type":       "base64",
						"media_type": p.MimeType,
						"data":       p.Data,
					},
				})
			}
		}
		out = append(out, map[string]interface{}{"role": string(msg.Role), "content": content})
	}
	return out
}

func convertResponse(resp anthropicResponse) *types.GenerateResult {
	result := &types.GenerateResult{
		Usage:       convertUsage(resp.Usage),
		RawResponse: resp,
	}

	for _, c := range resp.Content {
		if c.Type == "text" {
			result.Text += c.Text
		}
	}

	switch resp.StopReason {
	case "end_turn", "stop_sequence":
		result.FinishReason = types.FinishReasonStop
	case "max_tokens":
		result.FinishReason = types.FinishReasonLength
	default:
		result.FinishReason = types.FinishReasonOther
	}

	return result
}

func convertUsage(u anthropicUsage) types.Usage {
	input := int64(u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens)
	output := int64(u.OutputTokens)
	total := input + output
	return types.Usage{InputTokens: &input, OutputTokens: &output, TotalTokens: &total}
}

// classifyError maps a raw HTTP error onto the task error taxonomy. Rate
// limits, 5xx, and connection failures are transient and retryable; 4xx
// request errors are fatal.
func (m *LanguageModel) classifyError(err error) error {
	status := httpclient.StatusCode(err)
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return taskerr.New(taskerr.KindLMTransient, "generation", "anthropic request failed", 1, err)
	case status >= 400:
		return taskerr.New(taskerr.KindLMFatal, "generation", fmt.Sprintf("anthropic rejected the request (%d)", status), 1, err)
	default:
		return taskerr.New(taskerr.KindLMTransient, "generation", "anthropic request failed", 1, err)
	}
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
}

type anthropicUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
