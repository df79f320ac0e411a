// Package anthropic is the Anthropic Messages API adapter used as the
// Generation Workflow's language model vendor. Tool-calling, beta headers,
// thinking mode, MCP servers, and container/skills configuration are all
// out of scope: every phase of the workflow makes one plain completion
// call.
package anthropic

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/digitallysavvy/deepreader/internal/httpclient"
	"github.com/digitallysavvy/deepreader/internal/provider"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultAPIVersion = "2023-06-01"
)

// Config configures the Anthropic provider.
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	// RateLimit caps outbound requests per second when non-zero.
	RateLimit float64
}

// Provider is the Anthropic vendor.
type Provider struct {
	config  Config
	client  *httpclient.Client
	limiter *rate.Limiter
}

// New creates an Anthropic Provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}

	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Headers: map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": cfg.APIVersion,
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Provider{config: cfg, client: client, limiter: limiter}
}

// Name returns "anthropic".
func (p *Provider) Name() string { return "anthropic" }

// LanguageModel returns a Claude completion model.
func (p *Provider) LanguageModel(modelID string) (provider.LanguageModel, error) {
	if modelID == "" {
		return nil, provider.Unsupported("anthropic", "an empty model ID")
	}
	return NewLanguageModel(p, modelID), nil
}

// SpeechModel is not offered by Anthropic.
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, provider.Unsupported("anthropic", "speech generation")
}

// waitLimiter blocks until the rate limiter admits a request, or returns ctx's
// error if it is cancelled first. A no-op when no limit was configured.
func (p *Provider) waitLimiter(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
