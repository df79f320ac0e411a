// Package elevenlabs is the text-to-speech vendor adapter used by the
// derived-artifact pipeline's TTS pre-generation sub-pipeline.
package elevenlabs

import (
	"github.com/digitallysavvy/deepreader/internal/httpclient"
	"github.com/digitallysavvy/deepreader/internal/provider"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// Config configures the ElevenLabs provider.
type Config struct {
	APIKey  string
	BaseURL string
}

// Provider is the ElevenLabs vendor. Only speech synthesis is implemented;
// every other capability is unsupported.
type Provider struct {
	client *httpclient.Client
}

// New creates an ElevenLabs Provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Headers: map[string]string{
			"xi-api-key": cfg.APIKey,
		},
	})
	return &Provider{client: client}
}

func (p *Provider) Name() string { return "elevenlabs" }

// LanguageModel is not offered by ElevenLabs.
func (p *Provider) LanguageModel(modelID string) (provider.LanguageModel, error) {
	return nil, provider.Unsupported("elevenlabs", "text generation")
}

// SpeechModel returns the text-to-speech model, defaulting to ElevenLabs'
// multilingual model when modelID is empty.
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	return NewSpeechModel(p, modelID), nil
}
