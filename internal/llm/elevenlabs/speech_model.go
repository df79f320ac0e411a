package elevenlabs

import (
	"context"
	"net/http"

	"github.com/digitallysavvy/deepreader/internal/httpclient"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/provider/types"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

const defaultVoice = "21m00Tcm4TlvDq8ikWAM"

// SpeechModel synthesizes one chunk of narration text per call. The Derived-
// Artifact Pipeline is responsible for splitting a chapter's prose into
// chunks before calling DoGenerate; this model has no notion of a document.
type SpeechModel struct {
	provider *Provider
	modelID  string
}

func NewSpeechModel(p *Provider, modelID string) *SpeechModel {
	return &SpeechModel{provider: p, modelID: modelID}
}

func (m *SpeechModel) Provider() string { return "elevenlabs" }
func (m *SpeechModel) ModelID() string  { return m.modelID }

// DoGenerate synthesizes opts.Text as MP3 audio.
func (m *SpeechModel) DoGenerate(ctx context.Context, opts *provider.SpeechGenerateOptions) (*types.SpeechResult, error) {
	voice := opts.Voice
	if voice == "" {
		voice = defaultVoice
	}

	resp, err := m.provider.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/text-to-speech/" + voice,
		Body: map[string]interface{}{
			"text":     opts.Text,
			"model_id": m.modelID,
			"voice_settings": map[string]interface{}{
				"stability":        0.5,
				"similarity_boost": 0.75,
			},
		},
	})
	if err != nil {
		return nil, taskerr.New(taskerr.KindLMTransient, "tts", "elevenlabs request failed", 1, err)
	}
	if resp.StatusCode >= 500 {
		return nil, taskerr.New(taskerr.KindLMTransient, "tts", "elevenlabs request failed", 1, &httpclient.StatusError{Status: resp.StatusCode, Body: string(resp.Body)})
	}
	if resp.StatusCode >= 400 {
		return nil, taskerr.New(taskerr.KindLMFatal, "tts", "elevenlabs rejected the request", 1, &httpclient.StatusError{Status: resp.StatusCode, Body: string(resp.Body)})
	}

	return &types.SpeechResult{
		Audio:    resp.Body,
		MimeType: "audio/mpeg",
		Usage:    types.SpeechUsage{CharacterCount: len(opts.Text)},
	}, nil
}
