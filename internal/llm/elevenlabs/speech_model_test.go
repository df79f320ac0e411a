package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

func TestDoGenerateUsesDefaultVoiceAndReturnsAudio(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("xi-api-key")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, APIKey: "vendor-key"})
	model, err := p.SpeechModel("")
	if err != nil {
		t.Fatalf("SpeechModel: %v", err)
	}
	if model.ModelID() != "eleven_multilingual_v2" {
		t.Fatalf("expected default model id, got %q", model.ModelID())
	}

	res, err := model.DoGenerate(context.Background(), &provider.SpeechGenerateOptions{Text: "hello world"})
	if err != nil {
		t.Fatalf("DoGenerate: %v", err)
	}
	if string(res.Audio) != "mp3-bytes" {
		t.Fatalf("expected audio bytes to pass through, got %q", res.Audio)
	}
	if res.MimeType != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", res.MimeType)
	}
	if res.Usage.CharacterCount != len("hello world") {
		t.Fatalf("expected character count %d, got %d", len("hello world"), res.Usage.CharacterCount)
	}
	if gotPath != "/v1/text-to-speech/"+defaultVoice {
		t.Fatalf("expected default-voice path, got %q", gotPath)
	}
	if gotAuth != "vendor-key" {
		t.Fatalf("expected api key header, got %q", gotAuth)
	}
}

func TestDoGenerateUsesRequestedVoice(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	model, _ := p.SpeechModel("")
	_, err := model.DoGenerate(context.Background(), &provider.SpeechGenerateOptions{Text: "hi", Voice: "custom-voice-id"})
	if err != nil {
		t.Fatalf("DoGenerate: %v", err)
	}
	if gotPath != "/v1/text-to-speech/custom-voice-id" {
		t.Fatalf("expected requested-voice path, got %q", gotPath)
	}
}

func TestDoGenerate5xxIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	model, _ := p.SpeechModel("")
	_, err := model.DoGenerate(context.Background(), &provider.SpeechGenerateOptions{Text: "hi"})
	if taskerr.KindOf(err) != taskerr.KindLMTransient {
		t.Fatalf("expected lm_transient for a 503, got %v", taskerr.KindOf(err))
	}
}

func TestDoGenerate4xxIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL})
	model, _ := p.SpeechModel("")
	_, err := model.DoGenerate(context.Background(), &provider.SpeechGenerateOptions{Text: "hi"})
	if taskerr.KindOf(err) != taskerr.KindLMFatal {
		t.Fatalf("expected lm_fatal for a 401, got %v", taskerr.KindOf(err))
	}
}

func TestProviderLanguageModelUnsupported(t *testing.T) {
	p := New(Config{})
	if _, err := p.LanguageModel("any"); err == nil {
		t.Fatal("expected elevenlabs's LanguageModel to be unsupported")
	}
}
