package collaborators

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

func TestFetchSubtitleTextUnconfiguredFailsFast(t *testing.T) {
	f := NewHTTPFetcher(Config{})
	_, _, err := f.FetchSubtitleText(context.Background(), "https://example.com/video")
	if err == nil {
		t.Fatal("expected an error with no subtitle service configured")
	}
	if taskerr.KindOf(err) != taskerr.KindUnsupportedSource {
		t.Fatalf("expected KindUnsupportedSource, got %v", taskerr.KindOf(err))
	}
}

func TestFetchSubtitleTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["url"] != "https://example.com/video" {
			t.Fatalf("unexpected request body: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world", "title": "My Video"})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{SubtitleServiceURL: srv.URL})
	text, title, err := f.FetchSubtitleText(context.Background(), "https://example.com/video")
	if err != nil {
		t.Fatalf("FetchSubtitleText: %v", err)
	}
	if text != "hello world" || title != "My Video" {
		t.Fatalf("unexpected result: text=%q title=%q", text, title)
	}
}

func TestFetchSubtitleTextEmptyTranscriptIsAcquisitionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "", "title": ""})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{SubtitleServiceURL: srv.URL})
	_, _, err := f.FetchSubtitleText(context.Background(), "https://example.com/video")
	if taskerr.KindOf(err) != taskerr.KindSourceAcquisitionFailed {
		t.Fatalf("expected KindSourceAcquisitionFailed, got %v", taskerr.KindOf(err))
	}
}

func TestFetchSubtitleText4xxIsInvalidInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{SubtitleServiceURL: srv.URL})
	_, _, err := f.FetchSubtitleText(context.Background(), "https://example.com/video")
	if taskerr.KindOf(err) != taskerr.KindInvalidInput {
		t.Fatalf("expected KindInvalidInput for a 4xx response, got %v", taskerr.KindOf(err))
	}
}

func TestFetchSubtitleText5xxIsSourceAcquisitionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{SubtitleServiceURL: srv.URL})
	_, _, err := f.FetchSubtitleText(context.Background(), "https://example.com/video")
	if taskerr.KindOf(err) != taskerr.KindSourceAcquisitionFailed {
		t.Fatalf("expected KindSourceAcquisitionFailed for a 5xx response, got %v", taskerr.KindOf(err))
	}
}

func TestUploadFileUnconfiguredFailsFast(t *testing.T) {
	f := NewHTTPFetcher(Config{})
	_, err := f.UploadFile(context.Background(), []byte("data"), "application/pdf")
	if taskerr.KindOf(err) != taskerr.KindUnsupportedSource {
		t.Fatalf("expected KindUnsupportedSource, got %v", taskerr.KindOf(err))
	}
}

func TestUploadFileSuccessSendsAuthAndBase64Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer vendor-key" {
			t.Fatalf("expected vendor auth header, got %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		want := base64.StdEncoding.EncodeToString([]byte("file-bytes"))
		if body["data"] != want {
			t.Fatalf("expected base64-encoded payload %q, got %q", want, body["data"])
		}
		if body["mime_type"] != "application/pdf" {
			t.Fatalf("unexpected mime_type: %q", body["mime_type"])
		}
		json.NewEncoder(w).Encode(map[string]string{"file_ref": "file-123"})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{FileUploadServiceURL: srv.URL, FileUploadAPIKey: "vendor-key"})
	ref, err := f.UploadFile(context.Background(), []byte("file-bytes"), "application/pdf")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if ref != "file-123" {
		t.Fatalf("expected file_ref 'file-123', got %q", ref)
	}
}
