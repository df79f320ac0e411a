package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSONDecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["url"] != "https://example.com/video" {
			t.Fatalf("unexpected request body: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "transcript", "title": "Title"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	var resp struct {
		Text  string `json:"text"`
		Title string `json:"title"`
	}
	if err := c.PostJSON(context.Background(), "/extract", map[string]string{"url": "https://example.com/video"}, &resp); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if resp.Text != "transcript" || resp.Title != "Title" {
		t.Fatalf("unexpected decoded response: %+v", resp)
	}
}

func TestPostJSONReturnsStatusErrorOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad input"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	var resp map[string]string
	err := c.PostJSON(context.Background(), "/extract", nil, &resp)
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if got := StatusCode(err); got != http.StatusBadRequest {
		t.Fatalf("expected StatusCode to extract 400, got %d", got)
	}
}

func TestStatusCodeReturnsZeroForNonStatusError(t *testing.T) {
	if got := StatusCode(context.DeadlineExceeded); got != 0 {
		t.Fatalf("expected 0 for a non-StatusError, got %d", got)
	}
}

func TestHeadersMergeConfigAndRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("expected config-level Authorization header, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Request-Id") != "abc" {
			t.Errorf("expected per-request header to be set, got %q", r.Header.Get("X-Request-Id"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Headers: map[string]string{"Authorization": "Bearer token"}})
	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/files",
		Headers: map[string]string{"X-Request-Id": "abc"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
}
