// Package collaborators implements the thin adapters outside this
// service's own algorithms: subtitle/transcript acquisition and multimodal
// file upload to the LM vendor. Each is a capability with a contract, not
// an algorithm this repo owns, so each adapter here does nothing but shape
// an HTTP call through internal/httpclient and translate the result into
// workflow.Fetcher's narrow interface.
package collaborators

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/digitallysavvy/deepreader/internal/httpclient"
	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// Config points the HTTPFetcher at the externally-run services this
// service does not itself implement: a subtitle/transcript extraction
// service and the LM vendor's file-upload endpoint. Either may be left
// empty; the corresponding method then fails fast with a clear
// unsupported_source error instead of attempting a request to an empty
// base URL.
type Config struct {
	SubtitleServiceURL   string
	FileUploadServiceURL string
	FileUploadAPIKey     string
}

// HTTPFetcher implements workflow.Fetcher against the two externally
// configured services. It carries no retry/backoff of its own: source
// acquisition failures are treated as terminal, unlike the LM-transient
// errors the chapter/conclusion phases retry.
type HTTPFetcher struct {
	subtitles *httpclient.Client
	uploads   *httpclient.Client
	cfg       Config
}

// NewHTTPFetcher builds a fetcher from cfg. Clients are constructed even
// when a base URL is empty; FetchSubtitleText/UploadFile check for that
// case explicitly rather than letting net/http fail with an opaque dial
// error.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	return &HTTPFetcher{
		subtitles: httpclient.New(httpclient.Config{BaseURL: cfg.SubtitleServiceURL}),
		uploads: httpclient.New(httpclient.Config{
			BaseURL: cfg.FileUploadServiceURL,
			Headers: map[string]string{"Authorization": "Bearer " + cfg.FileUploadAPIKey},
		}),
		cfg: cfg,
	}
}

type subtitleResponse struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

// FetchSubtitleText posts the video URL to the configured subtitle
// extraction service and returns its cleaned transcript and title.
func (f *HTTPFetcher) FetchSubtitleText(ctx context.Context, url string) (string, string, error) {
	if f.cfg.SubtitleServiceURL == "" {
		return "", "", taskerr.New(taskerr.KindUnsupportedSource, "prepare_source",
			"no SUBTITLE_SERVICE_URL configured", 0, nil)
	}

	var resp subtitleResponse
	err := f.subtitles.PostJSON(ctx, "/extract", map[string]string{"url": url}, &resp)
	if err != nil {
		return "", "", classifyCollaboratorError("subtitle service", err)
	}
	if resp.Text == "" {
		return "", "", taskerr.New(taskerr.KindSourceAcquisitionFailed, "prepare_source",
			"subtitle service returned an empty transcript", 0, nil)
	}
	return resp.Text, resp.Title, nil
}

type uploadResponse struct {
	FileRef string `json:"file_ref"`
}

// UploadFile base64-encodes fileBytes into a JSON POST against the
// configured vendor file-upload endpoint. A real vendor Files API (e.g. a
// multipart upload) is outside this repo's scope; this adapter only needs
// to produce the fileRef the rest of the workflow treats opaquely.
func (f *HTTPFetcher) UploadFile(ctx context.Context, fileBytes []byte, mimeType string) (string, error) {
	if f.cfg.FileUploadServiceURL == "" {
		return "", taskerr.New(taskerr.KindUnsupportedSource, "prepare_source",
			"no FILE_UPLOAD_SERVICE_URL configured", 0, nil)
	}

	body := map[string]string{
		"mime_type": mimeType,
		"data":      base64.StdEncoding.EncodeToString(fileBytes),
	}
	var resp uploadResponse
	if err := f.uploads.PostJSON(ctx, "/files", body, &resp); err != nil {
		return "", classifyCollaboratorError("file upload service", err)
	}
	if resp.FileRef == "" {
		return "", taskerr.New(taskerr.KindSourceAcquisitionFailed, "prepare_source",
			"upload service returned no file reference", 0, nil)
	}
	return resp.FileRef, nil
}

// classifyCollaboratorError tags a transport failure with the taxonomy kind
// Phase A's error handling expects: a 4xx from the collaborator means the
// input itself was rejected, anything else is a generic acquisition
// failure.
func classifyCollaboratorError(who string, err error) error {
	status := httpclient.StatusCode(err)
	if status >= 400 && status < 500 {
		return taskerr.New(taskerr.KindInvalidInput, "prepare_source",
			fmt.Sprintf("%s rejected the request (%d)", who, status), 0, err)
	}
	return taskerr.New(taskerr.KindSourceAcquisitionFailed, "prepare_source",
		fmt.Sprintf("%s call failed", who), 0, err)
}
