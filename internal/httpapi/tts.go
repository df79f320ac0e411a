package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digitallysavvy/deepreader/internal/derived"
)

func (s *Server) ttsQueryParams(r *http.Request) (voice, language string) {
	voice = r.URL.Query().Get("voice")
	if voice == "" {
		voice = s.defaultTTSVoice
	}
	language = r.URL.Query().Get("language")
	if language == "" {
		language = s.defaultTTSLanguage
	}
	return voice, language
}

func (s *Server) handleGetTTSStatus(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	voice, language := s.ttsQueryParams(r)
	status, err := s.Derived.TTSStatus(docHash, a.Version, voice, language)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", "tts not yet requested for this artifact")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleRequestTTS triggers (or resumes) chunked TTS pre-generation on the
// pipeline's dedicated tts worker pool and returns as soon as the job is
// queued: the full synthesis loop can run well past the request timeout for
// a long document, so it never runs on the HTTP goroutine. A client follows
// progress either by polling GET .../tts or by subscribing to
// GET .../tts/events, which streams the same chunk/complete/error events
// this job publishes.
func (s *Server) handleRequestTTS(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	voice, language := s.ttsQueryParams(r)
	if err := s.Derived.RequestTTSAsync(docHash, a.Version, voice, language); err != nil {
		s.respondDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"doc_hash":   docHash,
		"stream_key": derived.TTSStreamKey(docHash, voice, language),
	})
}

func (s *Server) handleGetTTSChunk(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	index, err := strconv.Atoi(chi.URLParam(r, "chunk"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "chunk index must be an integer")
		return
	}
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	voice, language := s.ttsQueryParams(r)
	path, err := s.Derived.ChunkPath(docHash, a.Version, voice, language, index)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", "chunk not available")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}
