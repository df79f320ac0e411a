package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	result, err := s.Store.ListAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "persistence_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetArtifactVersion(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "version must be an integer")
		return
	}
	a, err := s.Store.GetVersion(docHash, version)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetMarkdown(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(a.Body))
}

func (s *Server) handleGetPDF(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	path := s.Store.PDFPath(docHash, a.Version)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", "pdf not yet rendered")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (s *Server) handleGetVisual(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	a, err := s.Store.GetLatest(docHash)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	path := s.Store.VisualPath(docHash, a.Version)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", "visual html not yet generated")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	result := s.Store.Delete(docHash)
	writeJSON(w, http.StatusOK, result)
}

// handleRestoreArtifact takes the route's bare doc_hash and resolves it to
// the full trash-entry name (Store.Restore needs the doc_hash-timestamp
// identifier, not the doc_hash alone) by finding that doc_hash's most
// recently trashed entry.
func (s *Server) handleRestoreArtifact(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")

	entries, err := s.Store.ListTrash()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "persistence_failed", err.Error())
		return
	}

	var latest *string
	var latestAt int64
	for i, e := range entries {
		if e.DocHash != docHash {
			continue
		}
		if latest == nil || e.TrashedAt.Unix() > latestAt {
			name := filepath.Base(entries[i].Path)
			latest = &name
			latestAt = e.TrashedAt.Unix()
		}
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "invalid_input", "no trashed artifact for that doc_hash")
		return
	}

	if err := s.Store.Restore(*latest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": docHash})
}

func (s *Server) handleListTrash(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.ListTrash()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "persistence_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handlePurgeTrash permanently deletes one trash entry, addressed by its
// full trash directory name (doc_hash plus trash timestamp) as returned by
// the trash listing.
func (s *Server) handlePurgeTrash(w http.ResponseWriter, r *http.Request) {
	entry := chi.URLParam(r, "entry")
	if err := s.Store.Purge(entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"purged": entry})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "video_id is required")
		return
	}
	docHash, title, ok := s.Store.LookupByExternalKey(videoID)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid_input", "no known document for that video id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"doc_hash": docHash, "title": title})
}
