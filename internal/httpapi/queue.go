package httpapi

import (
	"net/http"

	"github.com/digitallysavvy/deepreader/internal/pool"
)

// queueStatsResponse groups the main analysis queue's counters with the
// derived-artifact pipeline's two dedicated pools, so one poll answers
// "what is the whole service doing right now".
type queueStatsResponse struct {
	Analysis pool.Stats `json:"analysis"`
	Visual   pool.Stats `json:"visual"`
	TTS      pool.Stats `json:"tts"`
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	resp := queueStatsResponse{Analysis: s.Queue.Stats()}
	if s.Derived != nil {
		resp.Visual = s.Derived.VisualStats()
		resp.TTS = s.Derived.TTSStats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// queuedTaskEntry is one waiting task in the dequeue-order listing, with
// its registry snapshot fields a dashboard actually shows.
type queuedTaskEntry struct {
	TaskID   string `json:"task_id"`
	Type     string `json:"type,omitempty"`
	Priority int    `json:"priority"`
	Position int    `json:"position"`
}

func (s *Server) handleQueueTasks(w http.ResponseWriter, r *http.Request) {
	ids := s.Queue.QueuedTaskIDs()
	entries := make([]queuedTaskEntry, 0, len(ids))
	for i, id := range ids {
		e := queuedTaskEntry{TaskID: id, Position: i + 1}
		if snap, ok := s.Registry.GetSnapshot(id); ok {
			e.Type = string(snap.Type)
			e.Priority = int(snap.Priority)
		}
		entries = append(entries, e)
	}
	writeJSON(w, http.StatusOK, entries)
}
