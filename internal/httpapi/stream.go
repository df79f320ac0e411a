package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digitallysavvy/deepreader/internal/derived"
	"github.com/digitallysavvy/deepreader/internal/events"
)

// heartbeatInterval is the cadence of keepalive heartbeat events sent to an
// idle stream subscriber.
const heartbeatInterval = 15 * time.Second

// handleStreamEvents streams a task's events as server-sent events: the
// replay backlog since_event_id first, then live events, with a periodic
// heartbeat so a client (or an intervening proxy) never sees the connection
// go quiet.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if _, ok := s.Registry.GetSnapshot(taskID); !ok {
		writeError(w, http.StatusNotFound, "invalid_input", "unknown task")
		return
	}
	s.streamBusKey(w, r, taskID)
}

// handleStreamTTSEvents streams the chunk/complete/error events a TTS
// request publishes under derived.TTSStreamKey, reachable independently of
// any task (pre-generation follow-ons and on-demand requests both publish
// under the same key for a given docHash/voice/language).
func (s *Server) handleStreamTTSEvents(w http.ResponseWriter, r *http.Request) {
	docHash := chi.URLParam(r, "docHash")
	if _, err := s.Store.GetLatest(docHash); err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", "unknown artifact")
		return
	}
	voice, language := s.ttsQueryParams(r)
	s.streamBusKey(w, r, derived.TTSStreamKey(docHash, voice, language))
}

// streamBusKey subscribes to key on the event bus and streams it as
// server-sent events: the replay backlog since_event_id first, then live
// events, with a periodic heartbeat so a client (or an intervening proxy)
// never sees the connection go quiet.
func (s *Server) streamBusKey(w http.ResponseWriter, r *http.Request, key string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	var since int64
	if v := r.URL.Query().Get("since_event_id"); v != "" {
		since, _ = strconv.ParseInt(v, 10, 64)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := s.Bus.Subscribe(key, since)
	defer sub.Close()

	for _, ev := range sub.Replay {
		writeSSEEvent(w, ev)
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Live:
			if !ok {
				return
			}
			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, "event: heartbeat\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, payload)
}
