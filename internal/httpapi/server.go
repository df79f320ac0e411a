// Package httpapi is the chi-based HTTP transport for the job-submission,
// streaming, and artifact surfaces, built as a struct of collaborators this
// service dispatches into rather than package-level globals.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/derived"
	"github.com/digitallysavvy/deepreader/internal/events"
	"github.com/digitallysavvy/deepreader/internal/pool"
	"github.com/digitallysavvy/deepreader/internal/provider"
	"github.com/digitallysavvy/deepreader/internal/task"
	"github.com/digitallysavvy/deepreader/internal/workflow"
)

// requestTimeout bounds every HTTP request's handler time, independent of
// the much longer per-task deadline a submitted job runs under inside the
// pool.
const requestTimeout = 30 * time.Second

// Server holds every collaborator the HTTP surface dispatches into. One
// Server backs the whole process; handlers are methods on it.
type Server struct {
	Log *zap.Logger

	Store    *artifact.Store
	Bus      *events.Bus
	Registry *task.Registry
	Queue    *pool.Pool
	Workflow *workflow.Workflow
	Derived  *derived.Pipeline

	Model provider.LanguageModel

	MaxTextFileSize   int64
	MaxBinaryFileSize int64

	BearerTokens []string

	defaultTaskTimeout time.Duration
	defaultTTSVoice    string
	defaultTTSLanguage string
}

// SetTaskTimeout records the per-task deadline ANALYSIS_TASK_TIMEOUT
// configures; dispatch uses it to bound the worker-pool slot a submitted
// job runs in.
func (s *Server) SetTaskTimeout(d time.Duration) { s.defaultTaskTimeout = d }

// SetTTSDefaults records the TTS_DEFAULT_VOICE/TTS_DEFAULT_LANGUAGE values a
// TTS request can omit.
func (s *Server) SetTTSDefaults(voice, language string) {
	s.defaultTTSVoice = voice
	s.defaultTTSLanguage = language
}

// NewRouter builds the chi router for every route this service exposes:
// public reads open, mutating operations gated by bearerAuth.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// The SSE routes live outside the request-timeout group: a live event
	// stream is expected to stay open for the whole run, bounded only by
	// the client hanging up.
	r.Get("/tasks/{taskID}/events", s.handleStreamEvents)
	r.Get("/artifacts/{docHash}/tts/events", s.handleStreamTTSEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/healthz", s.handleHealthz)

		r.Route("/tasks", func(r chi.Router) {
			r.With(s.bearerAuth).Post("/", s.handleSubmitTask)
			r.Get("/{taskID}", s.handleGetTask)
			r.With(s.bearerAuth).Post("/{taskID}/cancel", s.handleCancelTask)
		})

		r.Get("/queue/stats", s.handleQueueStats)
		r.Get("/queue/tasks", s.handleQueueTasks)
		r.Get("/lookup", s.handleLookup)

		r.Route("/artifacts", func(r chi.Router) {
			r.Get("/", s.handleListArtifacts)
			r.Get("/{docHash}", s.handleGetArtifact)
			r.Get("/{docHash}/versions/{version}", s.handleGetArtifactVersion)
			r.Get("/{docHash}/markdown", s.handleGetMarkdown)
			r.Get("/{docHash}/pdf", s.handleGetPDF)
			r.Get("/{docHash}/visual", s.handleGetVisual)
			r.Get("/{docHash}/tts", s.handleGetTTSStatus)
			r.With(s.bearerAuth).Post("/{docHash}/tts", s.handleRequestTTS)
			r.Get("/{docHash}/tts/chunks/{chunk}", s.handleGetTTSChunk)
			r.With(s.bearerAuth).Delete("/{docHash}", s.handleDeleteArtifact)
			r.With(s.bearerAuth).Post("/{docHash}/restore", s.handleRestoreArtifact)
		})

		r.Get("/trash", s.handleListTrash)
		r.With(s.bearerAuth).Delete("/trash/{entry}", s.handlePurgeTrash)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
