package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digitallysavvy/deepreader/internal/pool"
	"github.com/digitallysavvy/deepreader/internal/task"
)

// supportedExtensions is enumerated at entry: unsupported extensions are
// rejected before any bytes are read into memory.
var supportedExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".txt": true, ".md": true, ".markdown": true,
}

type submitYouTubeRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	TaskID   string `json:"task_id"`
}

type submitResponse struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	QueueInfo struct {
		Queued  int `json:"queued"`
		Running int `json:"running"`
	} `json:"queue_info"`
}

// handleSubmitTask submits a job. A JSON body carrying a "url" field
// submits a subtitle/video source; a multipart/form-data body is a file
// upload. Any other content type is rejected with 400 invalid_input.
func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		s.submitYouTube(w, r)
		return
	}
	if strings.HasPrefix(contentType, "multipart/form-data") {
		s.submitFile(w, r)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_input", "unsupported content type for task submission")
}

func (s *Server) submitYouTube(w http.ResponseWriter, r *http.Request) {
	var req submitYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "url is required")
		return
	}

	if req.TaskID != "" {
		if snap, ok := s.Registry.GetSnapshot(req.TaskID); ok {
			s.respondSubmitted(w, snap.ID, "reconnected")
			return
		}
	}

	taskID := s.Registry.CreateTask(task.TypeYouTube,
		task.SubtitlePayload{URL: req.URL},
		priorityFrom(req.Priority))
	if err := s.dispatch(taskID); err != nil {
		s.respondDispatchError(w, err)
		return
	}
	s.respondSubmitted(w, taskID, "created")
}

func (s *Server) submitFile(w http.ResponseWriter, r *http.Request) {
	maxSize := s.MaxBinaryFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "could not parse multipart form (or file too large)")
		return
	}

	if reconnectID := r.FormValue("task_id"); reconnectID != "" {
		if snap, ok := s.Registry.GetSnapshot(reconnectID); ok {
			s.respondSubmitted(w, snap.ID, "reconnected")
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !supportedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "unsupported_format", fmt.Sprintf("extension %q is not supported", ext))
		return
	}

	limit := s.MaxBinaryFileSize
	if ext == ".txt" || ext == ".md" || ext == ".markdown" {
		limit = s.MaxTextFileSize
	}

	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(file), limit+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "failed reading upload")
		return
	}
	if int64(len(data)) > limit {
		writeError(w, http.StatusBadRequest, "invalid_input", "file exceeds the configured size limit")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, ext)
	}
	priority, _ := strconv.Atoi(r.FormValue("priority"))

	taskType := task.TypeDocument
	if ext == ".pdf" {
		taskType = task.TypePDF
	}

	taskID := s.Registry.CreateTask(taskType, task.FilePayload{
		Filename: header.Filename,
		Data:     data,
		MimeType: mimeForExt(ext),
		Title:    title,
	}, priorityFrom(priority))

	if err := s.dispatch(taskID); err != nil {
		s.respondDispatchError(w, err)
		return
	}
	s.respondSubmitted(w, taskID, "created")
}

func mimeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func priorityFrom(n int) task.Priority {
	switch {
	case n <= int(task.PriorityLow):
		return task.PriorityLow
	case n >= int(task.PriorityUrgent):
		return task.PriorityUrgent
	default:
		return task.Priority(n)
	}
}

// dispatch hands taskID to the worker pool: queued -> running happens the
// moment a worker slot picks it up, and the workflow body does the rest
// through the registry it already holds. The bounded queue rejects
// synchronously when full; on rejection the task record is cancelled and
// the error is returned so the caller replies with a 503 instead of
// silently reporting success.
func (s *Server) dispatch(taskID string) error {
	snap, ok := s.Registry.GetSnapshot(taskID)
	if !ok {
		return fmt.Errorf("task %q vanished before dispatch", taskID)
	}

	err := s.Queue.Submit(pool.WorkerTask{
		TaskID:   taskID,
		Priority: snap.Priority,
		Timeout:  s.taskTimeout(),
		Run: func(ctx context.Context) error {
			cur, ok := s.Registry.GetSnapshot(taskID)
			if !ok {
				return fmt.Errorf("task %q vanished before dispatch", taskID)
			}
			if err := s.Registry.UpdateStatus(taskID, task.StatusRunning); err != nil {
				return err
			}
			return s.Workflow.Run(ctx, cur)
		},
	})
	if err != nil {
		_, _ = s.Registry.Cancel(taskID)
	}
	return err
}

// respondDispatchError maps a dispatch failure onto the HTTP response: a
// full queue is a synchronous 503 queue_full per the bounded-queue
// contract, anything else (pool shut down mid-request) is an internal
// error.
func (s *Server) respondDispatchError(w http.ResponseWriter, err error) {
	if errors.Is(err, pool.ErrQueueFull()) {
		writeError(w, http.StatusServiceUnavailable, "queue_full", "the analysis queue is full; try again shortly")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "internal", "task queue is unavailable")
}

func (s *Server) taskTimeout() time.Duration {
	if s.defaultTaskTimeout > 0 {
		return s.defaultTaskTimeout
	}
	return time.Hour
}

func (s *Server) respondSubmitted(w http.ResponseWriter, taskID, status string) {
	stats := s.Queue.Stats()
	resp := submitResponse{TaskID: taskID, Status: status}
	resp.QueueInfo.Queued = stats.Queued
	resp.QueueInfo.Running = stats.Running
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	snap, ok := s.Registry.GetSnapshot(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid_input", "unknown task")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	accepted, err := s.Registry.Cancel(taskID)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": accepted})
}
