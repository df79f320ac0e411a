// Package task defines the Task state machine and its registry, the
// per-job status/progress/log record the rest of the system reads and
// writes through.
package task

import (
	"time"

	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// Type is the kind of job a Task represents.
type Type string

const (
	TypeYouTube   Type = "youtube"
	TypePDF       Type = "pdf"
	TypeDocument  Type = "document"
	TypeUltraDeep Type = "ultra_deep"
	TypeVisual    Type = "visual"
	TypeTTSPregen Type = "tts_pregen"
)

// Priority is the queue ordinal. Higher values are served first.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
	PriorityUrgent Priority = 3
)

// Status is a Task's state-machine value.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
)

// IsTerminal reports whether s is a final state no further transition
// leaves.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	default:
		return false
	}
}

// validTransitions encodes every edge the state machine allows. queued may
// move to running or straight to cancelled (a queued task cancelled before
// it is ever dequeued); running may move to any terminal state.
var validTransitions = map[Status]map[Status]bool{
	StatusQueued:  {StatusRunning: true, StatusCancelled: true},
	StatusRunning: {StatusSucceeded: true, StatusFailed: true, StatusCancelled: true, StatusTimeout: true},
}

func (s Status) canTransitionTo(next Status) bool {
	edges, ok := validTransitions[s]
	return ok && edges[next]
}

// Payload is a tagged union over the per-task_type input a Task carries.
type Payload interface {
	PayloadType() string
}

// SubtitlePayload is a YouTube-style source identified by URL.
type SubtitlePayload struct {
	URL string
}

func (SubtitlePayload) PayloadType() string { return "subtitle" }

// FilePayload is an uploaded document (PDF/DOCX/plain text).
type FilePayload struct {
	Filename string
	Data     []byte
	MimeType string
	Title    string
}

func (FilePayload) PayloadType() string { return "file" }

// EnrichPayload names an existing artifact to derive a sibling from (visual
// HTML, TTS pre-generation).
type EnrichPayload struct {
	DocHash string
}

func (EnrichPayload) PayloadType() string { return "enrich" }

// ResultRef points at the committed artifact a successful run produced.
type ResultRef struct {
	DocHash string
	Version int
	TitleCN string
}

// Task is the full status record for one job. Snapshots are values; the
// Registry is the only writer.
type Task struct {
	ID          string
	Type        Type
	Priority    Priority
	Status      Status
	ProgressPct int
	Logs        []string

	Payload Payload
	Result  *ResultRef
	Error   *taskerr.TaskError

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
