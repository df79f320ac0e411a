package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digitallysavvy/deepreader/internal/taskerr"
)

// cancelSettleWait bounds how long Cancel waits for a running task to reach
// a terminal state cooperatively before returning.
const cancelSettleWait = 2 * time.Second

// logRingSize bounds the in-memory log backlog kept per task, matching the
// event bus's own retention ring so a GetSnapshot and a replay see a
// consistent amount of history.
const logRingSize = 200

// EventPublisher is the narrow interface Registry publishes through. It is
// satisfied by internal/events.Bus; Registry depends on this interface
// rather than the concrete bus type to avoid a package cycle (the bus has
// no need to know about Task).
type EventPublisher interface {
	Publish(taskID string, eventType string, payload interface{})
}

// Registry is the task state & event bus's status-keeping half: a
// mutex-guarded in-memory map from task_id to Task.
type Registry struct {
	mu          sync.Mutex
	tasks       map[string]*Task
	publisher   EventPublisher
	cancelFuncs map[string]func()
}

// NewRegistry creates an empty Registry publishing through pub.
func NewRegistry(pub EventPublisher) *Registry {
	return &Registry{tasks: make(map[string]*Task), publisher: pub, cancelFuncs: make(map[string]func())}
}

// RegisterCancelFunc records the function that signals a running task's
// workflow to abort cooperatively. The Generation Workflow calls this once
// at the start of its run and relies on the registry to invoke it on
// Cancel; it is forgotten once the task reaches a terminal state.
func (r *Registry) RegisterCancelFunc(taskID string, cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelFuncs[taskID] = cancel
}

// Cancel requests cancellation of taskID. A queued task is transitioned
// directly to cancelled. A running task's registered cancel func is
// invoked and Cancel waits up to cancelSettleWait for the workflow to
// observe it and reach a terminal state on its own; either way the request
// is reported as accepted once a cancel signal has been delivered (or the
// task was already queued-only and needed no signal). Cancel on an already
// terminal task reports not-accepted without error; only an unknown task_id
// is an error.
func (r *Registry) Cancel(taskID string) (accepted bool, err error) {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("unknown task %q", taskID)
	}

	switch t.Status {
	case StatusQueued:
		now := time.Now()
		t.Status = StatusCancelled
		t.Error = taskerr.New(taskerr.KindWorkflowCancelled, "queued", "cancelled before dispatch", 0, nil)
		t.UpdatedAt = now
		t.CompletedAt = &now
		r.mu.Unlock()
		r.publish(taskID, "error", t.Error)
		return true, nil

	case StatusRunning:
		cancel := r.cancelFuncs[taskID]
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		r.awaitTerminal(taskID, cancelSettleWait)
		return true, nil

	default:
		r.mu.Unlock()
		return false, nil
	}
}

func (r *Registry) awaitTerminal(taskID string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if snap, ok := r.GetSnapshot(taskID); ok && snap.Status.IsTerminal() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// CreateTask registers a new queued task and returns its id.
func (r *Registry) CreateTask(taskType Type, payload Payload, priority Priority) string {
	id := uuid.NewString()
	now := time.Now()

	r.mu.Lock()
	r.tasks[id] = &Task{
		ID:        id,
		Type:      taskType,
		Priority:  priority,
		Status:    StatusQueued,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Unlock()

	return id
}

// UpdateStatus transitions a task along its state machine. An invalid edge
// (e.g. queued → succeeded directly) is rejected rather than silently
// applied.
func (r *Registry) UpdateStatus(taskID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return fmt.Errorf("unknown task %q", taskID)
	}
	if !t.Status.canTransitionTo(status) {
		return fmt.Errorf("task %q: invalid transition %s -> %s", taskID, t.Status, status)
	}
	now := time.Now()
	t.Status = status
	t.UpdatedAt = now
	if status == StatusRunning && t.StartedAt == nil {
		t.StartedAt = &now
	}
	if status.IsTerminal() && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	return nil
}

// UpdateProgress sets progress_pct, rejecting any decrease per the
// monotonicity invariant, and publishes a progress event.
func (r *Registry) UpdateProgress(taskID string, pct int) error {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown task %q", taskID)
	}
	if pct < t.ProgressPct {
		r.mu.Unlock()
		return fmt.Errorf("task %q: progress_pct must not decrease (%d -> %d)", taskID, t.ProgressPct, pct)
	}
	t.ProgressPct = pct
	t.UpdatedAt = time.Now()
	r.mu.Unlock()

	r.publish(taskID, "progress", pct)
	return nil
}

// AppendLog appends line to the task's bounded log ring and publishes a log
// event.
func (r *Registry) AppendLog(taskID string, line string) error {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown task %q", taskID)
	}
	t.Logs = append(t.Logs, line)
	if len(t.Logs) > logRingSize {
		t.Logs = t.Logs[len(t.Logs)-logRingSize:]
	}
	t.UpdatedAt = time.Now()
	r.mu.Unlock()

	r.publish(taskID, "log", line)
	return nil
}

// SetResult records a successful run's artifact reference, transitions the
// task to succeeded, and publishes the terminal result event. Per the
// single-terminal invariant this must not be called after SetError or after
// another SetResult for the same task.
func (r *Registry) SetResult(taskID string, result ResultRef) error {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown task %q", taskID)
	}
	if t.Status.IsTerminal() {
		r.mu.Unlock()
		return fmt.Errorf("task %q: already terminal (%s)", taskID, t.Status)
	}
	now := time.Now()
	t.Result = &result
	t.Status = StatusSucceeded
	t.UpdatedAt = now
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	delete(r.cancelFuncs, taskID)
	r.mu.Unlock()

	r.publish(taskID, "result", result)
	return nil
}

// SetError records a failure, transitions the task to the terminal status
// implied by err's kind, and publishes the terminal error event.
func (r *Registry) SetError(taskID string, err *taskerr.TaskError) error {
	r.mu.Lock()
	t, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown task %q", taskID)
	}
	if t.Status.IsTerminal() {
		r.mu.Unlock()
		return fmt.Errorf("task %q: already terminal (%s)", taskID, t.Status)
	}
	now := time.Now()
	t.Error = err
	t.Status = terminalStatusFor(err.Kind)
	t.UpdatedAt = now
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	delete(r.cancelFuncs, taskID)
	r.mu.Unlock()

	r.publish(taskID, "error", err)
	return nil
}

func terminalStatusFor(kind taskerr.Kind) Status {
	switch kind {
	case taskerr.KindWorkflowCancelled:
		return StatusCancelled
	case taskerr.KindWorkflowTimeout:
		return StatusTimeout
	default:
		return StatusFailed
	}
}

// GetSnapshot returns a copy of the task's current state for polling
// clients.
func (r *Registry) GetSnapshot(taskID string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	snap := *t
	snap.Logs = append([]string(nil), t.Logs...)
	return snap, true
}

func (r *Registry) publish(taskID, eventType string, payload interface{}) {
	if r.publisher != nil {
		r.publisher.Publish(taskID, eventType, payload)
	}
}
