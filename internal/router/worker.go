package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orunmila/internal/metrics"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a background task.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskRunning  TaskStatus = "running"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// Task tracks one background message-processing run.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    TaskStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	DoneAt    time.Time  `json:"done_at,omitempty"`
}

// TaskRunner executes background tasks with bounded concurrency and
// panic supervision. A panicking task is logged and marked failed
// instead of dying silently.
type TaskRunner struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	slots  chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewTaskRunner(maxConcurrent int, logger *slog.Logger) *TaskRunner {
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRunner{
		tasks:  make(map[string]*Task),
		slots:  make(chan struct{}, maxConcurrent),
		logger: logger,
	}
}

// Submit schedules fn on its own goroutine and returns immediately with
// the task id. The task runs under a fresh context: the inbound HTTP
// request is acknowledged before the outcome is known, so request
// cancellation must not propagate here.
func (tr *TaskRunner) Submit(name string, fn func(ctx context.Context) error) string {
	id := uuid.NewString()
	task := &Task{
		ID:        id,
		Name:      name,
		Status:    TaskPending,
		StartedAt: time.Now(),
	}
	tr.mu.Lock()
	tr.tasks[id] = task
	tr.mu.Unlock()

	tr.logger.Debug("background task submitted", "id", id, "name", name)

	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()

		tr.slots <- struct{}{}
		defer func() { <-tr.slots }()

		tr.setStatus(id, TaskRunning, "")
		metrics.TasksActive.Inc()
		defer metrics.TasksActive.Dec()

		defer func() {
			if r := recover(); r != nil {
				tr.logger.Error("background task panicked", "id", id, "name", name, "panic", r)
				tr.setStatus(id, TaskFailed, fmt.Sprintf("panic: %v", r))
			}
		}()

		if err := fn(context.Background()); err != nil {
			tr.logger.Error("background task failed", "id", id, "name", name, "err", err)
			tr.setStatus(id, TaskFailed, err.Error())
			return
		}
		tr.setStatus(id, TaskComplete, "")
	}()

	return id
}

func (tr *TaskRunner) setStatus(id string, status TaskStatus, errMsg string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	task, ok := tr.tasks[id]
	if !ok {
		return
	}
	task.Status = status
	task.Error = errMsg
	if status == TaskComplete || status == TaskFailed {
		task.DoneAt = time.Now()
		tr.pruneFinished()
	}
}

const (
	finishedTaskRetention = time.Hour
	maxFinishedTasks      = 256
)

// pruneFinished drops stale finished entries so that one submission per
// inbound message cannot grow the tracking map without bound. Caller
// must hold mu.
func (tr *TaskRunner) pruneFinished() {
	cutoff := time.Now().Add(-finishedTaskRetention)
	finished := 0
	var oldestID string
	var oldestDone time.Time
	for id, t := range tr.tasks {
		if t.Status != TaskComplete && t.Status != TaskFailed {
			continue
		}
		if t.DoneAt.Before(cutoff) {
			delete(tr.tasks, id)
			continue
		}
		finished++
		if oldestID == "" || t.DoneAt.Before(oldestDone) {
			oldestID, oldestDone = id, t.DoneAt
		}
	}
	if finished > maxFinishedTasks {
		delete(tr.tasks, oldestID)
	}
}

// Get returns a copy of the task's current state.
func (tr *TaskRunner) Get(id string) (Task, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	task, ok := tr.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Wait blocks until all submitted tasks have finished. Used for
// graceful shutdown and deterministic tests.
func (tr *TaskRunner) Wait() {
	tr.wg.Wait()
}

// Clean removes finished tasks older than maxAge and returns the count.
func (tr *TaskRunner) Clean(maxAge time.Duration) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, t := range tr.tasks {
		if (t.Status == TaskComplete || t.Status == TaskFailed) && t.DoneAt.Before(cutoff) {
			delete(tr.tasks, id)
			removed++
		}
	}
	return removed
}
