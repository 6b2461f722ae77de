package router

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTaskRunner_Complete(t *testing.T) {
	tr := NewTaskRunner(2, testLogger())
	id := tr.Submit("noop", func(context.Context) error { return nil })
	tr.Wait()

	task, ok := tr.Get(id)
	if !ok {
		t.Fatal("task not tracked")
	}
	if task.Status != TaskComplete {
		t.Errorf("expected complete, got %s", task.Status)
	}
}

func TestTaskRunner_Failed(t *testing.T) {
	tr := NewTaskRunner(2, testLogger())
	id := tr.Submit("boom", func(context.Context) error { return errors.New("boom") })
	tr.Wait()

	task, _ := tr.Get(id)
	if task.Status != TaskFailed {
		t.Errorf("expected failed, got %s", task.Status)
	}
	if task.Error != "boom" {
		t.Errorf("expected error recorded, got %q", task.Error)
	}
}

func TestTaskRunner_PanicIsSupervised(t *testing.T) {
	tr := NewTaskRunner(2, testLogger())
	id := tr.Submit("panics", func(context.Context) error { panic("kaboom") })
	// Must not crash the process.
	tr.Wait()

	task, _ := tr.Get(id)
	if task.Status != TaskFailed {
		t.Errorf("panicking task should be marked failed, got %s", task.Status)
	}
}

func TestTaskRunner_BoundedConcurrency(t *testing.T) {
	tr := NewTaskRunner(1, testLogger())
	running := make(chan struct{}, 2)
	release := make(chan struct{})

	for i := 0; i < 2; i++ {
		tr.Submit("slow", func(context.Context) error {
			running <- struct{}{}
			<-release
			return nil
		})
	}

	<-running
	select {
	case <-running:
		t.Error("second task ran before the first finished despite 1 slot")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	tr.Wait()
}

func TestTaskRunner_FinishedTasksDoNotAccumulate(t *testing.T) {
	tr := NewTaskRunner(8, testLogger())
	for i := 0; i < 500; i++ {
		tr.Submit("noop", func(context.Context) error { return nil })
	}
	tr.Wait()

	tr.mu.RLock()
	n := len(tr.tasks)
	tr.mu.RUnlock()
	if n > maxFinishedTasks {
		t.Errorf("tracking map holds %d entries after 500 completed tasks, want at most %d", n, maxFinishedTasks)
	}
}

func TestTaskRunner_Clean(t *testing.T) {
	tr := NewTaskRunner(2, testLogger())
	tr.Submit("noop", func(context.Context) error { return nil })
	tr.Wait()

	if removed := tr.Clean(0); removed != 1 {
		t.Errorf("expected 1 cleaned, got %d", removed)
	}
}
