package task

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTaskStore is an in-memory TaskStore for runner tests.
type memoryTaskStore struct {
	mu       sync.Mutex
	saved    []Task
	statuses map[uuid.UUID]TaskStatus
	pending  []Task
	saveErr  error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{statuses: make(map[uuid.UUID]TaskStatus)}
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, t)
	s.statuses[t.ID()] = TaskStatusPending
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.pending...), nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	return nil, nil
}

func (s *memoryTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

func (s *memoryTaskStore) status(taskID uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[taskID]
}

// fakeTask is a minimal Task whose Execute reports to a channel.
type fakeTask struct {
	id      uuid.UUID
	execErr error
	done    chan struct{}
}

func newFakeTask(execErr error) *fakeTask {
	return &fakeTask{id: uuid.New(), execErr: execErr, done: make(chan struct{})}
}

func (t *fakeTask) ID() uuid.UUID      { return t.id }
func (t *fakeTask) Type() string       { return "fake" }
func (t *fakeTask) Payload() []byte    { return []byte(`{}`) }
func (t *fakeTask) Status() TaskStatus { return TaskStatusPending }

func (t *fakeTask) Execute(ctx context.Context) error {
	defer close(t.done)
	return t.execErr
}

func (t *fakeTask) waitDone(tb testing.TB) {
	tb.Helper()
	select {
	case <-t.done:
	case <-time.After(5 * time.Second):
		tb.Fatal("task was never executed")
	}
}

func testRunnerConfig() TaskRunnerConfig {
	cfg := DefaultTaskRunnerConfig()
	cfg.WorkerCount = 1
	cfg.QueueSize = 4
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitForStatus polls the store until the task reaches the wanted
// terminal status. Workers update status after Execute returns, so the
// done channel alone is not enough.
func waitForStatus(t *testing.T, store *memoryTaskStore, taskID uuid.UUID, want TaskStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.status(taskID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %q (last: %q)", taskID, want, store.status(taskID))
}

func TestTaskRunnerSubmit(t *testing.T) {
	t.Run("persists before queuing", func(t *testing.T) {
		store := newMemoryTaskStore()
		runner := NewTaskRunner(store, testRunnerConfig(), testLogger())

		ft := newFakeTask(nil)
		require.NoError(t, runner.Submit(context.Background(), ft))

		assert.Len(t, store.saved, 1)
		assert.Equal(t, TaskStatusPending, store.status(ft.ID()))
	})

	t.Run("save failure rejects the task", func(t *testing.T) {
		store := newMemoryTaskStore()
		store.saveErr = errors.New("connection refused")
		runner := NewTaskRunner(store, testRunnerConfig(), testLogger())

		err := runner.Submit(context.Background(), newFakeTask(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
	})

	t.Run("full queue is reported", func(t *testing.T) {
		store := newMemoryTaskStore()
		cfg := testRunnerConfig()
		cfg.QueueSize = 1
		runner := NewTaskRunner(store, cfg, testLogger())

		// Workers are not started, so the first task fills the queue.
		require.NoError(t, runner.Submit(context.Background(), newFakeTask(nil)))
		err := runner.Submit(context.Background(), newFakeTask(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue is full")
	})
}

func TestTaskRunnerExecution(t *testing.T) {
	t.Run("successful task is marked completed", func(t *testing.T) {
		store := newMemoryTaskStore()
		runner := NewTaskRunner(store, testRunnerConfig(), testLogger())
		require.NoError(t, runner.Start())
		defer runner.Stop()

		ft := newFakeTask(nil)
		require.NoError(t, runner.Submit(context.Background(), ft))

		ft.waitDone(t)
		waitForStatus(t, store, ft.ID(), TaskStatusCompleted)
	})

	t.Run("failing task is marked failed and reaches the error handler", func(t *testing.T) {
		store := newMemoryTaskStore()
		runner := NewTaskRunner(store, testRunnerConfig(), testLogger())

		handled := make(chan error, 1)
		runner.SetErrorHandler(func(task Task, err error) {
			handled <- err
		})

		require.NoError(t, runner.Start())
		defer runner.Stop()

		ft := newFakeTask(errors.New("organism fetch failed"))
		require.NoError(t, runner.Submit(context.Background(), ft))

		ft.waitDone(t)
		waitForStatus(t, store, ft.ID(), TaskStatusFailed)

		select {
		case err := <-handled:
			assert.ErrorContains(t, err, "organism fetch failed")
		case <-time.After(5 * time.Second):
			t.Fatal("error handler was never called")
		}
	})
}

func TestTaskRunnerRecover(t *testing.T) {
	store := newMemoryTaskStore()
	ft := newFakeTask(nil)
	store.pending = []Task{ft}

	runner := NewTaskRunner(store, testRunnerConfig(), testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	ft.waitDone(t)
	waitForStatus(t, store, ft.ID(), TaskStatusCompleted)
}
