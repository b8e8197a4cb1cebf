package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.magpiehq.com/developer-challenge/smartphones/"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func succeedingRun(ctx context.Context, task *queue.Task) ([]models.Product, *models.RunSummary, error) {
	summary := models.NewRunSummary(task.ID, task.BaseURL)
	summary.RecordsKept = 1
	summary.FinishedAt = time.Now()
	return []models.Product{{Title: "iPhone 11 64GB", Colour: "black"}}, summary, nil
}

func failingRun(ctx context.Context, task *queue.Task) ([]models.Product, *models.RunSummary, error) {
	return nil, models.NewRunSummary(task.ID, task.BaseURL), errors.New("first page unavailable")
}

func waitForStatus(t *testing.T, m *Manager, runID, status string) *Run {
	t.Helper()
	var run *Run
	require.Eventually(t, func() bool {
		var err error
		run, err = m.GetRun(runID)
		return err == nil && run.Status == status
	}, time.Second, 5*time.Millisecond)
	return run
}

func TestCreateRunQueuesTask(t *testing.T) {
	q := queue.NewInMemoryQueue(10)
	m := NewManager(q, succeedingRun, testLogger())

	run, err := m.CreateRun(testBaseURL, "strict")
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusPending, run.Status)
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, 1, m.GetStats().PendingRuns)
}

func TestCreateRunQueueFull(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(1), succeedingRun, testLogger())

	_, err := m.CreateRun(testBaseURL, "strict")
	require.NoError(t, err)

	_, err = m.CreateRun(testBaseURL, "strict")
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Len(t, m.ListRuns(), 1)
}

func TestWorkerCompletesRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(queue.NewInMemoryQueue(10), succeedingRun, testLogger())
	go m.StartWorker(ctx)

	created, err := m.CreateRun(testBaseURL, "strict")
	require.NoError(t, err)

	run := waitForStatus(t, m, created.ID, StatusCompleted)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.CompletedAt)
	require.NotNil(t, run.Summary)
	assert.Equal(t, created.ID, run.Summary.RunID)

	products, err := m.GetRunProducts(created.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, m.GetStats().CompletedRuns)
}

func TestWorkerRecordsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(queue.NewInMemoryQueue(10), failingRun, testLogger())
	go m.StartWorker(ctx)

	created, err := m.CreateRun(testBaseURL, "strict")
	require.NoError(t, err)

	run := waitForStatus(t, m, created.ID, StatusFailed)
	assert.Equal(t, "first page unavailable", run.Error)

	products, err := m.GetRunProducts(created.ID)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateRunWhileWorkerRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(queue.NewInMemoryQueue(500), succeedingRun, testLogger())
	go m.StartWorker(ctx)

	for i := 0; i < 200; i++ {
		run, err := m.CreateRun(testBaseURL, "strict")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, run.Status)
		assert.Nil(t, run.StartedAt)
	}
}

func TestWorkerStopsWhenQueueClosed(t *testing.T) {
	q := queue.NewInMemoryQueue(1)
	m := NewManager(q, succeedingRun, testLogger())

	done := make(chan struct{})
	go func() {
		m.StartWorker(context.Background())
		close(done)
	}()

	require.NoError(t, q.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestUnknownRun(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(1), succeedingRun, testLogger())

	_, err := m.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = m.GetRunProducts("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	m := NewManager(queue.NewInMemoryQueue(10), succeedingRun, testLogger())

	first, err := m.CreateRun(testBaseURL, "strict")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := m.CreateRun(testBaseURL, "keep-first")
	require.NoError(t, err)

	runs := m.ListRuns()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}
