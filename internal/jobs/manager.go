package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/smartphone-scraper/internal/models"
	"github.com/maltedev/smartphone-scraper/internal/queue"
)

var ErrRunNotFound = errors.New("run not found")

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunFunc executes one crawl for a queued task.
type RunFunc func(ctx context.Context, task *queue.Task) ([]models.Product, *models.RunSummary, error)

// Run is a crawl requested through the manager.
type Run struct {
	ID          string             `json:"id"`
	BaseURL     string             `json:"base_url"`
	DedupMode   string             `json:"dedup_mode"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	Summary     *models.RunSummary `json:"summary,omitempty"`
}

// Stats counts runs by status.
type Stats struct {
	TotalRuns     int `json:"total_runs"`
	PendingRuns   int `json:"pending_runs"`
	RunningRuns   int `json:"running_runs"`
	CompletedRuns int `json:"completed_runs"`
	FailedRuns    int `json:"failed_runs"`
	QueuedTasks   int `json:"queued_tasks"`
}

// Manager keeps runs and their products in memory. Nothing survives a restart.
type Manager struct {
	queue  queue.Queue
	run    RunFunc
	logger *slog.Logger

	mu       sync.RWMutex
	runs     map[string]*Run
	products map[string][]models.Product
}

func NewManager(q queue.Queue, run RunFunc, logger *slog.Logger) *Manager {
	return &Manager{
		queue:    q,
		run:      run,
		logger:   logger.With("component", "run_manager"),
		runs:     make(map[string]*Run),
		products: make(map[string][]models.Product),
	}
}

// CreateRun registers a pending run and queues it for the worker.
func (m *Manager) CreateRun(baseURL, dedupMode string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		BaseURL:   baseURL,
		DedupMode: dedupMode,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	// Snapshot before the push: once queued, the worker may update the run.
	m.mu.Lock()
	m.runs[run.ID] = run
	created := m.snapshot(run)
	m.mu.Unlock()

	err := m.queue.Push(&queue.Task{
		ID:        run.ID,
		BaseURL:   baseURL,
		DedupMode: dedupMode,
		CreatedAt: run.CreatedAt,
	})
	if err != nil {
		m.mu.Lock()
		delete(m.runs, run.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to queue run: %w", err)
	}

	m.logger.Info("run created", "id", created.ID, "base_url", baseURL)
	return created, nil
}

func (m *Manager) GetRun(runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return m.snapshot(run), nil
}

// ListRuns returns every run, newest first.
func (m *Manager) ListRuns() []*Run {
	m.mu.RLock()
	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, m.snapshot(run))
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// GetRunProducts returns the deduplicated products of a run. A run that has
// not completed yet has none.
func (m *Manager) GetRunProducts(runID string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.runs[runID]; !ok {
		return nil, ErrRunNotFound
	}

	products := make([]models.Product, len(m.products[runID]))
	copy(products, m.products[runID])
	return products, nil
}

func (m *Manager) GetStats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		TotalRuns:   len(m.runs),
		QueuedTasks: m.queue.Size(),
	}
	for _, run := range m.runs {
		switch run.Status {
		case StatusPending:
			stats.PendingRuns++
		case StatusRunning:
			stats.RunningRuns++
		case StatusCompleted:
			stats.CompletedRuns++
		case StatusFailed:
			stats.FailedRuns++
		}
	}
	return stats
}

func (m *Manager) updateStatus(runID, status string, summary *models.RunSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return
	}

	now := time.Now()
	run.Status = status
	switch status {
	case StatusRunning:
		run.StartedAt = &now
	case StatusCompleted, StatusFailed:
		run.CompletedAt = &now
		run.Summary = summary
	}
	if err != nil {
		run.Error = err.Error()
	}
}

func (m *Manager) storeProducts(runID string, products []models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[runID] = products
}

// snapshot copies a run so callers never observe later updates. Callers hold
// at least the read lock.
func (m *Manager) snapshot(run *Run) *Run {
	cp := *run
	return &cp
}
