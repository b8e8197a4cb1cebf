package jobs

import (
	"context"
	"errors"

	"github.com/maltedev/smartphone-scraper/internal/queue"
)

// StartWorker executes queued runs one at a time until ctx is done or the
// queue is closed.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("run worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || ctx.Err() != nil {
				m.logger.Info("run worker stopping")
				return
			}
			m.logger.Error("failed to pop task", "error", err)
			continue
		}

		m.processTask(ctx, task)
	}
}

func (m *Manager) processTask(ctx context.Context, task *queue.Task) {
	m.logger.Info("processing run", "id", task.ID, "base_url", task.BaseURL)
	m.updateStatus(task.ID, StatusRunning, nil, nil)

	products, summary, err := m.run(ctx, task)
	if err != nil {
		m.logger.Error("run failed", "id", task.ID, "error", err)
		m.updateStatus(task.ID, StatusFailed, summary, err)
		return
	}

	m.storeProducts(task.ID, products)
	m.updateStatus(task.ID, StatusCompleted, summary, nil)

	m.logger.Info("run completed", "id", task.ID, "products", len(products))
}
