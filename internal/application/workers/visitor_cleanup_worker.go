package workers

import (
	"context"

	"catalog-server/internal/logger"
)

// Sweeper forgets idle rate-limit buckets and reports how many went.
type Sweeper interface {
	Sweep() int
}

type VisitorCleanupWorker struct {
	limiter Sweeper
	log     logger.Logger
}

func NewVisitorCleanupWorker(limiter Sweeper, log logger.Logger) Worker {
	return &VisitorCleanupWorker{
		limiter: limiter,
		log:     log,
	}
}

func (w *VisitorCleanupWorker) Name() string {
	return "visitor_cleanup"
}

func (w *VisitorCleanupWorker) Run(ctx context.Context) error {
	if removed := w.limiter.Sweep(); removed > 0 {
		w.log.Debug("worker: idle visitors removed", "count", removed)
	}
	return nil
}
