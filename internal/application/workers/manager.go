// Package workers runs the periodic housekeeping jobs of the server.
package workers

import (
	"context"
	"time"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type Manager struct {
	scheduler *Scheduler
	log       logger.Logger

	services *ManagerServices
}

type ManagerServices struct {
	Books   domain.BookService
	Users   domain.UserService
	Limiter Sweeper
}

type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

func NewManager(scheduler *Scheduler, log logger.Logger, services *ManagerServices) *Manager {
	return &Manager{
		scheduler: scheduler,
		log:       log,

		services: services,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("worker: manager started")

	if m.services.Limiter != nil {
		m.scheduler.RunByDuration(ctx, time.Minute, NewVisitorCleanupWorker(m.services.Limiter, m.log))
	}

	m.scheduler.RunDaily(ctx, DailySchedule{Hour: 2, Minute: 0}, NewCatalogStatsWorker(m.services.Books, m.services.Users, m.log))
}
