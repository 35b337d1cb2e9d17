package workers

import (
	"context"
	"fmt"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
	"catalog-server/internal/query"
)

// CatalogStatsWorker logs how many books and users the catalog holds.
type CatalogStatsWorker struct {
	books domain.BookService
	users domain.UserService
	log   logger.Logger
}

func NewCatalogStatsWorker(books domain.BookService, users domain.UserService, log logger.Logger) Worker {
	return &CatalogStatsWorker{
		books: books,
		users: users,
		log:   log,
	}
}

func (w *CatalogStatsWorker) Name() string {
	return "catalog_stats"
}

func (w *CatalogStatsWorker) Run(ctx context.Context) error {
	one := query.PageRequest{Size: 1}

	books, err := w.books.Search(ctx, domain.BookFilter{}, one)
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}

	users, err := w.users.Search(ctx, domain.UserFilter{}, one)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	w.log.Info("worker: catalog stats", "books", books.Total, "users", users.Total)
	return nil
}
