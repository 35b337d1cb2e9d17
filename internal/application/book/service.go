// Package book
package book

import (
	"context"
	"errors"

	"catalog-server/internal/domain"
	"catalog-server/internal/event"
	"catalog-server/internal/logger"
	"catalog-server/internal/query"
)

type service struct {
	repo   domain.BookRepository
	lookup domain.BookLookup
	bus    *event.Bus
	log    logger.Logger
}

func NewService(repo domain.BookRepository, lookup domain.BookLookup, bus *event.Bus, log logger.Logger) domain.BookService {
	return &service{
		repo:   repo,
		lookup: lookup,
		bus:    bus,
		log:    log,
	}
}

func (s *service) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Search(ctx context.Context, filter domain.BookFilter, page query.PageRequest) (*query.Page[*domain.Book], error) {
	return s.repo.Search(ctx, filter, page)
}

func (s *service) Create(ctx context.Context, req domain.BookSaveRequest) (*domain.Book, error) {
	book, err := domain.NewBook(req.Params())
	if err != nil {
		return nil, err
	}

	return s.repo.Save(ctx, book)
}

// Update replaces every field of the book. A non-zero id in the body must
// agree with bookID.
func (s *service) Update(ctx context.Context, req domain.BookSaveRequest, bookID int64) (*domain.Book, error) {
	if req.ID != 0 && req.ID != bookID {
		return nil, &domain.IDMismatchError{Entity: "book", PathID: bookID, BodyID: req.ID}
	}

	if _, err := s.repo.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	book, err := domain.RestoreBook(bookID, req.Params())
	if err != nil {
		return nil, err
	}

	return s.repo.Save(ctx, book)
}

func (s *service) Delete(ctx context.Context, bookID int64) error {
	return s.repo.Delete(ctx, bookID)
}

// FindByISBN answers from the catalog first. On a miss it asks the external
// lookup and stores what it finds, reporting created=true.
func (s *service) FindByISBN(ctx context.Context, isbn string) (*domain.Book, bool, error) {
	book, err := s.repo.GetByISBN(ctx, isbn)
	if err == nil {
		return book, false, nil
	}
	if !errors.Is(err, domain.ErrBookNotFound) {
		return nil, false, err
	}

	if s.lookup == nil {
		return nil, false, domain.ErrBookNotFound
	}

	found, err := s.lookup.LookupISBN(ctx, isbn)
	if err != nil {
		return nil, false, err
	}

	saved, err := s.repo.Save(ctx, found)
	if err != nil {
		return nil, false, err
	}

	s.log.Info("book imported", "isbn", isbn, "book_id", saved.ID())
	s.bus.Publish(domain.EventBookImported, domain.BookImported{Book: saved})

	return saved, true, nil
}
