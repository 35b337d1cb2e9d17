// Package ownership manages which books a user owns.
package ownership

import (
	"context"

	"catalog-server/internal/domain"
	"catalog-server/internal/event"
	"catalog-server/internal/logger"
)

type service struct {
	books domain.BookRepository
	users domain.UserRepository
	bus   *event.Bus
	log   logger.Logger
}

func NewService(books domain.BookRepository, users domain.UserRepository, bus *event.Bus, log logger.Logger) domain.OwnershipService {
	return &service{
		books: books,
		users: users,
		bus:   bus,
		log:   log,
	}
}

// Assign adds the book to the user's owned set. Assigning a book the user
// already owns fails with *domain.AlreadyOwnedError and changes nothing.
func (s *service) Assign(ctx context.Context, userID, bookID int64) (*domain.User, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, userID, func(u *domain.User) error {
		return u.AssignBook(book)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("book assigned", "user_id", userID, "book_id", bookID)
	s.bus.Publish(domain.EventBookAssigned, domain.BookAssigned{UserID: userID, BookID: bookID})

	return user, nil
}

// Deassign removes the book from the user's owned set, failing with
// *domain.NotOwnedError when it is not there.
func (s *service) Deassign(ctx context.Context, userID, bookID int64) (*domain.User, error) {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, userID, func(u *domain.User) error {
		return u.DeassignBook(bookID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("book deassigned", "user_id", userID, "book_id", bookID)
	s.bus.Publish(domain.EventBookDeassigned, domain.BookDeassigned{UserID: userID, BookID: bookID})

	return user, nil
}
