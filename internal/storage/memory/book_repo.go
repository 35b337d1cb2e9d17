package memory

import (
	"context"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

type BookRepository struct {
	s *Store
}

func NewBookRepository(s *Store) domain.BookRepository {
	return s.Books()
}

func (r *BookRepository) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	b, ok := r.s.loadBook(id)
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return b, nil
}

// GetByISBN returns the book with the lowest id among those carrying isbn.
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	page, err := r.Search(ctx, domain.BookFilter{ISBN: &isbn}, query.PageRequest{Index: 0, Size: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, domain.ErrBookNotFound
	}
	return page.Items[0], nil
}

func (r *BookRepository) Save(_ context.Context, book *domain.Book) (*domain.Book, error) {
	params := book.Params()

	if book.ID() == 0 {
		r.s.mu.Lock()
		r.s.lastBookID++
		id := r.s.lastBookID
		r.s.books[id] = newCell(params)
		r.s.mu.Unlock()

		return domain.RestoreBook(id, params)
	}

	c, ok := r.s.bookCell(book.ID())
	if !ok || !c.Set(params) {
		return nil, domain.ErrBookNotFound
	}

	return book.Clone(), nil
}

func (r *BookRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	c, ok := r.s.books[id]
	if ok {
		delete(r.s.books, id)
	}
	r.s.mu.Unlock()

	if !ok {
		return domain.ErrBookNotFound
	}

	c.markDeleted()
	r.s.detachBook(id)

	return nil
}

func (r *BookRepository) Search(_ context.Context, filter domain.BookFilter, page query.PageRequest) (*query.Page[*domain.Book], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	ids := make([]int64, 0, len(r.s.books))
	for id := range r.s.books {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()

	all := make([]*domain.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.s.loadBook(id); ok {
			all = append(all, b)
		}
	}

	return query.Apply(all, filter.Filter(), domain.BookSorting, page)
}
