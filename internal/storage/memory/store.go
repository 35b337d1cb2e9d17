// Package memory keeps books and users in process memory. Records live in
// per-record cells; the store-level lock only guards the indexes.
package memory

import (
	"slices"
	"sync"

	"catalog-server/internal/domain"
)

type userRecord struct {
	params  domain.UserParams
	bookIDs []int64
}

type userEntry struct {
	*cell[userRecord]
	// username is guarded by Store.mu.
	username string
}

// Store is the shared arena behind BookRepository and UserRepository.
type Store struct {
	mu sync.RWMutex

	lastBookID int64
	lastUserID int64

	books     map[int64]*cell[domain.BookParams]
	users     map[int64]*userEntry
	usernames map[string]int64
}

func NewStore() *Store {
	return &Store{
		books:     make(map[int64]*cell[domain.BookParams]),
		users:     make(map[int64]*userEntry),
		usernames: make(map[string]int64),
	}
}

func (s *Store) Books() *BookRepository {
	return &BookRepository{s: s}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) bookCell(id int64) (*cell[domain.BookParams], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.books[id]
	return c, ok
}

func (s *Store) userEntry(id int64) (*userEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.users[id]
	return e, ok
}

func (s *Store) loadBook(id int64) (*domain.Book, bool) {
	c, ok := s.bookCell(id)
	if !ok {
		return nil, false
	}
	p, ok := c.Get()
	if !ok {
		return nil, false
	}
	b, err := domain.RestoreBook(id, p)
	if err != nil {
		return nil, false
	}
	return b, true
}

// hydrate rebuilds a user, resolving book ids against the book arena. Ids
// whose book vanished concurrently are skipped.
func (s *Store) hydrate(id int64, rec userRecord) (*domain.User, error) {
	books := make([]*domain.Book, 0, len(rec.bookIDs))
	for _, bookID := range rec.bookIDs {
		if b, ok := s.loadBook(bookID); ok {
			books = append(books, b)
		}
	}
	return domain.RestoreUser(id, rec.params, books)
}

func (s *Store) booksExist(ids []int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.books[id]; !ok {
			return domain.ErrBookNotFound
		}
	}
	return nil
}

// detachBook removes bookID from every user's relation.
func (s *Store) detachBook(bookID int64) {
	s.mu.RLock()
	entries := make([]*userEntry, 0, len(s.users))
	for _, e := range s.users {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if i := slices.Index(e.data.bookIDs, bookID); i >= 0 {
			e.data.bookIDs = slices.Delete(slices.Clone(e.data.bookIDs), i, i+1)
		}
		e.mu.Unlock()
	}
}
