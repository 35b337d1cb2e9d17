package memory

import (
	"context"
	"slices"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) domain.UserRepository {
	return s.Users()
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	e, ok := r.s.userEntry(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	rec, ok := e.Get()
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return r.s.hydrate(id, rec)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.usernames[username]
	r.s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	rec := userRecord{params: user.Params(), bookIDs: user.BookIDs()}

	if err := r.s.booksExist(rec.bookIDs); err != nil {
		return nil, err
	}

	if user.ID() == 0 {
		return r.insert(rec)
	}

	e, ok := r.s.userEntry(user.ID())
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := r.store(user.ID(), e, rec); err != nil {
		return nil, err
	}

	return r.s.hydrate(user.ID(), rec)
}

func (r *UserRepository) insert(rec userRecord) (*domain.User, error) {
	r.s.mu.Lock()

	if _, taken := r.s.usernames[rec.params.Username]; taken {
		r.s.mu.Unlock()
		return nil, domain.ErrUsernameTaken
	}

	r.s.lastUserID++
	id := r.s.lastUserID
	r.s.users[id] = &userEntry{cell: newCell(rec), username: rec.params.Username}
	r.s.usernames[rec.params.Username] = id

	r.s.mu.Unlock()

	return r.s.hydrate(id, rec)
}

// store writes rec into e, keeping the username index in step. The caller
// holds e.mu.
func (r *UserRepository) store(id int64, e *userEntry, rec userRecord) error {
	if e.deleted {
		return domain.ErrUserNotFound
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.users[id] != e {
		return domain.ErrUserNotFound
	}

	if rec.params.Username != e.username {
		if _, taken := r.s.usernames[rec.params.Username]; taken {
			return domain.ErrUsernameTaken
		}
		delete(r.s.usernames, e.username)
		r.s.usernames[rec.params.Username] = id
		e.username = rec.params.Username
	}

	for _, bookID := range rec.bookIDs {
		if _, ok := r.s.books[bookID]; !ok {
			return domain.ErrBookNotFound
		}
	}

	e.data = rec
	return nil
}

// Update serialises read-modify-write cycles on one user behind its cell
// lock. Other users stay available throughout.
func (r *UserRepository) Update(_ context.Context, id int64, fn func(*domain.User) error) (*domain.User, error) {
	e, ok := r.s.userEntry(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, domain.ErrUserNotFound
	}

	u, err := r.s.hydrate(id, e.data)
	if err != nil {
		return nil, err
	}

	if err := fn(u); err != nil {
		return nil, err
	}

	rec := userRecord{params: u.Params(), bookIDs: u.BookIDs()}
	if err := r.store(id, e, rec); err != nil {
		return nil, err
	}

	return r.s.hydrate(id, rec)
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	e, ok := r.s.users[id]
	if ok {
		delete(r.s.users, id)
		delete(r.s.usernames, e.username)
	}
	r.s.mu.Unlock()

	if !ok {
		return domain.ErrUserNotFound
	}

	e.markDeleted()
	return nil
}

func (r *UserRepository) Search(_ context.Context, filter domain.UserFilter, page query.PageRequest) (*query.Page[*domain.User], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	r.s.mu.RUnlock()
	slices.Sort(ids)

	all := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		e, ok := r.s.userEntry(id)
		if !ok {
			continue
		}
		rec, ok := e.Get()
		if !ok {
			continue
		}
		u, err := r.s.hydrate(id, rec)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return query.Apply(all, filter.Filter(), domain.UserSorting, page)
}
