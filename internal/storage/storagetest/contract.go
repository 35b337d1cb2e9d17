// Package storagetest holds the behaviour every repository backend must
// share. Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

// Factory returns a pair of empty repositories sharing one backing store.
type Factory func(t *testing.T) (domain.BookRepository, domain.UserRepository)

func Run(t *testing.T, newRepos Factory) {
	t.Run("book_crud", func(t *testing.T) { testBookCRUD(t, newRepos) })
	t.Run("book_ids_never_reused", func(t *testing.T) { testBookIDsNeverReused(t, newRepos) })
	t.Run("book_by_isbn", func(t *testing.T) { testBookByISBN(t, newRepos) })
	t.Run("book_search", func(t *testing.T) { testBookSearch(t, newRepos) })
	t.Run("search_total_matches_items_under_writes", func(t *testing.T) { testSearchTotalUnderWrites(t, newRepos) })
	t.Run("user_crud", func(t *testing.T) { testUserCRUD(t, newRepos) })
	t.Run("username_unique", func(t *testing.T) { testUsernameUnique(t, newRepos) })
	t.Run("user_search", func(t *testing.T) { testUserSearch(t, newRepos) })
	t.Run("user_search_folds_unicode", func(t *testing.T) { testUserSearchFoldsUnicode(t, newRepos) })
	t.Run("update_is_atomic", func(t *testing.T) { testUpdate(t, newRepos) })
	t.Run("book_delete_cascades", func(t *testing.T) { testBookDeleteCascades(t, newRepos) })
	t.Run("concurrent_assign", func(t *testing.T) { testConcurrentAssign(t, newRepos) })
}

func NewBook(t *testing.T, title string, pages int) *domain.Book {
	t.Helper()
	b, err := domain.NewBook(domain.BookParams{
		Genre:     "Fiction",
		Author:    "Author of " + title,
		Image:     "-",
		Title:     title,
		Subtitle:  "-",
		Publisher: "Publisher",
		Year:      "2001",
		Pages:     pages,
		ISBN:      "isbn-" + title,
	})
	require.NoError(t, err)
	return b
}

func NewUser(t *testing.T, username, name string, born time.Time) *domain.User {
	t.Helper()
	u, err := domain.NewUser(domain.UserParams{
		Name:      name,
		Username:  username,
		BirthDate: born,
		Password:  "$2a$04$placeholderhash",
	})
	require.NoError(t, err)
	return u
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bookIDs(items []*domain.Book) []int64 {
	out := make([]int64, 0, len(items))
	for _, b := range items {
		out = append(out, b.ID())
	}
	return out
}

func userIDs(items []*domain.User) []int64 {
	out := make([]int64, 0, len(items))
	for _, u := range items {
		out = append(out, u.ID())
	}
	return out
}

func testBookCRUD(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, _ := newRepos(t)

	saved, err := books.Save(ctx, NewBook(t, "Dune", 412))
	require.NoError(t, err)
	require.NotZero(t, saved.ID())

	got, err := books.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, saved.Params(), got.Params())

	require.NoError(t, got.SetTitle("Dune Messiah"))
	updated, err := books.Save(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), updated.ID())

	got, err = books.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title())

	require.NoError(t, books.Delete(ctx, saved.ID()))

	_, err = books.GetByID(ctx, saved.ID())
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	assert.ErrorIs(t, books.Delete(ctx, saved.ID()), domain.ErrBookNotFound)

	ghost := NewBook(t, "Ghost", 1)
	require.NoError(t, ghost.SetID(9999))
	_, err = books.Save(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func testBookIDsNeverReused(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, _ := newRepos(t)

	first, err := books.Save(ctx, NewBook(t, "A", 1))
	require.NoError(t, err)
	second, err := books.Save(ctx, NewBook(t, "B", 1))
	require.NoError(t, err)
	require.NoError(t, books.Delete(ctx, second.ID()))

	third, err := books.Save(ctx, NewBook(t, "C", 1))
	require.NoError(t, err)

	assert.Greater(t, second.ID(), first.ID())
	assert.Greater(t, third.ID(), second.ID())
}

func testBookByISBN(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, _ := newRepos(t)

	a, err := books.Save(ctx, NewBook(t, "Same", 10))
	require.NoError(t, err)
	_, err = books.Save(ctx, NewBook(t, "Same", 20))
	require.NoError(t, err)

	got, err := books.GetByISBN(ctx, "isbn-Same")
	require.NoError(t, err)
	assert.Equal(t, a.ID(), got.ID())

	_, err = books.GetByISBN(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func testBookSearch(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, _ := newRepos(t)

	var ids []int64
	for i, spec := range []struct {
		title string
		pages int
	}{
		{"beta", 100}, {"Alpha", 200}, {"gamma", 100}, {"Delta", 100}, {"epsilon", 300},
	} {
		b, err := books.Save(ctx, NewBook(t, spec.title, spec.pages))
		require.NoError(t, err, "book %d", i)
		ids = append(ids, b.ID())
	}

	t.Run("all_omitted", func(t *testing.T) {
		page, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, ids, bookIDs(page.Items))
	})

	t.Run("pages_criterion", func(t *testing.T) {
		pages := 100
		page, err := books.Search(ctx, domain.BookFilter{Pages: &pages}, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, []int64{ids[0], ids[2], ids[3]}, bookIDs(page.Items))
		for _, b := range page.Items {
			assert.Equal(t, 100, b.Pages())
		}
	})

	t.Run("combined_criteria", func(t *testing.T) {
		pages, title := 100, "gamma"
		page, err := books.Search(ctx, domain.BookFilter{Pages: &pages, Title: &title}, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[2]}, bookIDs(page.Items))
	})

	t.Run("beyond_last_page", func(t *testing.T) {
		page, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Index: 3, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("second_page", func(t *testing.T) {
		page, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Index: 1, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[2], ids[3]}, bookIDs(page.Items))
	})

	t.Run("title_by_code_point", func(t *testing.T) {
		page, err := books.Search(ctx, domain.BookFilter{}, query.NewPageRequest(0, 10, "title"))
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[1], ids[3], ids[0], ids[4], ids[2]}, bookIDs(page.Items))
	})

	t.Run("pages_desc_tie_break_by_id", func(t *testing.T) {
		page, err := books.Search(ctx, domain.BookFilter{}, query.NewPageRequest(0, 10, "-pages"))
		require.NoError(t, err)
		assert.Equal(t, []int64{ids[4], ids[1], ids[0], ids[2], ids[3]}, bookIDs(page.Items))
	})

	t.Run("no_match", func(t *testing.T) {
		pages := 7
		page, err := books.Search(ctx, domain.BookFilter{Pages: &pages}, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("invalid_page", func(t *testing.T) {
		_, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Index: -1, Size: 10})
		assert.ErrorIs(t, err, query.ErrInvalidPage)

		_, err = books.Search(ctx, domain.BookFilter{}, query.NewPageRequest(0, 10, "password"))
		assert.ErrorIs(t, err, query.ErrInvalidPage)
	})
}

func testSearchTotalUnderWrites(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, _ := newRepos(t)

	const writes = 40

	pending := make([]*domain.Book, 0, writes)
	for i := range writes {
		pending = append(pending, NewBook(t, fmt.Sprintf("written-%02d", i), i+1))
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		for i, b := range pending {
			if _, err := books.Save(ctx, b); err != nil {
				t.Errorf("save %d: %v", i, err)
				return
			}
		}
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		page, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Size: writes * 2})
		require.NoError(t, err)
		require.Equal(t, page.Total, int64(len(page.Items)), "total and items disagree")

		select {
		case <-done:
			page, err := books.Search(ctx, domain.BookFilter{}, query.PageRequest{Size: writes * 2})
			require.NoError(t, err)
			assert.Equal(t, int64(writes), page.Total)
			return
		default:
		}
	}
}

func testUserCRUD(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, users := newRepos(t)

	saved, err := users.Save(ctx, NewUser(t, "ada", "Ada Lovelace", day(1815, 12, 10)))
	require.NoError(t, err)
	require.NotZero(t, saved.ID())

	got, err := users.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), got.ID())
	assert.Equal(t, day(1815, 12, 10), got.BirthDate())
	assert.Equal(t, domain.RoleUser, got.Role())
	assert.Equal(t, "$2a$04$placeholderhash", got.PasswordHash())

	require.NoError(t, got.SetName("Augusta Ada King"))
	_, err = users.Save(ctx, got)
	require.NoError(t, err)

	got, err = users.GetByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada King", got.Name())

	require.NoError(t, users.Delete(ctx, saved.ID()))

	_, err = users.GetByID(ctx, saved.ID())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = users.GetByUsername(ctx, "ada")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.ErrorIs(t, users.Delete(ctx, saved.ID()), domain.ErrUserNotFound)
}

func testUsernameUnique(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, users := newRepos(t)

	_, err := users.Save(ctx, NewUser(t, "neo", "Thomas", day(1971, 3, 11)))
	require.NoError(t, err)

	_, err = users.Save(ctx, NewUser(t, "neo", "Other", day(1980, 1, 1)))
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	trinity, err := users.Save(ctx, NewUser(t, "trinity", "Trinity", day(1972, 1, 1)))
	require.NoError(t, err)

	require.NoError(t, trinity.SetUsername("neo"))
	_, err = users.Save(ctx, trinity)
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func testUserSearch(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, users := newRepos(t)

	alice, err := users.Save(ctx, NewUser(t, "alice", "Alice", day(1990, 5, 1)))
	require.NoError(t, err)
	malika, err := users.Save(ctx, NewUser(t, "malika", "MALIKA", day(1990, 5, 2)))
	require.NoError(t, err)
	bob, err := users.Save(ctx, NewUser(t, "bob", "Bob", day(2000, 1, 1)))
	require.NoError(t, err)

	contains := "ali"
	page, err := users.Search(ctx, domain.UserFilter{NameContains: &contains}, query.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID(), malika.ID()}, userIDs(page.Items))

	from, to := day(1990, 5, 2), day(2000, 1, 1)
	page, err = users.Search(ctx, domain.UserFilter{BirthDateFrom: &from, BirthDateTo: &to}, query.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{malika.ID(), bob.ID()}, userIDs(page.Items))

	username := "bob"
	page, err = users.Search(ctx, domain.UserFilter{Username: &username}, query.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID()}, userIDs(page.Items))

	role := domain.RoleAdmin
	page, err = users.Search(ctx, domain.UserFilter{Role: &role}, query.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = users.Search(ctx, domain.UserFilter{}, query.NewPageRequest(0, 10, "name"))
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID(), bob.ID(), malika.ID()}, userIDs(page.Items))
}

func testUserSearchFoldsUnicode(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	_, users := newRepos(t)

	emile, err := users.Save(ctx, NewUser(t, "emile", "ÉMILE Zola", day(1840, 4, 2)))
	require.NoError(t, err)
	_, err = users.Save(ctx, NewUser(t, "emil", "Emil Sinclair", day(1900, 1, 1)))
	require.NoError(t, err)

	for _, needle := range []string{"émile", "ÉMILE", "Émile zola"} {
		page, err := users.Search(ctx, domain.UserFilter{NameContains: &needle}, query.PageRequest{Size: 10})
		require.NoError(t, err)
		assert.Equal(t, []int64{emile.ID()}, userIDs(page.Items), needle)
		assert.EqualValues(t, 1, page.Total, needle)
	}
}

func testUpdate(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, users := newRepos(t)

	book, err := books.Save(ctx, NewBook(t, "Emma", 474))
	require.NoError(t, err)
	user, err := users.Save(ctx, NewUser(t, "jane", "Jane", day(1775, 12, 16)))
	require.NoError(t, err)

	updated, err := users.Update(ctx, user.ID(), func(u *domain.User) error {
		return u.AssignBook(book)
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{book.ID()}, updated.BookIDs())

	got, err := users.GetByID(ctx, user.ID())
	require.NoError(t, err)
	require.Len(t, got.Books(), 1)
	assert.Equal(t, "Emma", got.Books()[0].Title())

	boom := errors.New("boom")
	_, err = users.Update(ctx, user.ID(), func(u *domain.User) error {
		if err := u.DeassignBook(book.ID()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err = users.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.True(t, got.Owns(book.ID()))

	_, err = users.Update(ctx, 424242, func(*domain.User) error { return nil })
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func testBookDeleteCascades(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, users := newRepos(t)

	keep, err := books.Save(ctx, NewBook(t, "Keep", 1))
	require.NoError(t, err)
	drop, err := books.Save(ctx, NewBook(t, "Drop", 1))
	require.NoError(t, err)

	var owners []int64
	for i := range 3 {
		u, err := users.Save(ctx, NewUser(t, fmt.Sprintf("reader%d", i), "Reader", day(1999, 1, 1)))
		require.NoError(t, err)
		_, err = users.Update(ctx, u.ID(), func(u *domain.User) error {
			if err := u.AssignBook(keep); err != nil {
				return err
			}
			return u.AssignBook(drop)
		})
		require.NoError(t, err)
		owners = append(owners, u.ID())
	}

	require.NoError(t, books.Delete(ctx, drop.ID()))

	for _, id := range owners {
		u, err := users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []int64{keep.ID()}, u.BookIDs())
	}
}

func testConcurrentAssign(t *testing.T, newRepos Factory) {
	ctx := context.Background()
	books, users := newRepos(t)

	book, err := books.Save(ctx, NewBook(t, "Contended", 1))
	require.NoError(t, err)
	user, err := users.Save(ctx, NewUser(t, "racer", "Racer", day(2000, 2, 2)))
	require.NoError(t, err)

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		owned     int
	)

	for range workers {
		wg.Go(func() {
			_, err := users.Update(ctx, user.ID(), func(u *domain.User) error {
				return u.AssignBook(book)
			})

			mu.Lock()
			defer mu.Unlock()

			var already *domain.AlreadyOwnedError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &already):
				owned++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, owned)

	got, err := users.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, []int64{book.ID()}, got.BookIDs())
}
