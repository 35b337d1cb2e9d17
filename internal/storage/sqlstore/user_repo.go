package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

var userColumns = []any{"id", "name", "username", "birth_date", "password", "role"}

type userRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Username  string `db:"username"`
	BirthDate string `db:"birth_date"`
	Password  string `db:"password"`
	Role      string `db:"role"`
}

type ownedBookRow struct {
	UserID int64 `db:"user_id"`
	bookRow
}

func (r userRow) toDomain(books []*domain.Book) (*domain.User, error) {
	born, err := time.Parse(time.DateOnly, r.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("invalid birth date %q for user %d: %w", r.BirthDate, r.ID, err)
	}

	return domain.RestoreUser(r.ID, domain.UserParams{
		Name:      r.Name,
		Username:  r.Username,
		BirthDate: born,
		Password:  r.Password,
		Role:      domain.Role(r.Role),
	}, books)
}

func userRecord(u *domain.User) goqu.Record {
	p := u.Params()
	return goqu.Record{
		"name":       p.Name,
		"username":   p.Username,
		"birth_date": p.BirthDate.Format(time.DateOnly),
		"password":   p.Password,
		"role":       string(p.Role),
	}
}

type UserRepository struct {
	d *DB
}

func NewUserRepository(d *DB) domain.UserRepository {
	return d.Users()
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, r.d.db, r.selectUsers().Where(goqu.C("id").Eq(id)))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, r.d.db, r.selectUsers().Where(goqu.C("username").Eq(username)))
}

func (r *UserRepository) selectUsers() *goqu.SelectDataset {
	return r.d.dialect.From(tableUsers).Select(userColumns...).Prepared(true)
}

func (r *UserRepository) getOne(ctx context.Context, q sqlx.QueryerContext, ds *goqu.SelectDataset) (*domain.User, error) {
	var row userRow
	if err := r.d.get(ctx, q, &row, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	users, err := r.hydrate(ctx, q, []userRow{row})
	if err != nil {
		return nil, err
	}

	return users[0], nil
}

// hydrate loads the owned books of every row with a single join query.
func (r *UserRepository) hydrate(ctx context.Context, q sqlx.QueryerContext, rows []userRow) ([]*domain.User, error) {
	if len(rows) == 0 {
		return []*domain.User{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	cols := []any{goqu.I("ub.user_id")}
	for _, c := range bookColumns {
		cols = append(cols, goqu.I("b."+c.(string)))
	}

	var owned []ownedBookRow
	if err := r.d.selectAll(ctx, q, &owned, r.d.dialect.
		From(goqu.T(tableUsersBooks).As("ub")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("ub.book_id").Eq(goqu.I("b.id")))).
		Select(cols...).
		Where(goqu.I("ub.user_id").In(ids)).
		Order(goqu.I("b.id").Asc()).
		Prepared(true)); err != nil {
		return nil, fmt.Errorf("failed to query owned books: %w", err)
	}

	byUser := make(map[int64][]*domain.Book, len(rows))
	for _, o := range owned {
		b, err := o.bookRow.toDomain()
		if err != nil {
			return nil, err
		}
		byUser[o.UserID] = append(byUser[o.UserID], b)
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain(byUser[row.ID])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	var saved *domain.User

	err := r.d.withTx(ctx, func(tx *sqlx.Tx) error {
		id := user.ID()

		if id == 0 {
			newID, err := r.d.insert(ctx, tx, tableUsers, userRecord(user))
			if err != nil {
				return mapUserWriteError(err, "insert")
			}
			id = newID
		} else if err := r.write(ctx, tx, id, user); err != nil {
			return err
		}

		if err := r.syncBooks(ctx, tx, id, user.BookIDs()); err != nil {
			return err
		}

		u, err := r.getOne(ctx, tx, r.selectUsers().Where(goqu.C("id").Eq(id)))
		if err != nil {
			return err
		}
		saved = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// Update locks the user row for the duration of fn. On sqlite the
// immediate transaction already holds the write lock.
func (r *UserRepository) Update(ctx context.Context, id int64, fn func(*domain.User) error) (*domain.User, error) {
	var updated *domain.User

	err := r.d.withTx(ctx, func(tx *sqlx.Tx) error {
		ds := r.selectUsers().Where(goqu.C("id").Eq(id))
		if r.d.postgres {
			ds = ds.ForUpdate(exp.Wait)
		}

		u, err := r.getOne(ctx, tx, ds)
		if err != nil {
			return err
		}

		if err := fn(u); err != nil {
			return err
		}

		if err := r.write(ctx, tx, id, u); err != nil {
			return err
		}
		if err := r.syncBooks(ctx, tx, id, u.BookIDs()); err != nil {
			return err
		}

		updated, err = r.getOne(ctx, tx, r.selectUsers().Where(goqu.C("id").Eq(id)))
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *UserRepository) write(ctx context.Context, tx *sqlx.Tx, id int64, user *domain.User) error {
	affected, err := r.d.exec(ctx, tx, r.d.dialect.Update(tableUsers).
		Set(userRecord(user)).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return mapUserWriteError(err, "update")
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// syncBooks replaces the stored relation of one user with bookIDs.
func (r *UserRepository) syncBooks(ctx context.Context, tx *sqlx.Tx, userID int64, bookIDs []int64) error {
	if _, err := r.d.exec(ctx, tx, r.d.dialect.Delete(tableUsersBooks).
		Where(goqu.C("user_id").Eq(userID)).
		Prepared(true)); err != nil {
		return fmt.Errorf("failed to clear owned books: %w", err)
	}

	if len(bookIDs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(bookIDs))
	for _, bookID := range bookIDs {
		rows = append(rows, goqu.Record{"user_id": userID, "book_id": bookID})
	}

	if _, err := r.d.exec(ctx, tx, r.d.dialect.Insert(tableUsersBooks).
		Rows(rows...).
		Prepared(true)); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBookNotFound
		}
		return fmt.Errorf("failed to store owned books: %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.d.exec(ctx, r.d.db, r.d.dialect.Delete(tableUsers).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Search(ctx context.Context, filter domain.UserFilter, page query.PageRequest) (*query.Page[*domain.User], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	order, err := domain.UserSorting.OrderBy(page, r.d.collation)
	if err != nil {
		return nil, err
	}

	where := filter.Filter().Expression()

	var (
		total int64
		items []*domain.User
	)
	err = r.d.withReadTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.d.get(ctx, tx, &total, r.d.dialect.From(tableUsers).
			Select(goqu.COUNT("*")).
			Where(where).
			Prepared(true)); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		var rows []userRow
		if err := r.d.selectAll(ctx, tx, &rows, r.selectUsers().
			Where(where).
			Order(order...).
			Limit(uint(page.Size)).
			Offset(uint(page.Offset()))); err != nil {
			return fmt.Errorf("failed to query users: %w", err)
		}

		hydrated, err := r.hydrate(ctx, tx, rows)
		if err != nil {
			return err
		}
		items = hydrated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &query.Page[*domain.User]{
		Items: items,
		Total: total,
		Index: page.Index,
		Size:  page.Size,
	}, nil
}

func mapUserWriteError(err error, op string) error {
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}
