package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

var bookColumns = []any{"id", "genre", "author", "image", "title", "subtitle", "publisher", "year", "pages", "isbn"}

type bookRow struct {
	ID        int64  `db:"id"`
	Genre     string `db:"genre"`
	Author    string `db:"author"`
	Image     string `db:"image"`
	Title     string `db:"title"`
	Subtitle  string `db:"subtitle"`
	Publisher string `db:"publisher"`
	Year      string `db:"year"`
	Pages     int    `db:"pages"`
	ISBN      string `db:"isbn"`
}

func (r bookRow) toDomain() (*domain.Book, error) {
	return domain.RestoreBook(r.ID, domain.BookParams{
		Genre:     r.Genre,
		Author:    r.Author,
		Image:     r.Image,
		Title:     r.Title,
		Subtitle:  r.Subtitle,
		Publisher: r.Publisher,
		Year:      r.Year,
		Pages:     r.Pages,
		ISBN:      r.ISBN,
	})
}

func bookRecord(b *domain.Book) goqu.Record {
	p := b.Params()
	return goqu.Record{
		"genre":     p.Genre,
		"author":    p.Author,
		"image":     p.Image,
		"title":     p.Title,
		"subtitle":  p.Subtitle,
		"publisher": p.Publisher,
		"year":      p.Year,
		"pages":     p.Pages,
		"isbn":      p.ISBN,
	}
}

type BookRepository struct {
	d *DB
}

func NewBookRepository(d *DB) domain.BookRepository {
	return d.Books()
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	return r.getOne(ctx, r.d.dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return r.getOne(ctx, r.d.dialect.From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("isbn").Eq(isbn)).
		Order(goqu.C("id").Asc()).
		Limit(1).
		Prepared(true))
}

func (r *BookRepository) getOne(ctx context.Context, ds *goqu.SelectDataset) (*domain.Book, error) {
	var row bookRow
	if err := r.d.get(ctx, r.d.db, &row, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to query book: %w", err)
	}
	return row.toDomain()
}

func (r *BookRepository) Save(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if book.ID() == 0 {
		id, err := r.d.insert(ctx, r.d.db, tableBooks, bookRecord(book))
		if err != nil {
			return nil, fmt.Errorf("failed to insert book: %w", err)
		}
		return domain.RestoreBook(id, book.Params())
	}

	affected, err := r.d.exec(ctx, r.d.db, r.d.dialect.Update(tableBooks).
		Set(bookRecord(book)).
		Where(goqu.C("id").Eq(book.ID())).
		Prepared(true))
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrBookNotFound
	}

	return book.Clone(), nil
}

// Delete removes the book. The users_books foreign key cascades, so no user
// keeps a reference to it.
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.d.exec(ctx, r.d.db, r.d.dialect.Delete(tableBooks).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if affected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) Search(ctx context.Context, filter domain.BookFilter, page query.PageRequest) (*query.Page[*domain.Book], error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	order, err := domain.BookSorting.OrderBy(page, r.d.collation)
	if err != nil {
		return nil, err
	}

	where := filter.Filter().Expression()

	var (
		total int64
		rows  []bookRow
	)
	err = r.d.withReadTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.d.get(ctx, tx, &total, r.d.dialect.From(tableBooks).
			Select(goqu.COUNT("*")).
			Where(where).
			Prepared(true)); err != nil {
			return fmt.Errorf("failed to count books: %w", err)
		}

		if err := r.d.selectAll(ctx, tx, &rows, r.d.dialect.From(tableBooks).
			Select(bookColumns...).
			Where(where).
			Order(order...).
			Limit(uint(page.Size)).
			Offset(uint(page.Offset())).
			Prepared(true)); err != nil {
			return fmt.Errorf("failed to query books: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]*domain.Book, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}

	return &query.Page[*domain.Book]{
		Items: items,
		Total: total,
		Index: page.Index,
		Size:  page.Size,
	}, nil
}
