package domain

import (
	"context"
	"encoding/json"

	"catalog-server/internal/query"
)

// Book is a catalog entry. Its fields can only be set through NewBook and
// the setters, which validate every assignment, so an invalid Book is never
// observable.
type Book struct {
	id        int64
	genre     string
	author    string
	image     string
	title     string
	subtitle  string
	publisher string
	year      string
	pages     int
	isbn      string
}

type BookParams struct {
	Genre     string
	Author    string
	Image     string
	Title     string
	Subtitle  string
	Publisher string
	Year      string
	Pages     int
	ISBN      string
}

func NewBook(p BookParams) (*Book, error) {
	b := &Book{}

	setters := []func() error{
		func() error { return b.SetAuthor(p.Author) },
		func() error { return b.SetImage(p.Image) },
		func() error { return b.SetTitle(p.Title) },
		func() error { return b.SetSubtitle(p.Subtitle) },
		func() error { return b.SetPublisher(p.Publisher) },
		func() error { return b.SetYear(p.Year) },
		func() error { return b.SetPages(p.Pages) },
		func() error { return b.SetISBN(p.ISBN) },
	}
	for _, set := range setters {
		if err := set(); err != nil {
			return nil, err
		}
	}

	b.SetGenre(p.Genre)

	return b, nil
}

// RestoreBook rebuilds a persisted book. Storage backends use it when
// reading rows back.
func RestoreBook(id int64, p BookParams) (*Book, error) {
	b, err := NewBook(p)
	if err != nil {
		return nil, err
	}
	if err := b.SetID(id); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Book) ID() int64         { return b.id }
func (b *Book) Genre() string     { return b.genre }
func (b *Book) Author() string    { return b.author }
func (b *Book) Image() string     { return b.image }
func (b *Book) Title() string     { return b.title }
func (b *Book) Subtitle() string  { return b.subtitle }
func (b *Book) Publisher() string { return b.publisher }
func (b *Book) Year() string      { return b.year }
func (b *Book) Pages() int        { return b.pages }
func (b *Book) ISBN() string      { return b.isbn }

// SetID assigns the store identifier. It can be set once.
func (b *Book) SetID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Reason: "must be positive"}
	}
	if b.id != 0 && b.id != id {
		return &ValidationError{Field: "id", Reason: "is immutable"}
	}
	b.id = id
	return nil
}

// SetGenre accepts the empty string; genre is optional.
func (b *Book) SetGenre(genre string) {
	b.genre = genre
}

func (b *Book) SetAuthor(author string) error {
	return setString(&b.author, "author", author)
}

func (b *Book) SetImage(image string) error {
	return setString(&b.image, "image", image)
}

func (b *Book) SetTitle(title string) error {
	return setString(&b.title, "title", title)
}

func (b *Book) SetSubtitle(subtitle string) error {
	return setString(&b.subtitle, "subtitle", subtitle)
}

func (b *Book) SetPublisher(publisher string) error {
	return setString(&b.publisher, "publisher", publisher)
}

func (b *Book) SetYear(year string) error {
	return setString(&b.year, "year", year)
}

func (b *Book) SetISBN(isbn string) error {
	return setString(&b.isbn, "isbn", isbn)
}

func (b *Book) SetPages(pages int) error {
	if err := checkNonNegative("pages", pages); err != nil {
		return err
	}
	b.pages = pages
	return nil
}

// Params returns the current field values, e.g. to persist them.
func (b *Book) Params() BookParams {
	return BookParams{
		Genre:     b.genre,
		Author:    b.author,
		Image:     b.image,
		Title:     b.title,
		Subtitle:  b.subtitle,
		Publisher: b.publisher,
		Year:      b.year,
		Pages:     b.pages,
		ISBN:      b.isbn,
	}
}

func (b *Book) Clone() *Book {
	c := *b
	return &c
}

type bookJSON struct {
	ID        int64  `json:"id"`
	Genre     string `json:"genre,omitempty"`
	Author    string `json:"author"`
	Image     string `json:"image"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Publisher string `json:"publisher"`
	Year      string `json:"year"`
	Pages     int    `json:"pages"`
	ISBN      string `json:"isbn"`
}

func (b *Book) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookJSON{
		ID:        b.id,
		Genre:     b.genre,
		Author:    b.author,
		Image:     b.image,
		Title:     b.title,
		Subtitle:  b.subtitle,
		Publisher: b.publisher,
		Year:      b.year,
		Pages:     b.pages,
		ISBN:      b.isbn,
	})
}

func setString(dst *string, field, value string) error {
	if err := checkString(field, value); err != nil {
		return err
	}
	*dst = value
	return nil
}

type BookSaveRequest struct {
	ID        int64  `json:"id"`
	Genre     string `json:"genre"`
	Author    string `json:"author" validate:"required"`
	Image     string `json:"image" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Subtitle  string `json:"subtitle" validate:"required"`
	Publisher string `json:"publisher" validate:"required"`
	Year      string `json:"year" validate:"required"`
	Pages     int    `json:"pages" validate:"gte=0"`
	ISBN      string `json:"isbn" validate:"required"`
}

func (r BookSaveRequest) Params() BookParams {
	return BookParams{
		Genre:     r.Genre,
		Author:    r.Author,
		Image:     r.Image,
		Title:     r.Title,
		Subtitle:  r.Subtitle,
		Publisher: r.Publisher,
		Year:      r.Year,
		Pages:     r.Pages,
		ISBN:      r.ISBN,
	}
}

type BookRepository interface {
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	Save(ctx context.Context, book *Book) (*Book, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter BookFilter, page query.PageRequest) (*query.Page[*Book], error)
}

// BookLookup is the external book-metadata collaborator, queried by ISBN
// when a local lookup misses.
type BookLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*Book, error)
}

type BookService interface {
	Get(ctx context.Context, id int64) (*Book, error)
	Search(ctx context.Context, filter BookFilter, page query.PageRequest) (*query.Page[*Book], error)
	Create(ctx context.Context, req BookSaveRequest) (*Book, error)
	Update(ctx context.Context, req BookSaveRequest, bookID int64) (*Book, error)
	Delete(ctx context.Context, bookID int64) error
	// FindByISBN reports created=true when the book was imported from the
	// external lookup.
	FindByISBN(ctx context.Context, isbn string) (book *Book, created bool, err error)
}
