package domain

import (
	"time"

	"catalog-server/internal/query"
)

// BookFilter narrows a book search. Nil fields are omitted criteria; every
// set field must match exactly.
type BookFilter struct {
	Title     *string
	Author    *string
	Image     *string
	Subtitle  *string
	Publisher *string
	Year      *string
	Pages     *int
	ISBN      *string
	Genre     *string
}

func (f BookFilter) Filter() query.Filter[*Book] {
	return query.Where(
		query.Equal("title", f.Title, (*Book).Title),
		query.Equal("author", f.Author, (*Book).Author),
		query.Equal("image", f.Image, (*Book).Image),
		query.Equal("subtitle", f.Subtitle, (*Book).Subtitle),
		query.Equal("publisher", f.Publisher, (*Book).Publisher),
		query.Equal("year", f.Year, (*Book).Year),
		query.Equal("pages", f.Pages, (*Book).Pages),
		query.Equal("isbn", f.ISBN, (*Book).ISBN),
		query.Equal("genre", f.Genre, (*Book).Genre),
	)
}

var BookSorting = query.NewSorting("id", (*Book).ID).
	Text("title", "title", (*Book).Title).
	Text("author", "author", (*Book).Author).
	Text("publisher", "publisher", (*Book).Publisher).
	Text("year", "year", (*Book).Year).
	Text("isbn", "isbn", (*Book).ISBN).
	Text("genre", "genre", (*Book).Genre).
	Int("pages", "pages", (*Book).Pages)

// UserFilter narrows a user search. Username, Name and Role match exactly,
// NameContains matches a case-insensitive substring of the name and the
// birth date bounds are inclusive.
type UserFilter struct {
	Username      *string
	Name          *string
	NameContains  *string
	BirthDateFrom *time.Time
	BirthDateTo   *time.Time
	Role          *Role
}

func (f UserFilter) Filter() query.Filter[*User] {
	var role *string
	if f.Role != nil {
		r := string(*f.Role)
		role = &r
	}

	return query.Where(
		query.Equal("username", f.Username, (*User).Username),
		query.Equal("name", f.Name, (*User).Name),
		query.ContainsFold("name", f.NameContains, (*User).Name),
		query.DateRange("birth_date", f.BirthDateFrom, f.BirthDateTo, (*User).BirthDate),
		query.Equal("role", role, func(u *User) string { return string(u.Role()) }),
	)
}

var UserSorting = query.NewSorting("id", (*User).ID).
	Text("username", "username", (*User).Username).
	Text("name", "name", (*User).Name).
	Text("birthDate", "birth_date", func(u *User) string { return u.BirthDate().Format(time.DateOnly) }).
	Text("role", "role", func(u *User) string { return string(u.Role()) })
