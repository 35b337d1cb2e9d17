package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-server/internal/domain"
)

func validBookParams() domain.BookParams {
	return domain.BookParams{
		Genre:     "Fantasy",
		Author:    "J.R.R. Tolkien",
		Image:     "https://covers.example/hobbit.jpg",
		Title:     "The Hobbit",
		Subtitle:  "There and Back Again",
		Publisher: "Allen & Unwin",
		Year:      "1937",
		Pages:     310,
		ISBN:      "9780261102217",
	}
}

func Test_NewBook_Valid(t *testing.T) {
	b, err := domain.NewBook(validBookParams())

	require.NoError(t, err)
	assert.Equal(t, int64(0), b.ID())
	assert.Equal(t, "The Hobbit", b.Title())
	assert.Equal(t, 310, b.Pages())
	assert.Equal(t, validBookParams(), b.Params())
}

func Test_NewBook_RejectsEachEmptyRequiredField(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(p *domain.BookParams)
		reason string
	}{
		{field: "author", mutate: func(p *domain.BookParams) { p.Author = "" }, reason: "cannot be empty"},
		{field: "image", mutate: func(p *domain.BookParams) { p.Image = "" }, reason: "cannot be empty"},
		{field: "title", mutate: func(p *domain.BookParams) { p.Title = "" }, reason: "cannot be empty"},
		{field: "subtitle", mutate: func(p *domain.BookParams) { p.Subtitle = "" }, reason: "cannot be empty"},
		{field: "publisher", mutate: func(p *domain.BookParams) { p.Publisher = "" }, reason: "cannot be empty"},
		{field: "year", mutate: func(p *domain.BookParams) { p.Year = "" }, reason: "cannot be empty"},
		{field: "isbn", mutate: func(p *domain.BookParams) { p.ISBN = "" }, reason: "cannot be empty"},
		{field: "pages", mutate: func(p *domain.BookParams) { p.Pages = -1 }, reason: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p := validBookParams()
			tt.mutate(&p)

			b, err := domain.NewBook(p)

			assert.Nil(t, b)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.EqualError(t, err, tt.field+" "+tt.reason)
		})
	}
}

func Test_NewBook_GenreIsOptional(t *testing.T) {
	p := validBookParams()
	p.Genre = ""

	b, err := domain.NewBook(p)

	require.NoError(t, err)
	assert.Empty(t, b.Genre())
}

func Test_Book_SetterRejectsEmptyAndKeepsOldValue(t *testing.T) {
	b, err := domain.NewBook(validBookParams())
	require.NoError(t, err)

	err = b.SetTitle("")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
	assert.Equal(t, "The Hobbit", b.Title())

	require.NoError(t, b.SetTitle("The Silmarillion"))
	assert.Equal(t, "The Silmarillion", b.Title())
}

func Test_Book_SetPages(t *testing.T) {
	b, err := domain.NewBook(validBookParams())
	require.NoError(t, err)

	require.NoError(t, b.SetPages(0))
	assert.Equal(t, 0, b.Pages())

	assert.Error(t, b.SetPages(-5))
	assert.Equal(t, 0, b.Pages())
}

func Test_Book_SetIDIsImmutable(t *testing.T) {
	b, err := domain.NewBook(validBookParams())
	require.NoError(t, err)

	require.NoError(t, b.SetID(7))
	require.NoError(t, b.SetID(7))
	assert.Error(t, b.SetID(8))
	assert.Error(t, b.SetID(0))
	assert.Equal(t, int64(7), b.ID())
}

func Test_Book_MarshalJSON(t *testing.T) {
	b, err := domain.RestoreBook(3, validBookParams())
	require.NoError(t, err)

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(3), got["id"])
	assert.Equal(t, "9780261102217", got["isbn"])
	assert.Equal(t, float64(310), got["pages"])
}
