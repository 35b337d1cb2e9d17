package openlibrary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-server/internal/adapters/openlibrary"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

const hobbit = `{
  "ISBN:0261102214": {
    "title": "The Hobbit",
    "notes": {"type": "/type/text", "value": "Or There and Back Again"},
    "authors": [{"name": "J.R.R. Tolkien"}, {"name": "Christopher Tolkien"}],
    "publishers": [{"name": "HarperCollins"}, {"name": "Other"}],
    "publish_date": "1999",
    "number_of_pages": 320,
    "cover": {"medium": "https://covers.openlibrary.org/b/id/1-M.jpg"}
  }
}`

func newServer(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()

	seen := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.URL
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, seen
}

func Test_LookupISBN_MapsFields(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK, hobbit)
	client := openlibrary.NewClient(srv.URL+"/api/", time.Second, logger.Discard())

	book, err := client.LookupISBN(context.Background(), "0261102214")

	require.NoError(t, err)
	assert.Equal(t, "/api/books", seen.Path)
	assert.Equal(t, "ISBN:0261102214", seen.Query().Get("bibkeys"))
	assert.Equal(t, "data", seen.Query().Get("jscmd"))

	assert.Zero(t, book.ID())
	assert.Equal(t, "The Hobbit", book.Title())
	assert.Equal(t, "Or There and Back Again", book.Subtitle())
	assert.Equal(t, "J.R.R. Tolkien, Christopher Tolkien", book.Author())
	assert.Equal(t, "HarperCollins", book.Publisher())
	assert.Equal(t, "1999", book.Year())
	assert.Equal(t, 320, book.Pages())
	assert.Equal(t, "0261102214", book.ISBN())
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-M.jpg", book.Image())
}

func Test_LookupISBN_DefaultsForMissingSubtitleAndCover(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"ISBN:1": {"title": "T", "authors": [{"name": "A"}], "publishers": [{"name": "P"}], "publish_date": "2000"}}`)
	client := openlibrary.NewClient(srv.URL, time.Second, logger.Discard())

	book, err := client.LookupISBN(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "-", book.Subtitle())
	assert.Equal(t, "-", book.Image())
	assert.Equal(t, 0, book.Pages())
}

func Test_LookupISBN_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http_404", status: http.StatusNotFound, body: ``},
		{name: "empty_object", status: http.StatusOK, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			client := openlibrary.NewClient(srv.URL, time.Second, logger.Discard())

			_, err := client.LookupISBN(context.Background(), "123")

			assert.ErrorIs(t, err, domain.ErrBookNotFound)
		})
	}
}

func Test_LookupISBN_ExternalFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server_error", status: http.StatusInternalServerError, body: `oops`},
		{name: "bad_json", status: http.StatusOK, body: `{not json`},
		{name: "incomplete_record", status: http.StatusOK, body: `{"ISBN:123": {"title": ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			client := openlibrary.NewClient(srv.URL, time.Second, logger.Discard())

			_, err := client.LookupISBN(context.Background(), "123")

			var ext *domain.ExternalServiceError
			require.ErrorAs(t, err, &ext)
			assert.Equal(t, "open library", ext.Service)
		})
	}
}

func Test_LookupISBN_UnreachableDegradesToNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := openlibrary.NewClient(base, time.Second, logger.Discard())

	_, err := client.LookupISBN(context.Background(), "123")

	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}
