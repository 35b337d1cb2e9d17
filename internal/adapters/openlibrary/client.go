// Package openlibrary looks books up by ISBN on the Open Library books API.
package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

const serviceName = "open library"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type named struct {
	Name string `json:"name"`
}

type bookData struct {
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle"`
	Notes         any     `json:"notes"`
	Authors       []named `json:"authors"`
	Publishers    []named `json:"publishers"`
	PublishDate   string  `json:"publish_date"`
	NumberOfPages int     `json:"number_of_pages"`
	Cover         struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// LookupISBN fetches metadata for isbn. An absent book is ErrBookNotFound,
// and so is an unreachable service; any other failure is an
// *ExternalServiceError. The returned book has no id yet.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/books?"+q.Encode(), nil)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		c.log.Warn("open library unreachable", "isbn", isbn, "error", err)
		return nil, domain.ErrBookNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrBookNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ExternalServiceError{Service: serviceName, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: serviceName, StatusCode: resp.StatusCode, Err: err}
	}

	var payload map[string]bookData
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.ExternalServiceError{Service: serviceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	data, ok := payload["ISBN:"+isbn]
	if !ok {
		return nil, domain.ErrBookNotFound
	}

	book, err := toBook(isbn, data)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: serviceName, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug("open library hit", "isbn", isbn, "title", book.Title())

	return book, nil
}

func toBook(isbn string, d bookData) (*domain.Book, error) {
	authors := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	publisher := ""
	if len(d.Publishers) > 0 {
		publisher = d.Publishers[0].Name
	}

	return domain.NewBook(domain.BookParams{
		Author:    strings.Join(authors, ", "),
		Image:     orDash(d.Cover.Medium),
		Title:     d.Title,
		Subtitle:  orDash(firstNonEmpty(d.Subtitle, notesText(d.Notes))),
		Publisher: publisher,
		Year:      d.PublishDate,
		Pages:     d.NumberOfPages,
		ISBN:      isbn,
	})
}

// notesText accepts both shapes Open Library uses for notes: a plain
// string or an object with a "value" field.
func notesText(notes any) string {
	switch n := notes.(type) {
	case string:
		return n
	case map[string]any:
		if v, ok := n["value"].(string); ok {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
