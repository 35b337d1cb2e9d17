package http

import (
	"net/http"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type BookHandler struct {
	base
	svc domain.BookService
}

func NewBookHandler(svc domain.BookService, log logger.Logger) *BookHandler {
	return &BookHandler{base: newBase(log), svc: svc}
}

func (h *BookHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pages, err := OptInt(q, "pages")
	if err != nil {
		h.fail(w, err)
		return
	}

	filter := domain.BookFilter{
		Title:     OptString(q, "title"),
		Author:    OptString(q, "author"),
		Image:     OptString(q, "image"),
		Subtitle:  OptString(q, "subtitle"),
		Publisher: OptString(q, "publisher"),
		Year:      OptString(q, "year"),
		Pages:     pages,
		ISBN:      OptString(q, "isbn"),
		Genre:     OptString(q, "genre"),
	}

	page, err := GetPage(q)
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.svc.Search(r.Context(), filter, page)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.writer.Write(w, http.StatusOK, pageResponse(result.Items, result.Meta()))
}

func (h *BookHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	book, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "OK", book)
}

// ShowByISBN answers 201 when the book had to be imported from the
// metadata service.
func (h *BookHandler) ShowByISBN(w http.ResponseWriter, r *http.Request) {
	book, created, err := h.svc.FindByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.fail(w, err)
		return
	}

	if created {
		h.ok(w, http.StatusCreated, "Book imported successfully", book)
		return
	}
	h.ok(w, http.StatusOK, "OK", book)
}

func (h *BookHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req domain.BookSaveRequest
	if !h.bind(w, r, &req) {
		return
	}

	book, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusCreated, "Book created successfully", book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	var req domain.BookSaveRequest
	if !h.bind(w, r, &req) {
		return
	}

	book, err := h.svc.Update(r.Context(), req, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "Book updated successfully", book)
}

func (h *BookHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
