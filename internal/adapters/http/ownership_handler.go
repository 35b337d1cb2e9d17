package http

import (
	"net/http"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type OwnershipHandler struct {
	base
	svc domain.OwnershipService
}

func NewOwnershipHandler(svc domain.OwnershipService, log logger.Logger) *OwnershipHandler {
	return &OwnershipHandler{base: newBase(log), svc: svc}
}

func (h *OwnershipHandler) ids(r *http.Request) (int64, int64, error) {
	userID, err := pathID(r.PathValue("userId"), "userId")
	if err != nil {
		return 0, 0, err
	}
	bookID, err := pathID(r.PathValue("bookId"), "bookId")
	if err != nil {
		return 0, 0, err
	}
	return userID, bookID, nil
}

func (h *OwnershipHandler) Assign(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.ids(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.svc.Assign(r.Context(), userID, bookID)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "Book assigned successfully", user)
}

func (h *OwnershipHandler) Deassign(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := h.ids(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.svc.Deassign(r.Context(), userID, bookID)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "Book deassigned successfully", user)
}
