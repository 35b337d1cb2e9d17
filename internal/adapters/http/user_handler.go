package http

import (
	"net/http"

	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type UserHandler struct {
	base
	svc    domain.UserService
	policy domain.Policy
}

func NewUserHandler(svc domain.UserService, policy domain.Policy, log logger.Logger) *UserHandler {
	return &UserHandler{base: newBase(log), svc: svc, policy: policy}
}

// authorizeRole lets only callers allowed to assign roles pick one other
// than the default.
func (h *UserHandler) authorizeRole(r *http.Request, role domain.Role) error {
	if role == "" {
		return nil
	}
	principal, _ := middleware.GetPrincipal(r.Context())
	return h.policy.Authorize(r.Context(), principal, domain.ActionRoleAssign)
}

func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := OptDate(q, "birth_date_from")
	if err != nil {
		h.fail(w, err)
		return
	}
	to, err := OptDate(q, "birth_date_to")
	if err != nil {
		h.fail(w, err)
		return
	}

	filter := domain.UserFilter{
		Username:      OptString(q, "username"),
		Name:          OptString(q, "name"),
		NameContains:  OptString(q, "name_contains"),
		BirthDateFrom: from,
		BirthDateTo:   to,
	}
	if raw := OptString(q, "role"); raw != nil {
		role := domain.Role(*raw)
		filter.Role = &role
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

func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "OK", user)
}

func (h *UserHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req domain.UserSaveRequest
	if !h.bind(w, r, &req) {
		return
	}

	if req.Role != domain.RoleUser {
		if err := h.authorizeRole(r, req.Role); err != nil {
			h.fail(w, err)
			return
		}
	}

	user, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	var req domain.UserSaveRequest
	if !h.bind(w, r, &req) {
		return
	}

	if err := h.authorizeRole(r, req.Role); err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.svc.Update(r.Context(), req, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.ok(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.PathValue("id"), "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	var req domain.ChangePasswordRequest
	if !h.bind(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), req, id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Destroy(w http.ResponseWriter, r *http.Request) {
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
