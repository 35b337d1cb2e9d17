package http

import (
	"net/http"
	"time"

	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type AuthHandler struct {
	base
	svc domain.AuthService
}

func NewAuthHandler(svc domain.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(log), svc: svc}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  time.Unix(res.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	h.ok(w, http.StatusOK, "OK", res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
