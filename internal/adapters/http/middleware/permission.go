package middleware

import (
	"errors"
	"net/http"

	"catalog-server/internal/domain"
)

// Permission asks policy whether the authenticated caller may perform
// action. It must run after Authenticate.
func Permission(policy domain.Policy, action domain.Action) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := GetPrincipal(r.Context())

			if err := policy.Authorize(r.Context(), principal, action); err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeJSONError(w, http.StatusForbidden, "you don't have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
