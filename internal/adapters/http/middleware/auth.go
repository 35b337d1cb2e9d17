package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"catalog-server/internal/domain"
)

type contextKey string

const principalKey contextKey = "principal"

const AccessTokenCookie = "access_token"

var errNoCredentials = errors.New("no credentials")

// TokenParser is the part of the auth service the middleware needs.
type TokenParser interface {
	ParseToken(token string) (*domain.Principal, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Principal, error)
}

// Authenticate resolves the caller from a bearer token, the access_token
// cookie or HTTP basic credentials, in that order.
func Authenticate(auth TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolve(r, auth)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer, Basic realm="catalog"`)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Identify attaches the caller when valid credentials are present and
// otherwise passes the request through anonymously. It guards public
// routes whose behaviour depends on who is asking.
func Identify(auth TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolve(r, auth)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func resolve(r *http.Request, auth TokenParser) (*domain.Principal, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return auth.ParseToken(strings.TrimSpace(token))
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return auth.ParseToken(cookie.Value)
	}

	if username, password, ok := r.BasicAuth(); ok {
		return auth.Authenticate(r.Context(), username, password)
	}

	return nil, errNoCredentials
}

func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	return p, ok && p != nil
}
