package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apihttp "catalog-server/internal/adapters/http"
	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/application/auth"
	"catalog-server/internal/application/book"
	"catalog-server/internal/application/ownership"
	"catalog-server/internal/application/user"
	"catalog-server/internal/config"
	"catalog-server/internal/domain"
	"catalog-server/internal/event"
	"catalog-server/internal/logger"
	"catalog-server/internal/storage/memory"
)

type stubLookup struct {
	book *domain.Book
	err  error
}

func (s *stubLookup) LookupISBN(context.Context, string) (*domain.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.book.Clone(), nil
}

type env struct {
	handler http.Handler
	authSvc domain.AuthService
	users   domain.UserRepository
	lookup  *stubLookup
}

type envelope struct {
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
	Meta    map[string]any      `json:"meta"`
	Errors  map[string]string   `json:"errors"`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.Discard()
	store := memory.NewStore()
	bus := event.New()

	authSvc := auth.NewService(store.Users(), auth.Options{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)
	lookup := &stubLookup{err: domain.ErrBookNotFound}
	policy := domain.NewRolePolicy()

	handler := apihttp.NewRouter(&config.Config{}, &apihttp.RouterDeps{
		Auth:        apihttp.NewAuthHandler(authSvc, log),
		Book:        apihttp.NewBookHandler(book.NewService(store.Books(), lookup, bus, log), log),
		User:        apihttp.NewUserHandler(user.NewService(store.Users(), authSvc, log), policy, log),
		Ownership:   apihttp.NewOwnershipHandler(ownership.NewService(store.Books(), store.Users(), bus, log), log),
		AuthService: authSvc,
		Policy:      policy,
		Log:         log,
	})

	return &env{handler: handler, authSvc: authSvc, users: store.Users(), lookup: lookup}
}

func (e *env) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

// account stores a user directly, bypassing the public role guard, and
// returns a bearer token for it.
func (e *env) account(t *testing.T, username string, role domain.Role) (int64, string) {
	t.Helper()
	ctx := context.Background()

	hash, err := e.authSvc.Hash("password123")
	require.NoError(t, err)
	u, err := domain.NewUser(domain.UserParams{
		Name:      strings.ToUpper(username),
		Username:  username,
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Password:  hash,
		Role:      role,
	})
	require.NoError(t, err)
	saved, err := e.users.Save(ctx, u)
	require.NoError(t, err)

	res, err := e.authSvc.Login(ctx, domain.LoginRequest{Username: username, Password: "password123"})
	require.NoError(t, err)
	return saved.ID(), res.AccessToken
}

const duneJSON = `{"genre":"Sci-Fi","author":"Frank Herbert","image":"-","title":"Dune","subtitle":"-","publisher":"Chilton","year":"1965","pages":412,"isbn":"0441013597"}`

func createBook(t *testing.T, e *env) int64 {
	t.Helper()
	rec, out := e.do(t, http.MethodPost, "/api/books", duneJSON, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, jsoniter.Unmarshal(out.Data, &b))
	return b.ID
}

func Test_Health(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func Test_Books_RequireAuthentication(t *testing.T) {
	e := newEnv(t)

	rec, out := e.do(t, http.MethodGet, "/api/books", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", out.Message)
}

func Test_Books_CreateSearchShow(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)
	id := createBook(t, e)

	rec, out := e.do(t, http.MethodGet, "/api/books?pages=412&size=5", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out.Data), `"title":"Dune"`)
	assert.EqualValues(t, 1, out.Meta["total"])

	rec, out = e.do(t, http.MethodGet, "/api/books?pages=1", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(out.Data))

	rec, _ = e.do(t, http.MethodGet, "/api/books/"+itoa(id), "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/books/999", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Books_BadQueryAndPage(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)

	rec, _ := e.do(t, http.MethodGet, "/api/books?pages=many", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/books?size=0", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_Search_MalformedPageIsRejected(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)

	rec, out := e.do(t, http.MethodGet, "/api/books?page=abc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out.Errors, "page")

	rec, out = e.do(t, http.MethodGet, "/api/users?size=ten", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out.Errors, "size")

	rec, _ = e.do(t, http.MethodGet, "/api/books?page=0&size=5", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Books_CreateValidation(t *testing.T) {
	e := newEnv(t)

	rec, out := e.do(t, http.MethodPost, "/api/books", `{"title":"Dune"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out.Errors, "author")
	assert.Contains(t, out.Message, "more errors")

	rec, _ = e.do(t, http.MethodPost, "/api/books", `{"unknown":true}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/books", strings.Replace(duneJSON, `"pages":412`, `"pages":-1`, 1), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func Test_Books_UpdateIDMismatch(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)
	id := createBook(t, e)

	body := `{"id":77,` + strings.TrimPrefix(duneJSON, "{")
	rec, _ := e.do(t, http.MethodPut, "/api/books/"+itoa(id), body, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_Books_DeleteNeedsAdmin(t *testing.T) {
	e := newEnv(t)
	_, userToken := e.account(t, "reader", domain.RoleUser)
	_, adminToken := e.account(t, "boss", domain.RoleAdmin)
	id := createBook(t, e)

	rec, _ := e.do(t, http.MethodDelete, "/api/books/"+itoa(id), "", userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(t, http.MethodDelete, "/api/books/"+itoa(id), "", adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/books/"+itoa(id), "", adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Books_ISBNLookup(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)

	rec, _ := e.do(t, http.MethodGet, "/api/books/isbn/123", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e.lookup.err = &domain.ExternalServiceError{Service: "openlibrary", StatusCode: 500}
	rec, _ = e.do(t, http.MethodGet, "/api/books/isbn/123", "", token)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	imported, err := domain.NewBook(domain.BookParams{
		Author: "A", Image: "-", Title: "T", Subtitle: "-", Publisher: "P", Year: "2000", Pages: 1, ISBN: "123",
	})
	require.NoError(t, err)
	e.lookup.err = nil
	e.lookup.book = imported

	rec, _ = e.do(t, http.MethodGet, "/api/books/isbn/123", "", token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/books/isbn/123", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Users_CreateLoginAndCookie(t *testing.T) {
	e := newEnv(t)

	rec, out := e.do(t, http.MethodPost, "/api/users",
		`{"name":"Ada","username":"ada","birthDate":"1815-12-10","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, string(out.Data), "password")

	rec, _ = e.do(t, http.MethodPost, "/api/users",
		`{"name":"Ada","username":"ada","birthDate":"1815-12-10","password":"password123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/login", `{"username":"ada","password":"wrong-pass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/login", `{"username":"nobody","password":"password123"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/login", `{"username":"ada","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/users?name_contains=AD", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"ada"`)
}

func Test_Users_BasicAuth(t *testing.T) {
	e := newEnv(t)
	e.account(t, "basic", domain.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.SetBasicAuth("basic", "password123")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.SetBasicAuth("basic", "nope")
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Users_AdminRoleNeedsAdmin(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.account(t, "boss", domain.RoleAdmin)
	body := `{"name":"Eve","username":"eve","birthDate":"2000-01-01","password":"password123","role":"ADMIN"}`

	rec, _ := e.do(t, http.MethodPost, "/api/users", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/users", body, adminToken)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func Test_Users_BadDateQuery(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)

	rec, out := e.do(t, http.MethodGet, "/api/users?birth_date_from=yesterday", "", token)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out.Errors, "birth_date_from")
}

func Test_Users_ChangePassword(t *testing.T) {
	e := newEnv(t)
	id, token := e.account(t, "reader", domain.RoleUser)
	path := "/api/users/" + itoa(id) + "/password"

	rec, _ := e.do(t, http.MethodPut, path, `{"current_password":"wrong","new_password":"new-password"}`, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodPut, path, `{"current_password":"password123","new_password":"new-password"}`, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/login", `{"username":"reader","password":"new-password"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Ownership_AssignDeassign(t *testing.T) {
	e := newEnv(t)
	userID, token := e.account(t, "reader", domain.RoleUser)
	bookID := createBook(t, e)
	path := "/api/users/" + itoa(userID) + "/books/" + itoa(bookID)

	rec, out := e.do(t, http.MethodPost, path, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out.Data), `"title":"Dune"`)

	rec, _ = e.do(t, http.MethodPost, path, "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/users/"+itoa(userID)+"/books/999", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Logout_ClearsCookie(t *testing.T) {
	e := newEnv(t)
	_, token := e.account(t, "reader", domain.RoleUser)

	rec, _ := e.do(t, http.MethodPost, "/api/auth/logout", "", token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}
