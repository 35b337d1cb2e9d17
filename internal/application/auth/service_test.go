package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
	"catalog-server/internal/storage/memory"
)

func newTestService(t *testing.T) (*service, domain.UserRepository) {
	t.Helper()

	users := memory.NewStore().Users()
	svc := NewService(users, Options{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, logger.Discard()).(*service)

	return svc, users
}

func seedUser(t *testing.T, svc *service, users domain.UserRepository, username, password string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := svc.Hash(password)
	require.NoError(t, err)

	u, err := domain.NewUser(domain.UserParams{
		Name:      "Test " + username,
		Username:  username,
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Password:  hash,
		Role:      role,
	})
	require.NoError(t, err)

	saved, err := users.Save(context.Background(), u)
	require.NoError(t, err)
	return saved
}

func Test_HashAndVerify(t *testing.T) {
	svc, _ := newTestService(t)

	hash, err := svc.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, svc.Verify("correct horse", hash))
	assert.False(t, svc.Verify("wrong horse", hash))

	again, err := svc.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func Test_Authenticate(t *testing.T) {
	svc, users := newTestService(t)
	admin := seedUser(t, svc, users, "root", "s3cret-pass", domain.RoleAdmin)
	ctx := context.Background()

	t.Run("success_carries_role_verbatim", func(t *testing.T) {
		p, err := svc.Authenticate(ctx, "root", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, &domain.Principal{UserID: admin.ID(), Username: "root", Role: domain.RoleAdmin}, p)
	})

	t.Run("unknown_username", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "s3cret-pass")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "root", "guess")

		assert.ErrorIs(t, err, domain.ErrBadCredentials)
	})
}

func Test_Login_IssuesParsableToken(t *testing.T) {
	svc, users := newTestService(t)
	user := seedUser(t, svc, users, "reader", "reading-is-fun", "")

	res, err := svc.Login(context.Background(), domain.LoginRequest{Username: "reader", Password: "reading-is-fun"})
	require.NoError(t, err)
	assert.Equal(t, user.ID(), res.User.ID())
	assert.NotEmpty(t, res.AccessToken)

	p, err := svc.ParseToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), p.UserID)
	assert.Equal(t, "reader", p.Username)
	assert.Equal(t, domain.RoleUser, p.Role)
}

func Test_Login_UnknownUserIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "whatever1"})

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NotErrorIs(t, err, domain.ErrBadCredentials)
}

func Test_Login_WrongPasswordIsBadCredentials(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, svc, users, "reader", "reading-is-fun", "")

	_, err := svc.Login(context.Background(), domain.LoginRequest{Username: "reader", Password: "not-the-one"})

	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func Test_ParseToken_Rejects(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, svc, users, "reader", "reading-is-fun", "")

	res, err := svc.Login(context.Background(), domain.LoginRequest{Username: "reader", Password: "reading-is-fun"})
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ParseToken("not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("other_secret", func(t *testing.T) {
		other := NewService(users, Options{JWTSecret: "different", JWTExpiry: time.Hour}, logger.Discard())
		_, err := other.ParseToken(res.AccessToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.ParseToken(res.AccessToken)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
