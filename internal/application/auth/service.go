// Package auth turns credentials into principals and principals into
// signed access tokens.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type Options struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
}

type service struct {
	repo domain.UserRepository
	opts Options
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo domain.UserRepository, opts Options, log logger.Logger) domain.AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return &service{
		repo: repo,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

func (s *service) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *service) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Authenticate reports ErrUserNotFound for an unknown username and
// ErrBadCredentials for a wrong password.
func (s *service) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !s.Verify(password, user.PasswordHash()) {
		return nil, domain.ErrBadCredentials
	}

	return &domain.Principal{
		UserID:   user.ID(),
		Username: user.Username(),
		Role:     user.Role(),
	}, nil
}

type claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Login reports an unknown username as ErrUserNotFound and a wrong
// password as ErrBadCredentials.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	principal, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.opts.JWTExpiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: principal.Username,
		Role:     principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString([]byte(s.opts.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Info("user logged in", "user_id", principal.UserID)

	return &domain.AuthResponse{
		User:        user,
		AccessToken: signed,
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

func (s *service) ParseToken(token string) (*domain.Principal, error) {
	var c claims

	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	return &domain.Principal{UserID: id, Username: c.Username, Role: c.Role}, nil
}
