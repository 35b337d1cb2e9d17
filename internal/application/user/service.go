// Package user
package user

import (
	"context"
	"time"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
	"catalog-server/internal/query"
)

// Hasher is the slice of the auth service this package needs.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type service struct {
	repo   domain.UserRepository
	hasher Hasher
	log    logger.Logger
}

func NewService(repo domain.UserRepository, hasher Hasher, log logger.Logger) domain.UserService {
	return &service{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

func (s *service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Search(ctx context.Context, filter domain.UserFilter, page query.PageRequest) (*query.Page[*domain.User], error) {
	return s.repo.Search(ctx, filter, page)
}

func (s *service) Create(ctx context.Context, req domain.UserSaveRequest) (*domain.User, error) {
	if req.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Reason: "cannot be empty"}
	}

	born, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(domain.UserParams{
		Name:      req.Name,
		Username:  req.Username,
		BirthDate: born,
		Password:  hash,
		Role:      req.Role,
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", "user_id", saved.ID(), "username", saved.Username())

	return saved, nil
}

// Update rewrites the profile fields. The password is only replaced when
// the request carries one, and the role only when it is set.
func (s *service) Update(ctx context.Context, req domain.UserSaveRequest, userID int64) (*domain.User, error) {
	if req.ID != 0 && req.ID != userID {
		return nil, &domain.IDMismatchError{Entity: "user", PathID: userID, BodyID: req.ID}
	}

	born, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	var hash string
	if req.Password != "" {
		if hash, err = s.hasher.Hash(req.Password); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, userID, func(u *domain.User) error {
		if err := u.SetName(req.Name); err != nil {
			return err
		}
		if err := u.SetUsername(req.Username); err != nil {
			return err
		}
		if err := u.SetBirthDate(born); err != nil {
			return err
		}
		if hash != "" {
			if err := u.SetPassword(hash); err != nil {
				return err
			}
		}
		if req.Role != "" {
			u.SetRole(req.Role)
		}
		return nil
	})
}

func (s *service) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest, userID int64) error {
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	_, err = s.repo.Update(ctx, userID, func(u *domain.User) error {
		if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash()) {
			return domain.ErrBadCredentials
		}
		return u.SetPassword(hash)
	})
	if err != nil {
		return err
	}

	s.log.Info("password changed", "user_id", userID)

	return nil
}

func (s *service) Delete(ctx context.Context, userID int64) error {
	return s.repo.Delete(ctx, userID)
}

func parseBirthDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: "birthDate", Reason: "cannot be null"}
	}

	born, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "birthDate", Reason: "must be a date (YYYY-MM-DD)"}
	}

	return born, nil
}
