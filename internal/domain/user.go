// Package domain
package domain

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"time"

	"catalog-server/internal/query"
)

type User struct {
	id        int64
	name      string
	username  string
	birthDate time.Time
	password  string
	role      Role
	books     map[int64]*Book
}

type UserParams struct {
	Name      string
	Username  string
	BirthDate time.Time
	// Password must already be hashed.
	Password string
	Role     Role
}

func NewUser(p UserParams) (*User, error) {
	u := &User{books: make(map[int64]*Book)}

	if err := u.SetName(p.Name); err != nil {
		return nil, err
	}
	if err := u.SetUsername(p.Username); err != nil {
		return nil, err
	}
	if err := u.SetBirthDate(p.BirthDate); err != nil {
		return nil, err
	}
	if err := u.SetPassword(p.Password); err != nil {
		return nil, err
	}
	u.SetRole(p.Role)

	return u, nil
}

// RestoreUser rebuilds a persisted user together with its owned books.
func RestoreUser(id int64, p UserParams, books []*Book) (*User, error) {
	u, err := NewUser(p)
	if err != nil {
		return nil, err
	}
	if err := u.SetID(id); err != nil {
		return nil, err
	}
	for _, b := range books {
		u.books[b.ID()] = b
	}
	return u, nil
}

func (u *User) ID() int64            { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Username() string     { return u.username }
func (u *User) BirthDate() time.Time { return u.birthDate }
func (u *User) PasswordHash() string { return u.password }
func (u *User) Role() Role           { return u.role }

func (u *User) SetID(id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Reason: "must be positive"}
	}
	if u.id != 0 && u.id != id {
		return &ValidationError{Field: "id", Reason: "is immutable"}
	}
	u.id = id
	return nil
}

func (u *User) SetName(name string) error {
	return setString(&u.name, "name", name)
}

func (u *User) SetUsername(username string) error {
	return setString(&u.username, "username", username)
}

// SetBirthDate keeps only the calendar date of birthDate.
func (u *User) SetBirthDate(birthDate time.Time) error {
	if err := checkDate("birthDate", birthDate); err != nil {
		return err
	}
	u.birthDate = query.TruncateDay(birthDate)
	return nil
}

func (u *User) SetPassword(hash string) error {
	return setString(&u.password, "password", hash)
}

// SetRole assigns role, falling back to RoleUser when it is empty.
func (u *User) SetRole(role Role) {
	if role == "" {
		role = RoleUser
	}
	u.role = role
}

// Books returns the owned books ordered by id. The slice is a copy;
// changing it does not affect the user.
func (u *User) Books() []*Book {
	ids := slices.Sorted(maps.Keys(u.books))
	out := make([]*Book, 0, len(ids))
	for _, id := range ids {
		out = append(out, u.books[id].Clone())
	}
	return out
}

func (u *User) BookIDs() []int64 {
	return slices.Sorted(maps.Keys(u.books))
}

func (u *User) Owns(bookID int64) bool {
	_, ok := u.books[bookID]
	return ok
}

// AssignBook adds b to the owned set. It fails with *AlreadyOwnedError and
// leaves the set untouched when b is already present.
func (u *User) AssignBook(b *Book) error {
	if u.Owns(b.ID()) {
		return &AlreadyOwnedError{UserID: u.id, BookID: b.ID()}
	}
	u.books[b.ID()] = b
	return nil
}

// DeassignBook removes the book from the owned set, failing with
// *NotOwnedError when it is absent.
func (u *User) DeassignBook(bookID int64) error {
	if !u.Owns(bookID) {
		return &NotOwnedError{UserID: u.id, BookID: bookID}
	}
	delete(u.books, bookID)
	return nil
}

func (u *User) Params() UserParams {
	return UserParams{
		Name:      u.name,
		Username:  u.username,
		BirthDate: u.birthDate,
		Password:  u.password,
		Role:      u.role,
	}
}

func (u *User) Clone() *User {
	c := *u
	c.books = make(map[int64]*Book, len(u.books))
	for id, b := range u.books {
		c.books[id] = b.Clone()
	}
	return &c
}

type userJSON struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Username  string  `json:"username"`
	BirthDate string  `json:"birthDate"`
	Role      Role    `json:"role"`
	Books     []*Book `json:"books"`
}

func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:        u.id,
		Name:      u.name,
		Username:  u.username,
		BirthDate: u.birthDate.Format(time.DateOnly),
		Role:      u.role,
		Books:     u.Books(),
	})
}

type UserSaveRequest struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	Role      Role   `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
	// Update loads the user, applies fn and persists the result atomically
	// with respect to other writers of the same user. When fn fails nothing
	// is written and its error is returned unchanged.
	Update(ctx context.Context, id int64, fn func(*User) error) (*User, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter UserFilter, page query.PageRequest) (*query.Page[*User], error)
}

type UserService interface {
	Get(ctx context.Context, id int64) (*User, error)
	Search(ctx context.Context, filter UserFilter, page query.PageRequest) (*query.Page[*User], error)
	Create(ctx context.Context, req UserSaveRequest) (*User, error)
	Update(ctx context.Context, req UserSaveRequest, userID int64) (*User, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest, userID int64) error
	Delete(ctx context.Context, userID int64) error
}

// OwnershipService is the only way callers change which books a user owns.
type OwnershipService interface {
	Assign(ctx context.Context, userID, bookID int64) (*User, error)
	Deassign(ctx context.Context, userID, bookID int64) (*User, error)
}
