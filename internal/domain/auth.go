package domain

import (
	"context"
	"slices"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the authenticated identity handed to the edge layer.
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type AuthService interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ParseToken(token string) (*Principal, error)
}

type Action string

const (
	ActionBookRead    Action = "book:read"
	ActionBookWrite   Action = "book:write"
	ActionBookDelete  Action = "book:delete"
	ActionUserRead    Action = "user:read"
	ActionUserWrite   Action = "user:write"
	ActionUserDelete  Action = "user:delete"
	ActionRoleAssign  Action = "user:role"
	ActionOwnership   Action = "ownership:write"
	ActionEventStream Action = "event:stream"
)

// Policy decides whether a principal may perform an action. It returns
// ErrForbidden when it may not.
type Policy interface {
	Authorize(ctx context.Context, p *Principal, action Action) error
}

// RolePolicy grants actions by role. Actions it does not list are open to
// every authenticated principal.
type RolePolicy struct {
	rules map[Action][]Role
}

func NewRolePolicy() *RolePolicy {
	return &RolePolicy{
		rules: map[Action][]Role{
			ActionBookDelete: {RoleAdmin},
			ActionUserDelete: {RoleAdmin},
			ActionRoleAssign: {RoleAdmin},
		},
	}
}

// Restrict limits action to the given roles, replacing any earlier rule.
func (p *RolePolicy) Restrict(action Action, roles ...Role) *RolePolicy {
	p.rules[action] = roles
	return p
}

func (p *RolePolicy) Authorize(_ context.Context, principal *Principal, action Action) error {
	if principal == nil {
		return ErrUnauthorized
	}

	roles, ok := p.rules[action]
	if !ok {
		return nil
	}

	if slices.Contains(roles, principal.Role) {
		return nil
	}

	return ErrForbidden
}
