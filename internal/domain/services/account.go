package services

import (
	"context"

	"strata/internal/domain/models"
)

// RegisterRequest is the input for self-registration
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Position string `json:"position"`
}

// LoginRequest is the input for authentication
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the signed token plus the public view of the principal
type LoginResult struct {
	Token     string            `json:"token"`
	Principal *models.Principal `json:"user"`
}

// UpdateUserRequest is the admin input for changing another account.
// Nil fields are left alone; GroupID uses a pointer-to-pointer so that an
// explicit null clears the group.
type UpdateUserRequest struct {
	Username *string  `json:"username"`
	Position *string  `json:"position"`
	GroupID  **string `json:"-"`
}

// AccountService manages principal lifecycle and authentication
type AccountService interface {
	// Register creates a new principal with the user role
	Register(ctx context.Context, req *RegisterRequest) (*models.Principal, error)

	// Login verifies credentials and issues a bearer token
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)

	// ListUsers lists all principals (public fields only)
	ListUsers(ctx context.Context) ([]models.Principal, error)

	// UpdateUser mutates another account; admin only
	UpdateUser(ctx context.Context, acting *models.Principal, id string, req *UpdateUserRequest) (*models.Principal, error)

	// DeleteUser removes an account and every node subtree it owns; admin
	// only, self-deletion rejected
	DeleteUser(ctx context.Context, acting *models.Principal, id string) error
}
