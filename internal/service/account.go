package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"strata/internal/access"
	"strata/internal/auth"
	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
	"strata/internal/domain/services"
)

// AccountService implements services.AccountService
type AccountService struct {
	principals repositories.PrincipalRepository
	groups     repositories.GroupRepository
	nodeSvc    services.NodeService
	tokens     *auth.TokenManager
	registry   *access.Registry
	logger     *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	principals repositories.PrincipalRepository,
	groups repositories.GroupRepository,
	nodeSvc services.NodeService,
	tokens *auth.TokenManager,
	registry *access.Registry,
	logger *slog.Logger,
) services.AccountService {
	return &AccountService{
		principals: principals,
		groups:     groups,
		nodeSvc:    nodeSvc,
		tokens:     tokens,
		registry:   registry,
		logger:     logger,
	}
}

// validatePosition checks the position against the clearance registry
func (s *AccountService) validatePosition(position string) error {
	if !s.registry.Known(models.Position(position)) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("unknown position %q", position),
		}
	}
	return nil
}

// Register creates a new principal with the user role
func (s *AccountService) Register(ctx context.Context, req *services.RegisterRequest) (*models.Principal, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 128)),
	); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	position := req.Position
	if position == "" {
		position = string(models.PositionStaff)
	}
	if err := s.validatePosition(position); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	principal := &models.Principal{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Position:     models.Position(position),
	}
	if err := s.principals.Create(ctx, principal); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", principal.ID, "position", principal.Position)
	return principal, nil
}

// Login verifies credentials and issues a bearer token. Unknown usernames
// and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, &domain.ValidationError{Message: "username and password are required"}
	}

	principal, err := s.principals.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, &domain.UnauthorizedError{Message: "invalid credentials"}
	}

	if !auth.CheckPassword(principal.PasswordHash, req.Password) {
		return nil, &domain.UnauthorizedError{Message: "invalid credentials"}
	}

	token, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", principal.ID)
	return &services.LoginResult{Token: token, Principal: principal}, nil
}

// ListUsers lists all principals
func (s *AccountService) ListUsers(ctx context.Context) ([]models.Principal, error) {
	return s.principals.List(ctx)
}

// UpdateUser mutates another account; admin only
func (s *AccountService) UpdateUser(ctx context.Context, acting *models.Principal, id string, req *services.UpdateUserRequest) (*models.Principal, error) {
	if !acting.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "admin access required"}
	}

	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		if err := validation.Validate(*req.Username,
			validation.Required, validation.Length(3, 50),
		); err != nil {
			return nil, &domain.ValidationError{Message: "username: " + err.Error()}
		}
		principal.Username = *req.Username
	}

	if req.Position != nil {
		if err := s.validatePosition(*req.Position); err != nil {
			return nil, err
		}
		principal.Position = models.Position(*req.Position)
	}

	if req.GroupID != nil {
		if *req.GroupID == nil {
			principal.GroupID = nil
		} else {
			if _, err := s.groups.GetByID(ctx, **req.GroupID); err != nil {
				return nil, err
			}
			principal.GroupID = *req.GroupID
		}
	}

	if err := s.principals.Update(ctx, principal); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", principal.ID, "actor_id", acting.ID)
	return principal, nil
}

// DeleteUser removes an account and every node subtree it owns; admin
// only, self-deletion rejected
func (s *AccountService) DeleteUser(ctx context.Context, acting *models.Principal, id string) error {
	if !acting.IsAdmin() {
		return &domain.ForbiddenError{Message: "admin access required"}
	}
	if acting.ID == id {
		return &domain.ValidationError{Message: "cannot delete your own account"}
	}

	if _, err := s.principals.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.nodeSvc.DeleteAllOwnedBy(ctx, id); err != nil {
		return err
	}

	if err := s.principals.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", acting.ID)
	return nil
}
