package repositories

import (
	"context"

	"strata/internal/domain/models"
)

// PrincipalRepository defines data access operations for principals
type PrincipalRepository interface {
	// Create inserts a new principal and fills in its generated id
	Create(ctx context.Context, principal *models.Principal) error

	// GetByID retrieves a principal by ID
	GetByID(ctx context.Context, id string) (*models.Principal, error)

	// GetByUsername retrieves a principal by unique username
	GetByUsername(ctx context.Context, username string) (*models.Principal, error)

	// List retrieves all principals
	List(ctx context.Context) ([]models.Principal, error)

	// Update writes the principal's mutable fields (username, position, group_id)
	Update(ctx context.Context, principal *models.Principal) error

	// Delete removes a principal row
	Delete(ctx context.Context, id string) error

	// ClearGroup nulls group_id for every member of the given group
	ClearGroup(ctx context.Context, groupID string) error
}
