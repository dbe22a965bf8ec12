package repositories

import (
	"context"

	"strata/internal/domain/models"
)

// GroupRepository defines data access operations for the group tree
type GroupRepository interface {
	// Create inserts a new group and fills in its generated id
	Create(ctx context.Context, group *models.Group) error

	// GetByID retrieves a group by ID
	GetByID(ctx context.Context, id string) (*models.Group, error)

	// Update writes the group's mutable fields (name, parent_id)
	Update(ctx context.Context, group *models.Group) error

	// Delete removes a group row
	Delete(ctx context.Context, id string) error

	// ListChildren lists immediate child groups (nil = top level)
	ListChildren(ctx context.Context, parentID *string) ([]models.Group, error)

	// AncestorChain returns the ids on the parent chain starting at id,
	// capped at maxDepth entries
	AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error)

	// CountAll returns the total number of groups
	CountAll(ctx context.Context) (int, error)
}
