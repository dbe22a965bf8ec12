package services

import (
	"context"

	"strata/internal/domain/models"
	"strata/internal/httputil"
)

// CreateGroupRequest is the input for creating a group
type CreateGroupRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// UpdateGroupRequest is the input for renaming/moving a group. ParentID
// follows the same tri-state semantics as node moves.
type UpdateGroupRequest struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// GroupService manages the organizational group tree. All mutations are
// admin-only; listing is open to any authenticated principal.
type GroupService interface {
	// ListChildren lists immediate child groups (nil = top level)
	ListChildren(ctx context.Context, parentID *string) ([]models.Group, error)

	// Create creates a group
	Create(ctx context.Context, principal *models.Principal, req *CreateGroupRequest) (*models.Group, error)

	// Update renames and/or moves a group
	Update(ctx context.Context, principal *models.Principal, id string, req *UpdateGroupRequest) (*models.Group, error)

	// Delete removes a group. Members are unlinked, not deleted.
	Delete(ctx context.Context, principal *models.Principal, id string) error
}
