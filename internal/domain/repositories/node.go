package repositories

import (
	"context"

	"strata/internal/domain/models"
)

// NodeRepository defines data access operations for the file tree
type NodeRepository interface {
	// Create inserts a new node and fills in its generated id and timestamp
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// Update writes the node's mutable fields (name, parent_id, clearance_level)
	Update(ctx context.Context, node *models.Node) error

	// Delete removes a single node row
	Delete(ctx context.Context, id string) error

	// ListChildren lists immediate children of a folder (nil = root level)
	ListChildren(ctx context.Context, parentID *string) ([]models.Node, error)

	// AncestorChain returns the ids on the parent chain starting at id,
	// walking upward until the root or until maxDepth nodes have been
	// visited. The starting id is included as the first element.
	AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error)

	// CountAll returns the total number of nodes in the tree
	CountAll(ctx context.Context) (int, error)

	// ListPage returns one page of nodes visible through the access filter,
	// folders first, newest first within each kind
	ListPage(ctx context.Context, access models.AccessFilter, q models.ListQuery) ([]models.NodeListItem, error)

	// CountMatching counts nodes under the identical predicate as ListPage
	CountMatching(ctx context.Context, access models.AccessFilter, q models.ListQuery) (int, error)

	// ListByOwner retrieves every node owned by a principal (flat)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Node, error)

	// DeleteAllByOwner removes every node row owned by a principal
	DeleteAllByOwner(ctx context.Context, ownerID string) error
}
