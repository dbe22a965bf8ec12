package services

import (
	"context"
	"io"

	"strata/internal/domain/models"
	"strata/internal/httputil"
)

// CreateFolderRequest is the input for creating a folder node
type CreateFolderRequest struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	Clearance *int    `json:"access_level"`
}

// UploadRequest is the input for storing a new file node. Content is
// streamed straight into the blob store, never buffered whole.
type UploadRequest struct {
	Name        string
	ParentID    *string
	Clearance   *int
	ContentType string
	Content     io.Reader
}

// UpdateNodeRequest is the input for rename/move/reclassify. ParentID is
// tri-state (RFC 7396 semantics): absent = leave alone, null = move to
// root, value = move under that folder.
type UpdateNodeRequest struct {
	Name      *string                 `json:"name"`
	ParentID  httputil.OptionalString `json:"parent_id"`
	Clearance *int                    `json:"access_level"`
}

// ListNodesRequest is the input for listing/search
type ListNodesRequest struct {
	ParentID *string
	Search   string
	Page     int
	PageSize int
}

// NodeService covers all single-node mutations plus blob access
type NodeService interface {
	// CreateFolder creates a folder owned by the principal
	CreateFolder(ctx context.Context, principal *models.Principal, req *CreateFolderRequest) (*models.Node, error)

	// Upload stores a blob and creates the file node referencing it
	Upload(ctx context.Context, principal *models.Principal, req *UploadRequest) (*models.Node, error)

	// Get retrieves a node the principal is allowed to view
	Get(ctx context.Context, principal *models.Principal, id string) (*models.Node, error)

	// OpenBlob returns a viewable file node together with its content stream.
	// The caller must close the stream.
	OpenBlob(ctx context.Context, principal *models.Principal, id string) (*models.Node, io.ReadCloser, error)

	// Update renames, moves and/or reclassifies a node
	Update(ctx context.Context, principal *models.Principal, id string, req *UpdateNodeRequest) (*models.Node, error)

	// Delete removes the node and its entire subtree, blobs included
	Delete(ctx context.Context, principal *models.Principal, id string) error

	// DeleteAllOwnedBy removes every node owned by a principal along with
	// the blobs. Used by admin account deletion.
	DeleteAllOwnedBy(ctx context.Context, ownerID string) error
}

// ListingService produces paginated, access-filtered views of the tree
type ListingService interface {
	// List returns one page of direct children of a folder, or of a global
	// name search when req.Search is set
	List(ctx context.Context, principal *models.Principal, req *ListNodesRequest) (*models.NodePage, error)
}
