package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"strata/internal/access"
	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
	"strata/internal/domain/services"
	"strata/internal/storage"
)

// NodeService implements services.NodeService
type NodeService struct {
	nodes     repositories.NodeRepository
	txManager repositories.TransactionManager
	blobs     storage.BlobStore
	evaluator *access.Evaluator
	registry  *access.Registry
	logger    *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodes repositories.NodeRepository,
	txManager repositories.TransactionManager,
	blobs storage.BlobStore,
	evaluator *access.Evaluator,
	registry *access.Registry,
	logger *slog.Logger,
) services.NodeService {
	return &NodeService{
		nodes:     nodes,
		txManager: txManager,
		blobs:     blobs,
		evaluator: evaluator,
		registry:  registry,
		logger:    logger,
	}
}

// validName rejects names that cannot safely round-trip through paths and
// headers
func validName(value interface{}) error {
	name, _ := value.(string)
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("must not contain path separators")
	}
	return nil
}

// validateClearance checks the requested level against the defined ranks
func (s *NodeService) validateClearance(level int) error {
	if level < 1 || level > s.registry.MaxRank() {
		return &domain.ValidationError{
			Message: fmt.Sprintf("access level must be between 1 and %d", s.registry.MaxRank()),
		}
	}
	return nil
}

// resolveParent verifies that the requested parent exists and is a folder
func (s *NodeService) resolveParent(ctx context.Context, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.nodes.GetByID(ctx, *parentID)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return &domain.ValidationError{Message: "parent must be a folder"}
	}
	return nil
}

// CreateFolder creates a folder owned by the principal
func (s *NodeService) CreateFolder(ctx context.Context, principal *models.Principal, req *services.CreateFolderRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255), validation.By(validName)),
	); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	clearance := 1
	if req.Clearance != nil {
		clearance = *req.Clearance
	}
	if err := s.validateClearance(clearance); err != nil {
		return nil, err
	}

	if err := s.resolveParent(ctx, req.ParentID); err != nil {
		return nil, err
	}

	node := &models.Node{
		Name:           req.Name,
		Kind:           models.KindFolder,
		OwnerID:        principal.ID,
		ParentID:       req.ParentID,
		ClearanceLevel: clearance,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("folder created", "node_id", node.ID, "owner_id", principal.ID)
	return node, nil
}

// Upload stores a blob and creates the file node referencing it. The blob
// is written first; if the row insert then fails the blob is removed so the
// store never accumulates unreferenced content.
func (s *NodeService) Upload(ctx context.Context, principal *models.Principal, req *services.UploadRequest) (*models.Node, error) {
	if err := validation.Validate(req.Name,
		validation.Required, validation.Length(1, 255), validation.By(validName),
	); err != nil {
		return nil, &domain.ValidationError{Message: "name: " + err.Error()}
	}

	clearance := 1
	if req.Clearance != nil {
		clearance = *req.Clearance
	}
	if err := s.validateClearance(clearance); err != nil {
		return nil, err
	}

	if err := s.resolveParent(ctx, req.ParentID); err != nil {
		return nil, err
	}

	location, size, err := s.blobs.Save(ctx, req.Content)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	node := &models.Node{
		Name:           req.Name,
		Kind:           models.KindFile,
		BlobLocation:   &location,
		ByteSize:       size,
		ContentType:    contentType,
		OwnerID:        principal.ID,
		ParentID:       req.ParentID,
		ClearanceLevel: clearance,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		if removeErr := s.blobs.Remove(ctx, location); removeErr != nil {
			s.logger.Warn("orphan blob left after failed upload",
				"location", location, "error", removeErr)
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		"node_id", node.ID, "owner_id", principal.ID, "bytes", size)
	return node, nil
}

// Get retrieves a node the principal is allowed to view
func (s *NodeService) Get(ctx context.Context, principal *models.Principal, id string) (*models.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanView(principal, node) {
		return nil, &domain.ForbiddenError{Message: "access denied"}
	}
	return node, nil
}

// OpenBlob returns a viewable file node together with its content stream
func (s *NodeService) OpenBlob(ctx context.Context, principal *models.Principal, id string) (*models.Node, io.ReadCloser, error) {
	node, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder() {
		return nil, nil, &domain.ValidationError{Message: "folders have no content"}
	}
	if node.BlobLocation == nil {
		return nil, nil, &domain.NotFoundError{Message: "file content missing"}
	}

	rc, err := s.blobs.Open(ctx, *node.BlobLocation)
	if err != nil {
		s.logger.Error("blob missing for node", "node_id", node.ID, "error", err)
		return nil, nil, &domain.NotFoundError{Message: "file content missing"}
	}

	return node, rc, nil
}

// Update renames, moves and/or reclassifies a node. Missing nodes and
// nodes the principal cannot write both come back as not found, so the
// response does not reveal which ids exist.
func (s *NodeService) Update(ctx context.Context, principal *models.Principal, id string, req *services.UpdateNodeRequest) (*models.Node, error) {
	if req.Name == nil && !req.ParentID.Present && req.Clearance == nil {
		return nil, &domain.ValidationError{Message: "nothing to update"}
	}

	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.evaluator.CanWrite(principal, node) {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	if req.Name != nil {
		if err := validation.Validate(*req.Name,
			validation.Required, validation.Length(1, 255), validation.By(validName),
		); err != nil {
			return nil, &domain.ValidationError{Message: "name: " + err.Error()}
		}
		node.Name = *req.Name
	}

	if req.Clearance != nil {
		if err := s.validateClearance(*req.Clearance); err != nil {
			return nil, err
		}
		node.ClearanceLevel = *req.Clearance
	}

	if req.ParentID.Present {
		if req.ParentID.Value == nil {
			node.ParentID = nil
		} else {
			target := *req.ParentID.Value
			if err := s.validateNoCycle(ctx, node.ID, target); err != nil {
				return nil, err
			}
			if err := s.resolveParent(ctx, &target); err != nil {
				return nil, err
			}
			node.ParentID = &target
		}
	}

	if err := s.nodes.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node updated", "node_id", node.ID, "actor_id", principal.ID)
	return node, nil
}

// validateNoCycle rejects a move that would make the node its own
// ancestor. The check walks the target's parent chain upward; if the moved
// node appears on it, or the walk never reaches a root within the size of
// the whole tree, the move is refused.
func (s *NodeService) validateNoCycle(ctx context.Context, nodeID, targetParentID string) error {
	if nodeID == targetParentID {
		return &domain.CycleError{NodeID: nodeID, ParentID: targetParentID}
	}

	total, err := s.nodes.CountAll(ctx)
	if err != nil {
		return err
	}
	maxDepth := total + 1

	chain, err := s.nodes.AncestorChain(ctx, targetParentID, maxDepth)
	if err != nil {
		return err
	}
	if slices.Contains(chain, nodeID) {
		return &domain.CycleError{NodeID: nodeID, ParentID: targetParentID}
	}
	if len(chain) >= maxDepth {
		// A chain longer than the tree means an existing loop; refuse to
		// extend it.
		return &domain.CycleError{NodeID: nodeID, ParentID: targetParentID}
	}

	return nil
}

// Delete removes the node and its entire subtree, blobs included. The
// whole subtree is collected and authorized up front; one unauthorized
// descendant aborts the operation with nothing deleted. Rows go first,
// inside one transaction, then blobs; a blob that fails to delete is
// logged and skipped so the tree and the listing stay consistent.
func (s *NodeService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	root, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.evaluator.CanWrite(principal, root) {
		return &domain.ForbiddenError{Message: "access denied"}
	}

	subtree, err := s.collectSubtree(ctx, root)
	if err != nil {
		return err
	}
	for i := range subtree {
		if !s.evaluator.CanWrite(principal, &subtree[i]) {
			return &domain.ForbiddenError{Message: "access denied"}
		}
	}

	// subtree is in post-order: children precede their parents
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for i := range subtree {
			if err := s.nodes.Delete(txCtx, subtree[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, subtree)

	s.logger.Info("subtree deleted",
		"node_id", id, "actor_id", principal.ID, "nodes", len(subtree))
	return nil
}

// collectSubtree gathers the node and all descendants in post-order
func (s *NodeService) collectSubtree(ctx context.Context, root *models.Node) ([]models.Node, error) {
	var out []models.Node

	var walk func(n *models.Node) error
	walk = func(n *models.Node) error {
		if n.IsFolder() {
			children, err := s.nodes.ListChildren(ctx, &n.ID)
			if err != nil {
				return err
			}
			for i := range children {
				if err := walk(&children[i]); err != nil {
					return err
				}
			}
		}
		out = append(out, *n)
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// removeBlobs deletes the blob behind every file node, logging failures
// instead of propagating them
func (s *NodeService) removeBlobs(ctx context.Context, nodes []models.Node) {
	for i := range nodes {
		n := &nodes[i]
		if n.IsFolder() || n.BlobLocation == nil {
			continue
		}
		if err := s.blobs.Remove(ctx, *n.BlobLocation); err != nil {
			s.logger.Warn("blob removal failed",
				"node_id", n.ID, "location", *n.BlobLocation, "error", err)
		}
	}
}

// DeleteAllOwnedBy removes every node owned by a principal along with the
// blobs. Rows are removed flat in one statement; descendants owned by
// other principals are reattached nowhere and disappear through the
// parent_id cascade.
func (s *NodeService) DeleteAllOwnedBy(ctx context.Context, ownerID string) error {
	owned, err := s.nodes.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := s.nodes.DeleteAllByOwner(ctx, ownerID); err != nil {
		return err
	}

	s.removeBlobs(ctx, owned)

	s.logger.Info("owned nodes deleted", "owner_id", ownerID, "nodes", len(owned))
	return nil
}
