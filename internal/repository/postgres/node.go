package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
)

// NodeRepository implements repositories.NodeRepository using PostgreSQL
type NodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new PostgreSQL node repository
func NewNodeRepository(cfg *RepositoryConfig) repositories.NodeRepository {
	return &NodeRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
		logger: cfg.Logger,
	}
}

const nodeColumns = `id, name, kind, blob_location, byte_size, content_type,
	owner_id, parent_id, clearance_level, allowed_ids, denied_ids, created_at`

// Create inserts a new node and fills in its generated id and timestamp
func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	executor := GetExecutor(ctx, r.pool)

	// JSONB columns are NOT NULL; never send a nil slice
	if node.AllowedIDs == nil {
		node.AllowedIDs = []string{}
	}
	if node.DeniedIDs == nil {
		node.DeniedIDs = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, kind, blob_location, byte_size, content_type,
			owner_id, parent_id, clearance_level, allowed_ids, denied_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, r.tables.Nodes)

	err := executor.QueryRow(ctx, query,
		node.Name, node.Kind, node.BlobLocation, node.ByteSize, node.ContentType,
		node.OwnerID, node.ParentID, node.ClearanceLevel, node.AllowedIDs, node.DeniedIDs,
	).Scan(&node.ID, &node.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "parent not found"}
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *NodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	var node models.Node
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID, &node.Name, &node.Kind, &node.BlobLocation, &node.ByteSize,
		&node.ContentType, &node.OwnerID, &node.ParentID, &node.ClearanceLevel,
		&node.AllowedIDs, &node.DeniedIDs, &node.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// Update writes the node's mutable fields
func (r *NodeRepository) Update(ctx context.Context, node *models.Node) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, parent_id = $3, clearance_level = $4
		WHERE id = $1
	`, r.tables.Nodes)

	tag, err := executor.Exec(ctx, query, node.ID, node.Name, node.ParentID, node.ClearanceLevel)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "parent not found"}
		}
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", node.ID)}
	}

	return nil
}

// Delete removes a single node row
func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	return nil
}

// ListChildren lists immediate children of a folder (nil = root level)
func (r *NodeRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	executor := GetExecutor(ctx, r.pool)

	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id IS NULL ORDER BY created_at DESC`,
			nodeColumns, r.tables.Nodes)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = $1 ORDER BY created_at DESC`,
			nodeColumns, r.tables.Nodes)
		args = append(args, *parentID)
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := rows.Scan(
			&node.ID, &node.Name, &node.Kind, &node.BlobLocation, &node.ByteSize,
			&node.ContentType, &node.OwnerID, &node.ParentID, &node.ClearanceLevel,
			&node.AllowedIDs, &node.DeniedIDs, &node.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	return nodes, nil
}

// AncestorChain walks the parent chain upward from id, returning the ids
// visited with the starting id first. The recursion stops at the root or
// after maxDepth nodes, whichever comes first; callers compare the result
// length against maxDepth to detect a chain that never terminated.
func (r *NodeRepository) AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 1 AS depth
			FROM %s WHERE id = $1
			UNION ALL
			SELECT n.id, n.parent_id, c.depth + 1
			FROM %s n
			JOIN chain c ON n.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT id FROM chain ORDER BY depth
	`, r.tables.Nodes, r.tables.Nodes)

	rows, err := executor.Query(ctx, query, id, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("ancestor chain: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var nodeID string
		if err := rows.Scan(&nodeID); err != nil {
			return nil, fmt.Errorf("scan ancestor id: %w", err)
		}
		ids = append(ids, nodeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ancestor chain: %w", err)
	}

	return ids, nil
}

// CountAll returns the total number of nodes in the tree
func (r *NodeRepository) CountAll(ctx context.Context) (int, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Nodes)

	var count int
	if err := executor.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}

	return count, nil
}

// buildListPredicate assembles the WHERE clause shared by ListPage and
// CountMatching. Keeping a single builder guarantees the page and the
// total can never disagree on which rows are in scope.
//
// The visibility condition mirrors the in-process access check: owners
// always see their nodes, an entry on the deny list hides the node, an
// entry on the allow list shows it, otherwise clearance decides.
func (r *NodeRepository) buildListPredicate(access models.AccessFilter, q models.ListQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !access.Bypass {
		owner := arg(access.ViewerID)
		denied := arg(access.ViewerID)
		allowed := arg(access.ViewerID)
		clearance := arg(access.MaxClearance)
		conditions = append(conditions, fmt.Sprintf(
			`(n.owner_id = %s OR (NOT (n.denied_ids ? %s) AND (n.allowed_ids ? %s OR n.clearance_level <= %s)))`,
			owner, denied, allowed, clearance))
	}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`n.name ILIKE %s`, arg("%"+escapeLike(q.Search)+"%")))
	} else if q.ParentID == nil {
		conditions = append(conditions, `n.parent_id IS NULL`)
	} else {
		conditions = append(conditions, fmt.Sprintf(`n.parent_id = %s`, arg(*q.ParentID)))
	}

	return strings.Join(conditions, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters so a search term matches
// literally instead of as a pattern
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// ListPage returns one page of nodes visible through the access filter,
// folders first, newest first within each kind
func (r *NodeRepository) ListPage(ctx context.Context, access models.AccessFilter, q models.ListQuery) ([]models.NodeListItem, error) {
	executor := GetExecutor(ctx, r.pool)

	where, args := r.buildListPredicate(access, q)
	limitArg := fmt.Sprintf("$%d", len(args)+1)
	offsetArg := fmt.Sprintf("$%d", len(args)+2)
	args = append(args, q.PageSize, q.Offset())

	query := fmt.Sprintf(`
		SELECT n.id, n.name, n.kind, n.blob_location, n.byte_size, n.content_type,
			n.owner_id, n.parent_id, n.clearance_level, n.allowed_ids, n.denied_ids,
			n.created_at, p.username AS owner_name
		FROM %s n
		JOIN %s p ON n.owner_id = p.id
		WHERE %s
		ORDER BY (n.kind = 'folder') DESC, n.created_at DESC
		LIMIT %s OFFSET %s
	`, r.tables.Nodes, r.tables.Principals, where, limitArg, offsetArg)

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	items := []models.NodeListItem{}
	for rows.Next() {
		var item models.NodeListItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Kind, &item.BlobLocation, &item.ByteSize,
			&item.ContentType, &item.OwnerID, &item.ParentID, &item.ClearanceLevel,
			&item.AllowedIDs, &item.DeniedIDs, &item.CreatedAt, &item.OwnerName,
		); err != nil {
			return nil, fmt.Errorf("scan node list item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return items, nil
}

// CountMatching counts nodes under the identical predicate as ListPage
func (r *NodeRepository) CountMatching(ctx context.Context, access models.AccessFilter, q models.ListQuery) (int, error) {
	executor := GetExecutor(ctx, r.pool)

	where, args := r.buildListPredicate(access, q)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s n WHERE %s`, r.tables.Nodes, where)

	var count int
	if err := executor.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count matching nodes: %w", err)
	}

	return count, nil
}

// ListByOwner retrieves every node owned by a principal (flat)
func (r *NodeRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Node, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = $1`, nodeColumns, r.tables.Nodes)

	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list nodes by owner: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := rows.Scan(
			&node.ID, &node.Name, &node.Kind, &node.BlobLocation, &node.ByteSize,
			&node.ContentType, &node.OwnerID, &node.ParentID, &node.ClearanceLevel,
			&node.AllowedIDs, &node.DeniedIDs, &node.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes by owner: %w", err)
	}

	return nodes, nil
}

// DeleteAllByOwner removes every node row owned by a principal
func (r *NodeRepository) DeleteAllByOwner(ctx context.Context, ownerID string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, r.tables.Nodes)

	if _, err := executor.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("delete nodes by owner: %w", err)
	}

	return nil
}
