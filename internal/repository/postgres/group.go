package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
)

// GroupRepository implements repositories.GroupRepository using PostgreSQL
type GroupRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewGroupRepository creates a new PostgreSQL group repository
func NewGroupRepository(cfg *RepositoryConfig) repositories.GroupRepository {
	return &GroupRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
		logger: cfg.Logger,
	}
}

// Create inserts a new group and fills in its generated id
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (name, parent_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, r.tables.Groups)

	err := executor.QueryRow(ctx, query, group.Name, group.ParentID).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "parent group not found"}
		}
		return fmt.Errorf("create group: %w", err)
	}

	return nil
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT id, name, parent_id, created_at FROM %s WHERE id = $1
	`, r.tables.Groups)

	var group models.Group
	err := executor.QueryRow(ctx, query, id).
		Scan(&group.ID, &group.Name, &group.ParentID, &group.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", id)}
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	return &group, nil
}

// Update writes the group's mutable fields
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, parent_id = $3 WHERE id = $1
	`, r.tables.Groups)

	tag, err := executor.Exec(ctx, query, group.ID, group.Name, group.ParentID)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "parent group not found"}
		}
		return fmt.Errorf("update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", group.ID)}
	}

	return nil
}

// Delete removes a group row
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Groups)

	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", id)}
	}

	return nil
}

// ListChildren lists immediate child groups (nil = top level)
func (r *GroupRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Group, error) {
	executor := GetExecutor(ctx, r.pool)

	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT id, name, parent_id, created_at FROM %s
			WHERE parent_id IS NULL ORDER BY name
		`, r.tables.Groups)
	} else {
		query = fmt.Sprintf(`
			SELECT id, name, parent_id, created_at FROM %s
			WHERE parent_id = $1 ORDER BY name
		`, r.tables.Groups)
		args = append(args, *parentID)
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list child groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.ParentID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// AncestorChain walks the parent chain upward from id, starting id first,
// capped at maxDepth entries
func (r *GroupRepository) AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 1 AS depth
			FROM %s WHERE id = $1
			UNION ALL
			SELECT g.id, g.parent_id, c.depth + 1
			FROM %s g
			JOIN chain c ON g.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT id FROM chain ORDER BY depth
	`, r.tables.Groups, r.tables.Groups)

	rows, err := executor.Query(ctx, query, id, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("group ancestor chain: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("scan ancestor id: %w", err)
		}
		ids = append(ids, groupID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group ancestor chain: %w", err)
	}

	return ids, nil
}

// CountAll returns the total number of groups
func (r *GroupRepository) CountAll(ctx context.Context) (int, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Groups)

	var count int
	if err := executor.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}

	return count, nil
}
