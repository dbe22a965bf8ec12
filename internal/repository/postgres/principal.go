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

// PrincipalRepository implements repositories.PrincipalRepository using PostgreSQL
type PrincipalRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewPrincipalRepository creates a new PostgreSQL principal repository
func NewPrincipalRepository(cfg *RepositoryConfig) repositories.PrincipalRepository {
	return &PrincipalRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
		logger: cfg.Logger,
	}
}

const principalColumns = `id, username, password_hash, role, position, group_id, created_at`

// Create inserts a new principal and fills in its generated id
func (r *PrincipalRepository) Create(ctx context.Context, principal *models.Principal) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		INSERT INTO %s (username, password_hash, role, position, group_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Principals)

	err := executor.QueryRow(ctx, query,
		principal.Username, principal.PasswordHash, principal.Role,
		principal.Position, principal.GroupID,
	).Scan(&principal.ID, &principal.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username %q is taken", principal.Username),
				ResourceType: "principal",
			}
		}
		return fmt.Errorf("create principal: %w", err)
	}

	return nil
}

// GetByID retrieves a principal by ID
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, principalColumns, r.tables.Principals)

	var p models.Principal
	err := executor.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Username, &p.PasswordHash, &p.Role, &p.Position, &p.GroupID, &p.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", id)}
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}

	return &p, nil
}

// GetByUsername retrieves a principal by unique username
func (r *PrincipalRepository) GetByUsername(ctx context.Context, username string) (*models.Principal, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE username = $1`, principalColumns, r.tables.Principals)

	var p models.Principal
	err := executor.QueryRow(ctx, query, username).Scan(
		&p.ID, &p.Username, &p.PasswordHash, &p.Role, &p.Position, &p.GroupID, &p.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("user %q not found", username)}
		}
		return nil, fmt.Errorf("get principal by username: %w", err)
	}

	return &p, nil
}

// List retrieves all principals
func (r *PrincipalRepository) List(ctx context.Context) ([]models.Principal, error) {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY username`, principalColumns, r.tables.Principals)

	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	defer rows.Close()

	principals := []models.Principal{}
	for rows.Next() {
		var p models.Principal
		if err := rows.Scan(
			&p.ID, &p.Username, &p.PasswordHash, &p.Role, &p.Position, &p.GroupID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		principals = append(principals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate principals: %w", err)
	}

	return principals, nil
}

// Update writes the principal's mutable fields
func (r *PrincipalRepository) Update(ctx context.Context, principal *models.Principal) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		UPDATE %s SET username = $2, position = $3, group_id = $4 WHERE id = $1
	`, r.tables.Principals)

	tag, err := executor.Exec(ctx, query,
		principal.ID, principal.Username, principal.Position, principal.GroupID)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username %q is taken", principal.Username),
				ResourceType: "principal",
			}
		}
		if IsPgForeignKeyError(err) {
			return &domain.NotFoundError{Message: "group not found"}
		}
		return fmt.Errorf("update principal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", principal.ID)}
	}

	return nil
}

// Delete removes a principal row
func (r *PrincipalRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Principals)

	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete principal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", id)}
	}

	return nil
}

// ClearGroup nulls group_id for every member of the given group
func (r *PrincipalRepository) ClearGroup(ctx context.Context, groupID string) error {
	executor := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`UPDATE %s SET group_id = NULL WHERE group_id = $1`, r.tables.Principals)

	if _, err := executor.Exec(ctx, query, groupID); err != nil {
		return fmt.Errorf("clear group membership: %w", err)
	}

	return nil
}
