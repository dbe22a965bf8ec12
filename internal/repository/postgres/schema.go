package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables if they do not exist yet. Statements are
// idempotent; running them on every start keeps a fresh database usable
// without a separate migration step.
//
// Creation order matters: principals reference groups, nodes reference
// both. nodes.parent_id cascades so that rows left behind by an
// interrupted recursive delete disappear with their parent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				parent_id UUID REFERENCES %s(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Groups, tables.Groups),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				username TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'user',
				position TEXT NOT NULL DEFAULT 'Staff',
				group_id UUID REFERENCES %s(id) ON DELETE SET NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Principals, tables.Groups),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				kind TEXT NOT NULL,
				blob_location TEXT,
				byte_size BIGINT NOT NULL DEFAULT 0,
				content_type TEXT NOT NULL DEFAULT '',
				owner_id UUID NOT NULL REFERENCES %s(id),
				parent_id UUID REFERENCES %s(id) ON DELETE CASCADE,
				clearance_level INT NOT NULL DEFAULT 1,
				allowed_ids JSONB NOT NULL DEFAULT '[]',
				denied_ids JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, tables.Nodes, tables.Principals, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_parent_idx ON %s (parent_id)`,
			tables.Nodes, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner_id)`,
			tables.Nodes, tables.Nodes),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_name_idx ON %s (name)`,
			tables.Nodes, tables.Nodes),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
