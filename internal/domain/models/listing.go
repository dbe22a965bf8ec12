package models

import (
	"fmt"
)

// Default listing configuration values
const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// ListQuery configures a listing or search over the node tree.
// Search and ParentID are mutually exclusive: when Query is set the listing
// ignores ParentID and matches names across the entire accessible tree.
type ListQuery struct {
	// ParentID scopes the listing to direct children of a folder.
	// nil = root level.
	ParentID *string

	// Search, when non-empty, switches to global substring search
	// (case-insensitive) on node names.
	Search string

	// Page is 1-indexed.
	Page int

	// PageSize is clamped to MaxPageSize.
	PageSize int
}

// ApplyDefaults fills in default values for unset fields
func (q *ListQuery) ApplyDefaults() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// Validate checks that values are reasonable
func (q *ListQuery) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("page must be >= 1 (requested: %d)", q.Page)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d (requested: %d)", MaxPageSize, q.PageSize)
	}
	return nil
}

// Offset returns the row offset for the current page
func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// AccessFilter is the compiled visibility predicate for one principal.
// The repository applies the same filter to both the page query and the
// count query so the two can never diverge.
type AccessFilter struct {
	// Bypass disables filtering entirely (admins see everything)
	Bypass bool

	// ViewerID always sees their own nodes regardless of clearance
	ViewerID string

	// MaxClearance is the highest clearance_level the viewer may see
	MaxClearance int
}
