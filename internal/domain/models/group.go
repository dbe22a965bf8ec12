package models

import (
	"time"
)

// Group is an organizational unit for principals. Groups form a forest via
// ParentID, same shape as the node tree but without clearance semantics.
type Group struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ParentID  *string   `json:"parent_id" db:"parent_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
