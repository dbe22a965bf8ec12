package models

import (
	"time"
)

// NodeKind discriminates files from folders. Immutable once created.
type NodeKind string

const (
	KindFile   NodeKind = "file"
	KindFolder NodeKind = "folder"
)

// Node is a single entry in the file tree. ParentID is the tree edge:
// NULL means the node sits at the root. Folders carry no blob; BlobLocation,
// ByteSize and ContentType are meaningful for files only.
type Node struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Kind           NodeKind  `json:"kind" db:"kind"`
	BlobLocation   *string   `json:"-" db:"blob_location"`
	ByteSize       int64     `json:"byte_size" db:"byte_size"`
	ContentType    string    `json:"content_type,omitempty" db:"content_type"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	ParentID       *string   `json:"parent_id" db:"parent_id"`
	ClearanceLevel int       `json:"clearance_level" db:"clearance_level"`
	AllowedIDs     []string  `json:"allowed_ids,omitempty" db:"allowed_ids"`
	DeniedIDs      []string  `json:"denied_ids,omitempty" db:"denied_ids"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// NodeListItem is a Node joined with its owner's username, the shape the
// listing endpoint returns.
type NodeListItem struct {
	Node
	OwnerName string `json:"owner_name" db:"owner_name"`
}

// NodePage is one page of an access-filtered listing
type NodePage struct {
	Items      []NodeListItem `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}
