package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role gates administrative operations
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Position determines a principal's clearance rank (Staff=1, Manager=2,
// Director=3). Unknown positions are treated as Staff.
type Position string

const (
	PositionStaff    Position = "Staff"
	PositionManager  Position = "Manager"
	PositionDirector Position = "Director"
)

// Principal is an authenticated actor. PasswordHash never leaves the server.
type Principal struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	Position     Position  `json:"position" db:"position"`
	GroupID      *string   `json:"group_id" db:"group_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the principal has the admin role
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// TokenClaims are the JWT claims issued at login. Subject carries the
// principal id; Role and Position are included so clients can adapt their
// UI without another round-trip, but the server re-resolves the principal
// row on every request.
type TokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Position string `json:"position"`
	jwt.RegisteredClaims
}
