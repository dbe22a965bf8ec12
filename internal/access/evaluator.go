// Package access decides whether a principal may see or mutate a node.
// The rules are pure functions over the principal and the node's policy
// attributes; nothing here touches storage.
package access

import (
	"slices"

	"strata/internal/domain/models"
)

// Evaluator applies the clearance, ownership and admin rules
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator backed by the given clearance registry
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Rank returns the principal's clearance rank derived from their position
func (e *Evaluator) Rank(p *models.Principal) int {
	return e.registry.Rank(p.Position)
}

// CanView reports whether the principal may read the node.
// Admins and owners always may. Otherwise the node's clearance level must
// not exceed the principal's rank, and the optional per-node deny/allow
// lists are applied as an extra predicate.
func (e *Evaluator) CanView(p *models.Principal, n *models.Node) bool {
	if p.IsAdmin() {
		return true
	}
	if n.OwnerID == p.ID {
		return true
	}
	if slices.Contains(n.DeniedIDs, p.ID) {
		return false
	}
	if slices.Contains(n.AllowedIDs, p.ID) {
		return true
	}
	return n.ClearanceLevel <= e.Rank(p)
}

// CanWrite reports whether the principal may rename, move, reclassify or
// delete the node. Only admins and owners may; clearance never grants
// write access.
func (e *Evaluator) CanWrite(p *models.Principal, n *models.Node) bool {
	return p.IsAdmin() || n.OwnerID == p.ID
}

// Filter compiles the principal's visibility into the predicate the
// listing queries apply. The SQL filter and CanView must agree; the
// listing tests hold them to that.
func (e *Evaluator) Filter(p *models.Principal) models.AccessFilter {
	return models.AccessFilter{
		Bypass:       p.IsAdmin(),
		ViewerID:     p.ID,
		MaxClearance: e.Rank(p),
	}
}
