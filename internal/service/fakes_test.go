package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
)

// memNodeRepo is an in-memory NodeRepository for service tests
type memNodeRepo struct {
	mu         sync.Mutex
	seq        int
	nodes      map[string]*models.Node
	ownerNames map[string]string
}

func newMemNodeRepo() *memNodeRepo {
	return &memNodeRepo{
		nodes:      make(map[string]*models.Node),
		ownerNames: make(map[string]string),
	}
}

func (r *memNodeRepo) nextID() (string, time.Time) {
	r.seq++
	return fmt.Sprintf("n%03d", r.seq), time.Unix(int64(1700000000+r.seq), 0)
}

func (r *memNodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node.ID, node.CreatedAt = r.nextID()
	if node.AllowedIDs == nil {
		node.AllowedIDs = []string{}
	}
	if node.DeniedIDs == nil {
		node.DeniedIDs = []string{}
	}
	copied := *node
	r.nodes[node.ID] = &copied
	return nil
}

func (r *memNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	copied := *node
	return &copied, nil
}

func (r *memNodeRepo) Update(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.nodes[node.ID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", node.ID)}
	}
	existing.Name = node.Name
	existing.ParentID = node.ParentID
	existing.ClearanceLevel = node.ClearanceLevel
	return nil
}

func (r *memNodeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	delete(r.nodes, id)
	return nil
}

func (r *memNodeRepo) ListChildren(ctx context.Context, parentID *string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Node
	for _, node := range r.nodes {
		if sameParent(node.ParentID, parentID) {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memNodeRepo) AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chain []string
	current, ok := r.nodes[id]
	for ok && len(chain) < maxDepth {
		chain = append(chain, current.ID)
		if current.ParentID == nil {
			break
		}
		current, ok = r.nodes[*current.ParentID]
	}
	return chain, nil
}

func (r *memNodeRepo) CountAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes), nil
}

// visible mirrors the SQL listing predicate
func visible(access models.AccessFilter, n *models.Node) bool {
	if access.Bypass {
		return true
	}
	if n.OwnerID == access.ViewerID {
		return true
	}
	if slices.Contains(n.DeniedIDs, access.ViewerID) {
		return false
	}
	if slices.Contains(n.AllowedIDs, access.ViewerID) {
		return true
	}
	return n.ClearanceLevel <= access.MaxClearance
}

func (r *memNodeRepo) matching(access models.AccessFilter, q models.ListQuery) []models.Node {
	var out []models.Node
	for _, node := range r.nodes {
		if !visible(access, node) {
			continue
		}
		if q.Search != "" {
			if !containsFold(node.Name, q.Search) {
				continue
			}
		} else if !sameParent(node.ParentID, q.ParentID) {
			continue
		}
		out = append(out, *node)
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := out[i].IsFolder(), out[j].IsFolder()
		if fi != fj {
			return fi
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memNodeRepo) ListPage(ctx context.Context, access models.AccessFilter, q models.ListQuery) ([]models.NodeListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.matching(access, q)
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}

	items := []models.NodeListItem{}
	for _, node := range all[start:end] {
		items = append(items, models.NodeListItem{
			Node:      node,
			OwnerName: r.ownerNames[node.OwnerID],
		})
	}
	return items, nil
}

func (r *memNodeRepo) CountMatching(ctx context.Context, access models.AccessFilter, q models.ListQuery) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(access, q)), nil
}

func (r *memNodeRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Node
	for _, node := range r.nodes {
		if node.OwnerID == ownerID {
			out = append(out, *node)
		}
	}
	return out, nil
}

func (r *memNodeRepo) DeleteAllByOwner(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, node := range r.nodes {
		if node.OwnerID == ownerID {
			delete(r.nodes, id)
		}
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// memGroupRepo is an in-memory GroupRepository for service tests
type memGroupRepo struct {
	mu     sync.Mutex
	seq    int
	groups map[string]*models.Group
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: make(map[string]*models.Group)}
}

func (r *memGroupRepo) Create(ctx context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	group.ID = fmt.Sprintf("g%03d", r.seq)
	group.CreatedAt = time.Unix(int64(1700000000+r.seq), 0)
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *memGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", id)}
	}
	copied := *group
	return &copied, nil
}

func (r *memGroupRepo) Update(ctx context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.groups[group.ID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", group.ID)}
	}
	existing.Name = group.Name
	existing.ParentID = group.ParentID
	return nil
}

func (r *memGroupRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("group %s not found", id)}
	}
	delete(r.groups, id)
	return nil
}

func (r *memGroupRepo) ListChildren(ctx context.Context, parentID *string) ([]models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Group{}
	for _, group := range r.groups {
		if sameParent(group.ParentID, parentID) {
			out = append(out, *group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGroupRepo) AncestorChain(ctx context.Context, id string, maxDepth int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chain []string
	current, ok := r.groups[id]
	for ok && len(chain) < maxDepth {
		chain = append(chain, current.ID)
		if current.ParentID == nil {
			break
		}
		current, ok = r.groups[*current.ParentID]
	}
	return chain, nil
}

func (r *memGroupRepo) CountAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups), nil
}

// memPrincipalRepo is an in-memory PrincipalRepository for service tests
type memPrincipalRepo struct {
	mu         sync.Mutex
	seq        int
	principals map[string]*models.Principal
}

func newMemPrincipalRepo() *memPrincipalRepo {
	return &memPrincipalRepo{principals: make(map[string]*models.Principal)}
}

func (r *memPrincipalRepo) Create(ctx context.Context, principal *models.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.principals {
		if existing.Username == principal.Username {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username %q is taken", principal.Username),
				ResourceType: "principal",
			}
		}
	}

	r.seq++
	principal.ID = fmt.Sprintf("u%03d", r.seq)
	principal.CreatedAt = time.Unix(int64(1700000000+r.seq), 0)
	copied := *principal
	r.principals[principal.ID] = &copied
	return nil
}

// add seeds a principal with a fixed id, bypassing generation
func (r *memPrincipalRepo) add(p *models.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.principals[p.ID] = &copied
}

func (r *memPrincipalRepo) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	principal, ok := r.principals[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", id)}
	}
	copied := *principal
	return &copied, nil
}

func (r *memPrincipalRepo) GetByUsername(ctx context.Context, username string) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, principal := range r.principals {
		if principal.Username == username {
			copied := *principal
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("user %q not found", username)}
}

func (r *memPrincipalRepo) List(ctx context.Context) ([]models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Principal{}
	for _, principal := range r.principals {
		out = append(out, *principal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *memPrincipalRepo) Update(ctx context.Context, principal *models.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.principals[principal.ID]
	if !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", principal.ID)}
	}
	existing.Username = principal.Username
	existing.Position = principal.Position
	existing.GroupID = principal.GroupID
	return nil
}

func (r *memPrincipalRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.principals[id]; !ok {
		return &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", id)}
	}
	delete(r.principals, id)
	return nil
}

func (r *memPrincipalRepo) ClearGroup(ctx context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, principal := range r.principals {
		if principal.GroupID != nil && *principal.GroupID == groupID {
			principal.GroupID = nil
		}
	}
	return nil
}

// passthroughTx runs the function without a real transaction
type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
