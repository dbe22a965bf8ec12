package access

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"strata/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// positionEntry is one row of the embedded positions file
type positionEntry struct {
	Name string `yaml:"name"`
	Rank int    `yaml:"rank"`
}

// positionsFile is the schema of config/positions.yaml
type positionsFile struct {
	DefaultRank int             `yaml:"default_rank"`
	Positions   []positionEntry `yaml:"positions"`
}

// Registry maps positions to clearance ranks. Ranks are loaded once from
// the embedded YAML file; lookups never fail, unknown positions resolve to
// the default rank.
type Registry struct {
	ranks       map[models.Position]int
	order       []models.Position
	defaultRank int
	mu          sync.RWMutex
}

// NewRegistry creates a registry from the embedded positions file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/positions.yaml")
	if err != nil {
		return nil, fmt.Errorf("read positions file: %w", err)
	}

	var file positionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal positions file: %w", err)
	}

	if len(file.Positions) == 0 {
		return nil, fmt.Errorf("positions file defines no positions")
	}
	if file.DefaultRank < 1 {
		file.DefaultRank = 1
	}

	r := &Registry{
		ranks:       make(map[models.Position]int, len(file.Positions)),
		defaultRank: file.DefaultRank,
	}
	for _, entry := range file.Positions {
		if entry.Name == "" || entry.Rank < 1 {
			return nil, fmt.Errorf("invalid position entry %q (rank %d)", entry.Name, entry.Rank)
		}
		pos := models.Position(entry.Name)
		r.ranks[pos] = entry.Rank
		r.order = append(r.order, pos)
	}

	return r, nil
}

// Rank returns the clearance rank for a position. Unknown or empty
// positions resolve to the default rank.
func (r *Registry) Rank(pos models.Position) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rank, ok := r.ranks[pos]; ok {
		return rank
	}
	return r.defaultRank
}

// MaxRank returns the highest rank any position grants
func (r *Registry) MaxRank() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := r.defaultRank
	for _, rank := range r.ranks {
		if rank > max {
			max = rank
		}
	}
	return max
}

// Known reports whether the position is defined in the registry
func (r *Registry) Known(pos models.Position) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ranks[pos]
	return ok
}

// Positions returns all defined positions in file order
func (r *Registry) Positions() []models.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Position, len(r.order))
	copy(out, r.order)
	return out
}
