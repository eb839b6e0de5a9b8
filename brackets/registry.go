package brackets

import (
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

// Registry is the ordered entrant list with stable integer identities.
type Registry struct {
	entrants []*models.Entrant
	byID     map[int]*models.Entrant
}

// NewRegistry keeps the given order. IDs must be positive and unique; 0 is reserved for
// "no entrant".
func NewRegistry(entrants []models.Entrant) (*Registry, error) {
	r := &Registry{
		entrants: make([]*models.Entrant, 0, len(entrants)),
		byID:     make(map[int]*models.Entrant, len(entrants)),
	}
	for _, e := range entrants {
		if e.ID <= 0 {
			return nil, fmt.Errorf("%w: %d (ids must be positive)", ErrUnknownEntrant, e.ID)
		}
		if _, ok := r.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateEntrant, e.ID)
		}
		entrant := e
		r.entrants = append(r.entrants, &entrant)
		r.byID[e.ID] = &entrant
	}
	return r, nil
}

// RegistryFromNames numbers the entrants 1..n in list order.
func RegistryFromNames(names []string) *Registry {
	entrants := make([]models.Entrant, len(names))
	for i, name := range names {
		entrants[i] = models.Entrant{ID: i + 1, Name: name}
	}
	r, _ := NewRegistry(entrants)
	return r
}

func (r *Registry) Len() int { return len(r.entrants) }

// Entrants returns a copy of the entrant list in registry order.
func (r *Registry) Entrants() []models.Entrant {
	out := make([]models.Entrant, len(r.entrants))
	for i, e := range r.entrants {
		out[i] = *e
	}
	return out
}

func (r *Registry) Lookup(id int) (*models.Entrant, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) at(i int) *models.Entrant { return r.entrants[i] }
