package editor

import "github.com/samirrijal/pizzazones/internal/core/domain"

// Store is the editor's working set of zones. It keeps insertion order,
// which is also the render z-order.
type Store struct {
	zones []domain.Zone
}

// NewStore returns a store seeded with a copy of zones.
func NewStore(zones []domain.Zone) *Store {
	s := &Store{}
	s.Replace(zones)
	return s
}

// Upsert replaces the zone with the same id, or appends it.
func (s *Store) Upsert(z domain.Zone) {
	z = z.Clone()
	if i := s.index(z.ID); i >= 0 {
		s.zones[i] = z
		return
	}
	s.zones = append(s.zones, z)
}

// Remove deletes the zone with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.zones = append(s.zones[:i], s.zones[i+1:]...)
	return true
}

// Get returns a copy of the zone with the given id.
func (s *Store) Get(id string) (domain.Zone, bool) {
	if i := s.index(id); i >= 0 {
		return s.zones[i].Clone(), true
	}
	return domain.Zone{}, false
}

// Zones returns a copy of the working set.
func (s *Store) Zones() []domain.Zone {
	out := make([]domain.Zone, len(s.zones))
	for i, z := range s.zones {
		out[i] = z.Clone()
	}
	return out
}

// Replace swaps the whole working set, as a sync snapshot does.
func (s *Store) Replace(zones []domain.Zone) {
	s.zones = make([]domain.Zone, 0, len(zones))
	for _, z := range zones {
		s.Upsert(z)
	}
}

// Len returns the number of zones.
func (s *Store) Len() int { return len(s.zones) }

func (s *Store) index(id string) int {
	for i := range s.zones {
		if s.zones[i].ID == id {
			return i
		}
	}
	return -1
}
