package collection

// OrderedSet is an insertion-ordered set of track IDs.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet creates an OrderedSet from ids, dropping duplicates after their first occurrence.
func NewOrderedSet(ids ...string) *OrderedSet {
	s := &OrderedSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add appends id if it is not already present and reports whether it was added.
func (s *OrderedSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

// Has reports whether id is a member.
func (s *OrderedSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of members.
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the members in order.
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Equal reports whether both sets hold the same members in the same order.
func (s *OrderedSet) Equal(other *OrderedSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, id := range s.items {
		if other.items[i] != id {
			return false
		}
	}
	return true
}

// Retain keeps only members for which keep returns true and returns how many were removed.
func (s *OrderedSet) Retain(keep func(id string) bool) int {
	kept := s.items[:0]
	removed := 0
	for _, id := range s.items {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.index, id)
		removed++
	}
	s.items = kept
	return removed
}
