package validation

import "slices"

// ResultSet is an insertion-ordered set of results. The zero value is ready
// to use. Duplicate (code, fields) pairs collapse on Add.
type ResultSet struct {
	items []Result
	index map[string]struct{}
}

// NewResultSet returns a set seeded with results.
func NewResultSet(results ...Result) *ResultSet {
	s := &ResultSet{}
	for _, r := range results {
		s.Add(r)
	}
	return s
}

// Add inserts r unless an equal result is already present.
func (s *ResultSet) Add(r Result) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	k := r.key()
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, r)
}

// Includes reports whether any member carries code.
func (s *ResultSet) Includes(code string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.items {
		if r.code == code {
			return true
		}
	}
	return false
}

func (s *ResultSet) IsEmpty() bool { return s == nil || len(s.items) == 0 }

func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Codes returns member codes in insertion order. A code appears once per
// member, so a code attached to two field sets is listed twice.
func (s *ResultSet) Codes() []string {
	if s == nil {
		return nil
	}
	codes := make([]string, 0, len(s.items))
	for _, r := range s.items {
		codes = append(codes, r.code)
	}
	return codes
}

// Fields returns the union of all member field paths.
func (s *ResultSet) Fields() map[string]struct{} {
	out := make(map[string]struct{})
	if s == nil {
		return out
	}
	for _, r := range s.items {
		for _, f := range r.fields {
			out[f] = struct{}{}
		}
	}
	return out
}

// HasField reports whether any member addresses path.
func (s *ResultSet) HasField(path string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.items {
		if slices.Contains(r.fields, path) {
			return true
		}
	}
	return false
}

// HasOnlyGlobalResults reports whether the set is non-empty and every member
// is a global result.
func (s *ResultSet) HasOnlyGlobalResults() bool {
	if s.IsEmpty() {
		return false
	}
	for _, r := range s.items {
		if !r.IsGlobal() {
			return false
		}
	}
	return true
}

// RemoveGlobalResults drops every global member in place.
func (s *ResultSet) RemoveGlobalResults() {
	if s == nil {
		return
	}
	kept := s.items[:0]
	for _, r := range s.items {
		if r.IsGlobal() {
			delete(s.index, r.key())
			continue
		}
		kept = append(kept, r)
	}
	clear(s.items[len(kept):])
	s.items = kept
}

// Results returns a copy of the members in insertion order.
func (s *ResultSet) Results() []Result {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Clone returns an independent copy of the set.
func (s *ResultSet) Clone() *ResultSet {
	out := &ResultSet{}
	if s == nil {
		return out
	}
	for _, r := range s.items {
		out.Add(r)
	}
	return out
}

// Equal reports whether both sets contain the same members, ignoring order.
func (s *ResultSet) Equal(other *ResultSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for k := range s.index {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	return true
}
