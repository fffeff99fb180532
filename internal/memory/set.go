// Package memory persists the sets that survive across runs: the
// fingerprint set of every transaction ever accounted for and the set of
// every SKU ever observed.
//
// Both sets share one line-oriented file format:
//
//	dedupe-set v1 <kind> <count>
//	<entry>
//	...
//
// The header's count makes truncation detectable. Saves are atomic
// (temp file, fsync, rename), so a reader never observes a torn file; a
// file that fails to parse is reported corrupt and left untouched.
package memory

// Set is an insertion-ordered set. It is not safe for concurrent use.
type Set[K comparable] struct {
	index map[K]struct{}
	order []K
}

// NewSet returns an empty set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{index: make(map[K]struct{})}
}

// Add inserts k and reports whether it was absent. Re-adding an element
// changes nothing.
func (s *Set[K]) Add(k K) bool {
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.order = append(s.order, k)
	return true
}

// Contains reports whether k is in the set.
func (s *Set[K]) Contains(k K) bool {
	_, ok := s.index[k]
	return ok
}

// Len returns the number of elements.
func (s *Set[K]) Len() int {
	return len(s.index)
}

// Keys returns the elements in insertion order.
func (s *Set[K]) Keys() []K {
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}
