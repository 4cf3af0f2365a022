/*
Package iteratable implements iteratable container data structures.

Set is a special-purpose set type, suitable mainly for implementing
algorithms around scanners, parsers and grammar analysis, where describing
an algorithm in terms of set construction and set operations is more
straightforward than hand-rolled bookkeeping. LR(1) item sets, FIRST
sets and SPPF and-edges/or-edges are all built on top of Set.

Iteration is a destructive, single-pass cursor (IterateOnce/Next/Item),
matching the style used throughout package lr: callers reset the cursor
before each walk and never assume it survives a mutation.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package iteratable

// Set is an insertion-ordered set of arbitrary, comparable values. Order is
// preserved so that canonical dumps and error messages are deterministic.
type Set struct {
	items  []interface{}
	cursor int
}

// NewSet creates a new set, optionally pre-populated with items.
// capacityHint is used to size the backing slice; pass 0 if unknown.
func NewSet(capacityHint int, items ...interface{}) *Set {
	s := &Set{
		items:  make([]interface{}, 0, capacityHint),
		cursor: -1,
	}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item into the set if not already present. Returns the
// receiver for chaining.
func (s *Set) Add(item interface{}) *Set {
	if s == nil {
		return s
	}
	if !s.contains(item) {
		s.items = append(s.items, item)
	}
	return s
}

// Remove deletes item from the set, if present.
func (s *Set) Remove(item interface{}) *Set {
	if s == nil {
		return s
	}
	for i, v := range s.items {
		if v == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			if s.cursor >= i {
				s.cursor--
			}
			break
		}
	}
	return s
}

func (s *Set) contains(item interface{}) bool {
	for _, v := range s.items {
		if v == item {
			return true
		}
	}
	return false
}

// Contains reports whether item is a member of the set.
func (s *Set) Contains(item interface{}) bool {
	if s == nil {
		return false
	}
	return s.contains(item)
}

// Size returns the number of elements in the set.
func (s *Set) Size() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Empty reports whether the set has no elements.
func (s *Set) Empty() bool {
	return s.Size() == 0
}

// Copy returns a shallow copy of the set; mutating the copy never affects
// the original.
func (s *Set) Copy() *Set {
	c := NewSet(s.Size())
	if s == nil {
		return c
	}
	c.items = append(c.items, s.items...)
	return c
}

// Values returns the elements of the set as a slice, in insertion order.
// The slice is owned by the caller.
func (s *Set) Values() []interface{} {
	if s == nil {
		return nil
	}
	out := make([]interface{}, len(s.items))
	copy(out, s.items)
	return out
}

// AppendTo appends every element of the set to dst and returns the result,
// in the manner of the built-in append.
func (s *Set) AppendTo(dst []interface{}) []interface{} {
	if s == nil {
		return dst
	}
	return append(dst, s.items...)
}

// Equals reports whether two sets contain exactly the same elements,
// irrespective of order.
func (s *Set) Equals(other *Set) bool {
	if s.Size() != other.Size() {
		return false
	}
	for _, v := range s.Values() {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Union adds every element of other to s, returning s.
func (s *Set) Union(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, v := range other.items {
		s.Add(v)
	}
	return s
}

// Difference returns a new set containing the elements of s that are not
// members of other.
func (s *Set) Difference(other *Set) *Set {
	d := NewSet(s.Size())
	if s == nil {
		return d
	}
	for _, v := range s.items {
		if !other.Contains(v) {
			d.Add(v)
		}
	}
	return d
}

// Subset returns a new set containing the elements of s for which pred
// returns true.
func (s *Set) Subset(pred func(interface{}) bool) *Set {
	sub := NewSet(0)
	if s == nil {
		return sub
	}
	for _, v := range s.items {
		if pred(v) {
			sub.Add(v)
		}
	}
	return sub
}

// First returns an arbitrary (the first inserted, still present) element
// of the set, or nil if the set is empty.
func (s *Set) First() interface{} {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	return s.items[0]
}

// FirstMatch returns the first element (in insertion order) for which pred
// returns true, or nil if none matches.
func (s *Set) FirstMatch(pred func(interface{}) bool) interface{} {
	if s == nil {
		return nil
	}
	for _, v := range s.items {
		if pred(v) {
			return v
		}
	}
	return nil
}

// Each applies mapper to every element of the set, in insertion order.
func (s *Set) Each(mapper func(interface{})) {
	if s == nil {
		return
	}
	for _, v := range s.items {
		mapper(v)
	}
}

// IterateOnce resets the set's cursor to just before the first element.
// Call Next to advance and Item to read the current element.
func (s *Set) IterateOnce() {
	if s == nil {
		return
	}
	s.cursor = -1
}

// Next advances the cursor by one position. It returns false once the
// cursor has passed the last element.
func (s *Set) Next() bool {
	if s == nil {
		return false
	}
	s.cursor++
	return s.cursor < len(s.items)
}

// Item returns the element at the current cursor position. Call IterateOnce
// and Next before using Item.
func (s *Set) Item() interface{} {
	if s == nil || s.cursor < 0 || s.cursor >= len(s.items) {
		return nil
	}
	return s.items[s.cursor]
}
