package filter

import "github.com/nodepath81/diffservd/internal/headerview"

// Filter is a conjunction (AND) of Elements. An empty Filter matches
// trivially. Elements are evaluated in insertion order and evaluation
// short-circuits on the first non-match.
type Filter struct {
	elements []Element
}

// New builds a Filter from zero or more elements, in order.
func New(elements ...Element) *Filter {
	return &Filter{elements: append([]Element(nil), elements...)}
}

// Add appends an element. Filters are append-only at configuration time.
func (f *Filter) Add(e Element) {
	f.elements = append(f.elements, e)
}

// Matches returns true iff every element matches, or the filter is empty.
func (f *Filter) Matches(view headerview.View) bool {
	for _, e := range f.elements {
		if !e.Matches(view) {
			return false
		}
	}
	return true
}
