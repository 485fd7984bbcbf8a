// Package layout assigns linear base addresses to the arrays of a
// statement tree. The result is a side table keyed by access identity;
// the tree itself is never modified.
package layout

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/tree"
)

// ErrLayoutConflict is returned when two accesses name the same array
// with different shapes.
var ErrLayoutConflict = errors.New("conflicting array shapes")

// Array is one allocated array.
type Array struct {
	Name string
	Dim  []int
	Base int
	Size int
}

// Table maps array accesses to base addresses.
type Table struct {
	bases  map[*tree.ArrayAccess]int
	arrays []Array
	size   int
}

// Assign walks root depth-first and gives every distinct array name a
// contiguous row-major region, in first-appearance order starting at
// address 0. Accesses that already carry an explicit base keep it and
// do not reserve space.
func Assign(root tree.Node) (*Table, error) {
	t := &Table{bases: make(map[*tree.ArrayAccess]int)}
	byName := make(map[string]int)

	for _, ref := range tree.Refs(root) {
		if ref.Base != nil {
			t.bases[ref] = *ref.Base
			continue
		}

		if i, ok := byName[ref.Name]; ok {
			a := t.arrays[i]
			if !slices.Equal(a.Dim, ref.Dim) {
				return nil, errors.Wrapf(ErrLayoutConflict, "array %s declared as %v and %v", ref.Name, a.Dim, ref.Dim)
			}
			t.bases[ref] = a.Base
			continue
		}

		size := 1
		for _, d := range ref.Dim {
			size *= d
		}
		byName[ref.Name] = len(t.arrays)
		t.arrays = append(t.arrays, Array{Name: ref.Name, Dim: ref.Dim, Base: t.size, Size: size})
		t.bases[ref] = t.size
		t.size += size
	}

	return t, nil
}

// Base returns the base address assigned to ref.
func (t *Table) Base(ref *tree.ArrayAccess) (int, bool) {
	if t == nil {
		return 0, false
	}
	b, ok := t.bases[ref]
	return b, ok
}

// Arrays returns the allocated arrays in address order.
func (t *Table) Arrays() []Array {
	return slices.Clone(t.arrays)
}

// Size returns the total number of elements allocated.
func (t *Table) Size() int {
	return t.size
}
