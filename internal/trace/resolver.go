package trace

import (
	"fmt"

	"github.com/staticrd/staticrd/internal/layout"
	"github.com/staticrd/staticrd/internal/tree"
)

// DimensionMismatchError reports a subscript function returning the
// wrong number of indices. It aborts the trace.
type DimensionMismatchError struct {
	Array string
	Want  int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("array %s: subscript has %d indices, array has %d dimensions", e.Array, e.Got, e.Want)
}

// UnresolvedBaseError reports an access whose base address was never
// assigned. It aborts the trace.
type UnresolvedBaseError struct {
	Array string
}

func (e *UnresolvedBaseError) Error() string {
	return fmt.Sprintf("array %s: base address not assigned", e.Array)
}

// Resolver turns array accesses into linear addresses.
type Resolver struct {
	table *layout.Table
}

// NewResolver creates a resolver. table may be nil when every access
// carries an explicit base.
func NewResolver(table *layout.Table) *Resolver {
	return &Resolver{table: table}
}

// Address returns base + row-major offset of ref under ivec.
func (r *Resolver) Address(ref *tree.ArrayAccess, ivec []int) (int, error) {
	idx := ref.Sub(ivec)
	if len(idx) != len(ref.Dim) {
		return 0, &DimensionMismatchError{Array: ref.Name, Want: len(ref.Dim), Got: len(idx)}
	}

	base, ok := r.base(ref)
	if !ok {
		return 0, &UnresolvedBaseError{Array: ref.Name}
	}

	offset := 0
	for k, i := range idx {
		offset = offset*ref.Dim[k] + i
	}
	return base + offset, nil
}

func (r *Resolver) base(ref *tree.ArrayAccess) (int, bool) {
	if ref.Base != nil {
		return *ref.Base, true
	}
	return r.table.Base(ref)
}
