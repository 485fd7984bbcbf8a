// Package kernels holds ready-built loop-nest programs that can be traced
// without a front end.
package kernels

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/tree"
)

var (
	ErrUnknownKernel = errors.New("unknown kernel")
	ErrBadSize       = errors.New("kernel size must be positive")
)

// Kernel describes one program family parameterised by a problem size.
type Kernel struct {
	Name  string
	Desc  string
	Build func(n int) tree.Node
}

var registry = map[string]Kernel{
	"copy":       {"copy", "b[i] = a[i]", Copy},
	"scalar":     {"scalar", "a[0] read n times", Scalar},
	"matmul":     {"matmul", "c[i][j] += a[i][k] * b[k][j]", Matmul},
	"stencil":    {"stencil", "3-point stencil with boundary branch", Stencil},
	"triangular": {"triangular", "l[i][j] for j <= i", Triangular},
	"transpose":  {"transpose", "b[j][i] = a[i][j]", Transpose},
}

// Names lists the registered kernels in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the kernel registered under name.
func Get(name string) (Kernel, bool) {
	k, ok := registry[name]
	return k, ok
}

// Lookup builds the named kernel at size n.
func Lookup(name string, n int) (tree.Node, error) {
	k, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKernel, "%q", name)
	}
	if n <= 0 {
		return nil, errors.Wrapf(ErrBadSize, "got %d", n)
	}
	return k.Build(n), nil
}

func idx(ks ...int) func(ivec []int) []int {
	return func(ivec []int) []int {
		out := make([]int, len(ks))
		for i, k := range ks {
			out[i] = ivec[k]
		}
		return out
	}
}

func shift(k, by int) func(ivec []int) []int {
	return func(ivec []int) []int { return []int{ivec[k] + by} }
}

// Copy is `for i { b[i] = a[i] }`.
func Copy(n int) tree.Node {
	return tree.NewSingleLoop("i", 0, n).Extend(
		tree.NewRef("a", []int{n}, idx(0)),
		tree.NewRef("b", []int{n}, idx(0)),
	)
}

// Scalar is `for i { a[0] }`.
func Scalar(n int) tree.Node {
	return tree.NewSingleLoop("i", 0, n).Extend(
		tree.NewRef("a", []int{1}, func([]int) []int { return []int{0} }),
	)
}

// Matmul is the ijk matrix product over n x n matrices.
func Matmul(n int) tree.Node {
	dim := []int{n, n}
	body := tree.NewSingleLoop("k", 0, n).Extend(
		tree.NewRef("a", dim, idx(0, 2)),
		tree.NewRef("b", dim, idx(2, 1)),
		tree.NewRef("c", dim, idx(0, 1)),
		tree.NewRef("c", dim, idx(0, 1)),
	)
	return tree.NewSingleLoop("i", 0, n).Extend(
		tree.NewSingleLoop("j", 0, n).Extend(body),
	)
}

// Stencil updates b[i] from a[i-1..i+1] in the interior and copies a[i]
// at the two borders.
func Stencil(n int) tree.Node {
	interior := func(ivec []int) bool { return ivec[0] > 0 && ivec[0] < n-1 }
	return tree.NewSingleLoop("i", 0, n).Extend(
		tree.NewBranch(interior,
			tree.NewBlock(
				tree.NewRef("a", []int{n}, shift(0, -1)),
				tree.NewRef("a", []int{n}, idx(0)),
				tree.NewRef("a", []int{n}, shift(0, 1)),
				tree.NewRef("b", []int{n}, idx(0)),
			),
			tree.NewBlock(
				tree.NewRef("a", []int{n}, idx(0)),
				tree.NewRef("b", []int{n}, idx(0)),
			),
		),
	)
}

// Triangular visits the lower triangle of an n x n matrix; the inner
// bound depends on the outer index.
func Triangular(n int) tree.Node {
	inner := tree.NewLoop("j", tree.Fixed(0), tree.Dynamic(func(ivec []int) int { return ivec[0] + 1 }))
	inner.Extend(tree.NewRef("l", []int{n, n}, idx(0, 1)))
	return tree.NewSingleLoop("i", 0, n).Extend(inner)
}

// Transpose is `b[j][i] = a[i][j]`.
func Transpose(n int) tree.Node {
	dim := []int{n, n}
	return tree.NewSingleLoop("i", 0, n).Extend(
		tree.NewSingleLoop("j", 0, n).Extend(
			tree.NewRef("a", dim, idx(0, 1)),
			tree.NewRef("b", dim, idx(1, 0)),
		),
	)
}
