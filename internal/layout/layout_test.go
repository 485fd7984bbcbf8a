package layout

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/staticrd/staticrd/internal/tree"
)

func ij(ivec []int) []int { return []int{ivec[0], ivec[1]} }

func TestAssignContiguous(t *testing.T) {
	a1 := tree.NewRef("A", []int{10, 10}, ij)
	b := tree.NewRef("B", []int{10}, func(ivec []int) []int { return []int{ivec[0]} })
	a2 := tree.NewRef("A", []int{10, 10}, ij)
	root := tree.NewSingleLoop("i", 0, 10).Extend(
		tree.NewSingleLoop("j", 0, 10).Extend(a1, b, a2),
	)

	table, err := Assign(root)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	tests := []struct {
		name string
		ref  *tree.ArrayAccess
		want int
	}{
		{"first A", &a1.Access, 0},
		{"B", &b.Access, 100},
		{"second A", &a2.Access, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Base(tt.ref)
			if !ok || got != tt.want {
				t.Errorf("expected base %d, got %d (ok=%v)", tt.want, got, ok)
			}
		})
	}

	if table.Size() != 110 {
		t.Errorf("expected footprint 110, got %d", table.Size())
	}
	arrays := table.Arrays()
	if len(arrays) != 2 || arrays[0].Name != "A" || arrays[1].Base != 100 || arrays[1].Size != 10 {
		t.Errorf("unexpected arrays %+v", arrays)
	}
	if a1.Access.Base != nil {
		t.Errorf("Assign must not write into the tree")
	}
}

func TestAssignKeepsExplicitBase(t *testing.T) {
	fixed := tree.NewRef("X", []int{4}, func(ivec []int) []int { return []int{ivec[0]} }).WithBase(1000)
	free := tree.NewRef("Y", []int{4}, func(ivec []int) []int { return []int{ivec[0]} })
	table, err := Assign(tree.NewBlock(fixed, free))
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	if b, _ := table.Base(&fixed.Access); b != 1000 {
		t.Errorf("expected explicit base 1000, got %d", b)
	}
	if b, _ := table.Base(&free.Access); b != 0 {
		t.Errorf("expected Y at 0, got %d", b)
	}
}

func TestAssignConflict(t *testing.T) {
	root := tree.NewBlock(
		tree.NewRef("A", []int{10}, func(ivec []int) []int { return ivec }),
		tree.NewRef("A", []int{5, 2}, func(ivec []int) []int { return ivec }),
	)
	if _, err := Assign(root); !errors.Is(err, ErrLayoutConflict) {
		t.Errorf("expected ErrLayoutConflict, got %v", err)
	}
}

func TestNilTableBase(t *testing.T) {
	var table *Table
	if _, ok := table.Base(&tree.ArrayAccess{}); ok {
		t.Errorf("nil table must not resolve bases")
	}
}
