package lru

// SplayTree is Olken's algorithm: a splay tree holding the latest access
// time of every distinct address, augmented with subtree sizes so the
// number of addresses touched since a given time is a rank query.
type SplayTree struct {
	root *splayNode
	last map[int]int
	now  int
}

type splayNode struct {
	key                 int
	size                int
	left, right, parent *splayNode
}

// NewSplay creates an empty Olken oracle.
func NewSplay() *SplayTree {
	return &SplayTree{last: make(map[int]int)}
}

// Access implements Oracle.
func (t *SplayTree) Access(addr int) (int, bool) {
	t.now++
	prev, seen := t.last[addr]
	t.last[addr] = t.now

	dist := 0
	if seen {
		n := t.find(prev)
		t.splay(n)
		dist = sizeOf(n.right) + 1
		t.removeRoot()
	}
	t.pushNewest(t.now)
	return dist, seen
}

// Len returns the number of distinct addresses seen.
func (t *SplayTree) Len() int {
	return sizeOf(t.root)
}

func sizeOf(n *splayNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *splayNode) update() {
	n.size = 1 + sizeOf(n.left) + sizeOf(n.right)
}

// pushNewest inserts a key larger than every key in the tree as the new
// root.
func (t *SplayTree) pushNewest(key int) {
	n := &splayNode{key: key, left: t.root}
	if t.root != nil {
		t.root.parent = n
	}
	n.update()
	t.root = n
}

func (t *SplayTree) find(key int) *splayNode {
	n := t.root
	for n != nil && n.key != key {
		if key < n.key {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

func (t *SplayTree) rotate(x *splayNode) {
	p := x.parent
	g := p.parent
	if p.left == x {
		p.left = x.right
		if x.right != nil {
			x.right.parent = p
		}
		x.right = p
	} else {
		p.right = x.left
		if x.left != nil {
			x.left.parent = p
		}
		x.left = p
	}
	p.parent = x
	x.parent = g
	switch {
	case g == nil:
		t.root = x
	case g.left == p:
		g.left = x
	default:
		g.right = x
	}
	p.update()
	x.update()
}

func (t *SplayTree) splay(x *splayNode) {
	for x.parent != nil {
		p := x.parent
		if g := p.parent; g != nil {
			if (g.left == p) == (p.left == x) {
				t.rotate(p)
			} else {
				t.rotate(x)
			}
		}
		t.rotate(x)
	}
}

func (t *SplayTree) removeRoot() {
	left, right := t.root.left, t.root.right
	if left != nil {
		left.parent = nil
	}
	if right != nil {
		right.parent = nil
	}
	if left == nil {
		t.root = right
		return
	}

	t.root = left
	top := left
	for top.right != nil {
		top = top.right
	}
	t.splay(top)
	top.right = right
	if right != nil {
		right.parent = top
	}
	top.update()
}
