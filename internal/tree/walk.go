package tree

// Walk traverses the tree starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
//
// Loop bodies are visited once, not once per iteration.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Loop:
		for _, s := range n.Body {
			Walk(s, fn)
		}

	case *Block:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}

	case *Branch:
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}
	}
}

// Refs returns every array access in the tree in depth-first order.
// A node reachable along several paths is listed once.
func Refs(node Node) []*ArrayAccess {
	var refs []*ArrayAccess
	seen := make(map[*Ref]bool)
	Walk(node, func(n Node) bool {
		if r, ok := n.(*Ref); ok && !seen[r] {
			seen[r] = true
			refs = append(refs, &r.Access)
		}
		return true
	})
	return refs
}

// Depth returns the static nesting depth of the tree. A lone reference
// has depth 1.
func Depth(node Node) int {
	if node == nil {
		return 0
	}
	children := func(stmts []Node) int {
		deepest := 0
		for _, s := range stmts {
			deepest = max(deepest, Depth(s))
		}
		return deepest
	}

	switch n := node.(type) {
	case *Loop:
		return 1 + children(n.Body)
	case *Block:
		return 1 + children(n.Stmts)
	case *Branch:
		return 1 + children([]Node{n.Then, n.Else})
	default:
		return 1
	}
}
