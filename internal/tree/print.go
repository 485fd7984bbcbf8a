package tree

import (
	"fmt"
	"strings"
)

// String renders the tree as an indented outline for debug output.
// Functions are shown by role only since they cannot be printed.
func String(node Node) string {
	var sb strings.Builder
	write(&sb, node, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func write(sb *strings.Builder, node Node, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n := node.(type) {
	case *Ref:
		base := "?"
		if n.Access.Base != nil {
			base = fmt.Sprintf("%d", *n.Access.Base)
		}
		fmt.Fprintf(sb, "%sref %s%v base=%s\n", indent, n.Access.Name, n.Access.Dim, base)

	case *Loop:
		fmt.Fprintf(sb, "%sloop %s in [%s, %s)\n", indent, n.Var, boundString(n.Lower), boundString(n.Upper))
		for _, s := range n.Body {
			write(sb, s, depth+1)
		}

	case *Block:
		fmt.Fprintf(sb, "%sblock\n", indent)
		for _, s := range n.Stmts {
			write(sb, s, depth+1)
		}

	case *Branch:
		fmt.Fprintf(sb, "%sif <cond>\n", indent)
		write(sb, n.Then, depth+1)
		if n.Else != nil {
			fmt.Fprintf(sb, "%selse\n", indent)
			write(sb, n.Else, depth+1)
		}

	case nil:
		fmt.Fprintf(sb, "%s<nil>\n", indent)

	default:
		fmt.Fprintf(sb, "%s<%T>\n", indent, n)
	}
}

func boundString(b Bound) string {
	if b.IsDynamic() {
		return "<dyn>"
	}
	return fmt.Sprintf("%d", b.fixed)
}
