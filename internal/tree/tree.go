package tree

// Node is a statement in a loop-nest program. The concrete kinds are
// *Ref, *Loop, *Block and *Branch.
type Node interface {
	isNode()
}

// Kind identifies the concrete statement kind of a Node.
type Kind int

const (
	KindUnknown Kind = iota
	KindRef
	KindLoop
	KindBlock
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindLoop:
		return "loop"
	case KindBlock:
		return "block"
	case KindBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of n.
func KindOf(n Node) Kind {
	switch n.(type) {
	case *Ref:
		return KindRef
	case *Loop:
		return KindLoop
	case *Block:
		return KindBlock
	case *Branch:
		return KindBranch
	default:
		return KindUnknown
	}
}

// ArrayAccess describes one array reference.
type ArrayAccess struct {
	Name string
	// Dim holds the extent of every dimension, outermost first.
	Dim []int
	// Sub maps the current index vector to one index per dimension.
	Sub func(ivec []int) []int
	// Base is the linear base address, nil until resolved.
	Base *int
}

// Ref is a single memory access.
type Ref struct {
	Access ArrayAccess
}

func (*Ref) isNode() {}

// Bound is a loop bound, either a fixed value or a function of the
// enclosing loop indices.
type Bound struct {
	fixed   int
	dynamic func(ivec []int) int
}

// Fixed returns a constant bound.
func Fixed(n int) Bound {
	return Bound{fixed: n}
}

// Dynamic returns a bound computed from the index vector.
func Dynamic(f func(ivec []int) int) Bound {
	return Bound{dynamic: f}
}

// IsDynamic reports whether the bound depends on the index vector.
func (b Bound) IsDynamic() bool {
	return b.dynamic != nil
}

// Eval evaluates the bound under ivec.
func (b Bound) Eval(ivec []int) int {
	if b.dynamic != nil {
		return b.dynamic(ivec)
	}
	return b.fixed
}

// Loop is a bounded repetition. The counter starts at Lower, the body
// runs while Test(counter, upper) holds and Step produces the next
// counter.
type Loop struct {
	Var   string
	Lower Bound
	Upper Bound
	Test  func(i, ub int) bool
	Step  func(i int) int
	Body  []Node
}

func (*Loop) isNode() {}

// Block is sequential composition.
type Block struct {
	Stmts []Node
}

func (*Block) isNode() {}

// Branch selects Then when Cond holds, otherwise Else if present.
type Branch struct {
	Cond func(ivec []int) bool
	Then Node
	Else Node
}

func (*Branch) isNode() {}

// LessThan is the default loop test.
func LessThan(i, ub int) bool { return i < ub }

// Increment is the default loop step.
func Increment(i int) int { return i + 1 }

// NewRef builds an array access node with no base assigned.
func NewRef(name string, dim []int, sub func(ivec []int) []int) *Ref {
	return &Ref{Access: ArrayAccess{Name: name, Dim: dim, Sub: sub}}
}

// WithBase sets an explicit base address and returns r.
func (r *Ref) WithBase(base int) *Ref {
	b := base
	r.Access.Base = &b
	return r
}

// LoopOption customises a loop under construction.
type LoopOption func(*Loop)

// WithStep replaces the step function.
func WithStep(step func(i int) int) LoopOption {
	return func(l *Loop) { l.Step = step }
}

// WithTest replaces the continuation test.
func WithTest(test func(i, ub int) bool) LoopOption {
	return func(l *Loop) { l.Test = test }
}

// NewLoop builds a loop with an empty body.
func NewLoop(name string, lb, ub Bound, opts ...LoopOption) *Loop {
	l := &Loop{
		Var:   name,
		Lower: lb,
		Upper: ub,
		Test:  LessThan,
		Step:  Increment,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewSingleLoop builds `for name = lb; name < ub; name++`.
func NewSingleLoop(name string, lb, ub int) *Loop {
	return NewLoop(name, Fixed(lb), Fixed(ub))
}

// Extend appends statements to the loop body and returns l.
func (l *Loop) Extend(stmts ...Node) *Loop {
	l.Body = append(l.Body, stmts...)
	return l
}

// NewBlock builds a sequence.
func NewBlock(stmts ...Node) *Block {
	return &Block{Stmts: stmts}
}

// NewBranch builds a branch. elseBody may be nil.
func NewBranch(cond func(ivec []int) bool, then, elseBody Node) *Branch {
	return &Branch{Cond: cond, Then: then, Else: elseBody}
}

// NewIf builds an else-less branch.
func NewIf(cond func(ivec []int) bool, then Node) *Branch {
	return &Branch{Cond: cond, Then: then}
}
