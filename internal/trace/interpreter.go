package trace

import (
	"github.com/staticrd/staticrd/internal/eventlog"
	"github.com/staticrd/staticrd/internal/hist"
	"github.com/staticrd/staticrd/internal/lru"
	"github.com/staticrd/staticrd/internal/metrics"
	"github.com/staticrd/staticrd/internal/tree"
)

// Access is one entry of the detailed log.
type Access struct {
	Addr int
	Dist hist.Distance
}

// Interpreter replays a statement tree into a stack-distance oracle.
// It is single-use: one interpreter, one oracle, one trace.
type Interpreter struct {
	oracle   lru.Oracle
	resolver *Resolver
	ivec     []int

	hist      *hist.Histogram
	addresses *eventlog.Log[int]
	distances *eventlog.Log[Access]
	record    bool
	counters  *metrics.Accesses
}

// NewInterpreter creates an interpreter with empty results that records
// both event logs.
func NewInterpreter(oracle lru.Oracle, resolver *Resolver) *Interpreter {
	return &Interpreter{
		oracle:    oracle,
		resolver:  resolver,
		hist:      hist.New(),
		addresses: eventlog.New[int](),
		distances: eventlog.New[Access](),
		record:    true,
	}
}

// Histogram returns the histogram accumulated so far.
func (in *Interpreter) Histogram() *hist.Histogram {
	return in.hist
}

// Addresses returns the address log.
func (in *Interpreter) Addresses() *eventlog.Log[int] {
	return in.addresses
}

// Distances returns the (address, distance) log.
func (in *Interpreter) Distances() *eventlog.Log[Access] {
	return in.distances
}

// Depth returns the number of loop indices currently pushed.
func (in *Interpreter) Depth() int {
	return len(in.ivec)
}

// Exec interprets node depth-first, left to right.
func (in *Interpreter) Exec(node tree.Node) error {
	switch n := node.(type) {
	case *tree.Ref:
		return in.access(&n.Access)

	case *tree.Loop:
		ivec := in.view()
		i := n.Lower.Eval(ivec)
		ub := n.Upper.Eval(ivec)
		for n.Test(i, ub) {
			if err := in.iterate(n, i); err != nil {
				return err
			}
			i = n.Step(i)
		}
		return nil

	case *tree.Block:
		return in.execAll(n.Stmts)

	case *tree.Branch:
		if n.Cond(in.view()) {
			return in.Exec(n.Then)
		}
		if n.Else != nil {
			return in.Exec(n.Else)
		}
		return nil

	default:
		return nil
	}
}

func (in *Interpreter) execAll(stmts []tree.Node) error {
	for _, s := range stmts {
		if err := in.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// iterate runs one loop iteration with i pushed on the index vector.
// The index is popped on every exit path.
func (in *Interpreter) iterate(l *tree.Loop, i int) error {
	in.ivec = append(in.ivec, i)
	defer func() { in.ivec = in.ivec[:len(in.ivec)-1] }()
	return in.execAll(l.Body)
}

func (in *Interpreter) access(ref *tree.ArrayAccess) error {
	addr, err := in.resolver.Address(ref, in.view())
	if err != nil {
		return err
	}

	d, seen := in.oracle.Access(addr)
	dist := hist.MakeDistance(d, seen)
	if in.record {
		in.addresses.Add(addr)
		in.distances.Add(Access{Addr: addr, Dist: dist})
	}
	in.hist.Add(dist)
	in.counters.Observe(seen)
	return nil
}

// view is the index vector as handed to tree functions. Capacity is
// clipped so an append by the callee cannot clobber interpreter state.
func (in *Interpreter) view() []int {
	return in.ivec[:len(in.ivec):len(in.ivec)]
}
