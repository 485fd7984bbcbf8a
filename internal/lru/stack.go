package lru

// LRUStack keeps addresses in recency order, most recent first. The
// reuse distance is the 1-based stack position.
type LRUStack struct {
	stack []int
}

// NewStack creates an empty explicit-stack oracle.
func NewStack() *LRUStack {
	return &LRUStack{}
}

// Access implements Oracle.
func (s *LRUStack) Access(addr int) (int, bool) {
	for i, a := range s.stack {
		if a == addr {
			copy(s.stack[1:i+1], s.stack[:i])
			s.stack[0] = addr
			return i + 1, true
		}
	}
	s.stack = append(s.stack, 0)
	copy(s.stack[1:], s.stack)
	s.stack[0] = addr
	return 0, false
}

// LRUVec records the last access time of every address in a flat vector
// and answers each query with a full scan.
type LRUVec struct {
	slot map[int]int
	last []int
	now  int
}

// NewVec creates an empty vector-scan oracle.
func NewVec() *LRUVec {
	return &LRUVec{slot: make(map[int]int)}
}

// Access implements Oracle.
func (v *LRUVec) Access(addr int) (int, bool) {
	v.now++
	i, seen := v.slot[addr]
	if !seen {
		v.slot[addr] = len(v.last)
		v.last = append(v.last, v.now)
		return 0, false
	}

	prev := v.last[i]
	dist := 0
	for _, t := range v.last {
		if t >= prev {
			dist++
		}
	}
	v.last[i] = v.now
	return dist, true
}
