package lru

import (
	"sort"

	"github.com/pkg/errors"
)

// ScaleTree approximates reuse distances with bounded relative error.
// Live access times are grouped into time-ordered buckets. The newest
// threshold elements stay in singleton buckets and are exact; older
// buckets may grow up to decay times the number of elements newer than
// them, so the error of a long distance stays a fraction of its size.
type ScaleTree struct {
	decay     float64
	threshold int

	buckets []timeBucket // oldest first
	last    map[int]int
	live    int
	now     int
}

type timeBucket struct {
	start, end int
	count      int
}

// NewScaleTree creates a scale tree oracle. decay must be in (0, 1] and
// threshold must not be negative.
func NewScaleTree(decay float64, threshold int) (*ScaleTree, error) {
	if decay <= 0 || decay > 1 {
		return nil, errors.Wrapf(ErrBadSelector, "decay factor %v outside (0, 1]", decay)
	}
	if threshold < 0 {
		return nil, errors.Wrapf(ErrBadSelector, "negative bucket threshold %d", threshold)
	}
	return &ScaleTree{
		decay:     decay,
		threshold: threshold,
		last:      make(map[int]int),
	}, nil
}

// Access implements Oracle.
func (s *ScaleTree) Access(addr int) (int, bool) {
	s.now++
	prev, seen := s.last[addr]
	s.last[addr] = s.now

	dist := 0
	if seen {
		dist = s.remove(prev)
	}
	s.buckets = append(s.buckets, timeBucket{start: s.now, end: s.now, count: 1})
	s.live++
	s.compact()
	return dist, seen
}

// Len returns the number of distinct addresses seen.
func (s *ScaleTree) Len() int {
	return s.live
}

// Buckets returns the current number of buckets.
func (s *ScaleTree) Buckets() int {
	return len(s.buckets)
}

// remove drops time t from its bucket and returns the estimated
// inclusive distance of an access last made at t.
func (s *ScaleTree) remove(t int) int {
	i := sort.Search(len(s.buckets), func(i int) bool {
		return s.buckets[i].end >= t
	})
	b := &s.buckets[i]

	newer := 0
	for _, nb := range s.buckets[i+1:] {
		newer += nb.count
	}
	dist := 1 + newer + (b.count-1)/2

	b.count--
	s.live--
	if b.count == 0 {
		s.buckets = append(s.buckets[:i], s.buckets[i+1:]...)
	}
	return dist
}

func (s *ScaleTree) limit(newer int) int {
	return max(1, int(s.decay*float64(newer)))
}

// compact merges adjacent buckets from newest to oldest.
func (s *ScaleTree) compact() {
	merged := make([]timeBucket, 0, len(s.buckets))
	total := 0
	for i := len(s.buckets) - 1; i >= 0; i-- {
		b := s.buckets[i]
		if n := len(merged); n > 0 {
			cur := &merged[n-1]
			newer := total - cur.count
			if newer >= s.threshold && cur.count+b.count <= s.limit(newer) {
				cur.start = b.start
				cur.count += b.count
				total += b.count
				continue
			}
		}
		merged = append(merged, b)
		total += b.count
	}

	for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
		merged[i], merged[j] = merged[j], merged[i]
	}
	s.buckets = merged
}
