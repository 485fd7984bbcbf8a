// Package hist accumulates reuse-distance histograms.
package hist

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// NeverToken is the textual form of a first-time access.
const NeverToken = "None"

// Distance is a reuse distance or the "never seen" sentinel.
type Distance struct {
	value int
	seen  bool
}

// Never returns the distance of a first-time access.
func Never() Distance {
	return Distance{}
}

// Finite returns a finite distance.
func Finite(n int) Distance {
	return Distance{value: n, seen: true}
}

// MakeDistance converts an oracle result into a Distance.
func MakeDistance(d int, ok bool) Distance {
	if !ok {
		return Never()
	}
	return Finite(d)
}

// Value returns the distance and whether it is finite.
func (d Distance) Value() (int, bool) {
	return d.value, d.seen
}

// IsNever reports whether d is the first-access sentinel.
func (d Distance) IsNever() bool {
	return !d.seen
}

func (d Distance) String() string {
	if !d.seen {
		return NeverToken
	}
	return fmt.Sprintf("%d", d.value)
}

// Less orders finite distances ascending with Never last.
func (d Distance) Less(other Distance) bool {
	if d.seen != other.seen {
		return d.seen
	}
	return d.value < other.value
}

// Bucket is one histogram entry.
type Bucket struct {
	Dist  Distance
	Count int
}

// Histogram maps distances to occurrence counts. Counts only grow.
type Histogram struct {
	counts map[Distance]int
	total  int
}

// New creates an empty histogram.
func New() *Histogram {
	return &Histogram{counts: make(map[Distance]int)}
}

// Add records one access with distance d.
func (h *Histogram) Add(d Distance) {
	h.counts[d]++
	h.total++
}

// AddN records n accesses with distance d. Non-positive n is ignored.
func (h *Histogram) AddN(d Distance, n int) {
	if n <= 0 {
		return
	}
	h.counts[d] += n
	h.total += n
}

// AddDist records an oracle result directly.
func (h *Histogram) AddDist(d int, ok bool) {
	h.Add(MakeDistance(d, ok))
}

// Merge adds every bucket of other into h.
func (h *Histogram) Merge(other *Histogram) {
	for d, c := range other.counts {
		h.counts[d] += c
		h.total += c
	}
}

// Count returns the number of accesses recorded with distance d.
func (h *Histogram) Count(d Distance) int {
	return h.counts[d]
}

// Total returns the number of recorded accesses.
func (h *Histogram) Total() int {
	return h.total
}

// Len returns the number of non-empty buckets.
func (h *Histogram) Len() int {
	return len(h.counts)
}

// Pairs yields (distance, count) pairs, finite distances ascending and
// Never last. The sequence can be ranged over repeatedly.
func (h *Histogram) Pairs() iter.Seq2[Distance, int] {
	return func(yield func(Distance, int) bool) {
		keys := make([]Distance, 0, len(h.counts))
		for d := range h.counts {
			keys = append(keys, d)
		}
		slices.SortFunc(keys, func(a, b Distance) int {
			switch {
			case a.Less(b):
				return -1
			case b.Less(a):
				return 1
			default:
				return 0
			}
		})
		for _, d := range keys {
			if !yield(d, h.counts[d]) {
				return
			}
		}
	}
}

// Buckets materialises Pairs.
func (h *Histogram) Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(h.counts))
	for d, c := range h.Pairs() {
		buckets = append(buckets, Bucket{Dist: d, Count: c})
	}
	return buckets
}

// MissRatio predicts the miss ratio of a fully associative LRU cache
// holding size elements: accesses whose distance exceeds size, plus
// first-time accesses, over all accesses.
func (h *Histogram) MissRatio(size int) float64 {
	if h.total == 0 {
		return 0
	}
	misses := 0
	for d, c := range h.counts {
		if v, ok := d.Value(); !ok || v > size {
			misses += c
		}
	}
	return float64(misses) / float64(h.total)
}

func (h *Histogram) String() string {
	var sb strings.Builder
	sb.WriteString("Distance\tCount\n")
	for d, c := range h.Pairs() {
		fmt.Fprintf(&sb, "%s\t%d\n", d, c)
	}
	return strings.TrimRight(sb.String(), "\n")
}
