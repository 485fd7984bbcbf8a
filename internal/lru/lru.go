// Package lru implements stack-distance oracles: stateful algorithms
// that report, for each address presented in sequence, how many
// distinct addresses were touched since its previous access.
//
// Distances are inclusive. An address accessed twice in a row has
// distance 1 because the only distinct address in between, counting
// itself, is itself. An oracle instance belongs to exactly one trace.
package lru

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Oracle computes reuse distances online.
type Oracle interface {
	// Access records addr and returns its reuse distance. ok is false
	// the first time addr is seen.
	Access(addr int) (dist int, ok bool)
}

// Algorithm names a stack-distance algorithm.
type Algorithm string

const (
	Olken Algorithm = "Olken"
	Stack Algorithm = "Stack"
	Vec   Algorithm = "Vec"
	Scale Algorithm = "Scale"
)

// Default is used when a selector names an unknown algorithm and the
// caller did not ask for strict selection.
const Default = Olken

// Default scale tree parameters used when a selector omits them.
const (
	DefaultDecay     = 0.5
	DefaultThreshold = 64
)

var (
	ErrUnknownAlgorithm = errors.New("unknown stack-distance algorithm")
	ErrBadSelector      = errors.New("malformed algorithm selector")
)

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{Olken, Stack, Vec, Scale}
}

func (a Algorithm) known() bool {
	for _, k := range Algorithms() {
		if a == k {
			return true
		}
	}
	return false
}

// Selector is a parsed "<Name>[,p1,p2,...]" string.
type Selector struct {
	Name   string
	Params []string
}

// ParseSelector splits a selector string on commas.
func ParseSelector(s string) (Selector, error) {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return Selector{}, errors.Wrapf(ErrBadSelector, "empty algorithm name in %q", s)
	}
	return Selector{Name: parts[0], Params: parts[1:]}, nil
}

func (s Selector) String() string {
	return strings.Join(append([]string{s.Name}, s.Params...), ",")
}

// Selection describes how a selector was resolved.
type Selection struct {
	Requested string
	Algorithm Algorithm
	// Fallback is set when Requested named an unknown algorithm and
	// Default was substituted.
	Fallback bool
	Decay     float64
	Threshold int
}

// Label is the algorithm name used in export keys and metrics.
func (s Selection) Label() string {
	return string(s.Algorithm)
}

// Select parses selector and builds a fresh oracle. Unknown names fall
// back to Default with Selection.Fallback set, unless strict is true,
// in which case ErrUnknownAlgorithm is returned.
func Select(selector string, strict bool) (Oracle, Selection, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, Selection{}, err
	}

	res := Selection{Requested: selector, Algorithm: Algorithm(sel.Name)}
	if !res.Algorithm.known() {
		if strict {
			return nil, res, errors.Wrapf(ErrUnknownAlgorithm, "%q", sel.Name)
		}
		res.Algorithm = Default
		res.Fallback = true
		return NewSplay(), res, nil
	}

	switch res.Algorithm {
	case Olken:
		return NewSplay(), res, nil
	case Stack:
		return NewStack(), res, nil
	case Vec:
		return NewVec(), res, nil
	default:
		res.Decay, res.Threshold, err = scaleParams(sel)
		if err != nil {
			return nil, res, err
		}
		tree, err := NewScaleTree(res.Decay, res.Threshold)
		if err != nil {
			return nil, res, err
		}
		return tree, res, nil
	}
}

func scaleParams(sel Selector) (float64, int, error) {
	decay, threshold := DefaultDecay, DefaultThreshold
	if len(sel.Params) > 2 {
		return 0, 0, errors.Wrapf(ErrBadSelector, "%s takes at most 2 parameters, got %d", sel.Name, len(sel.Params))
	}
	if len(sel.Params) > 0 {
		d, err := strconv.ParseFloat(sel.Params[0], 64)
		if err != nil {
			return 0, 0, errors.Wrapf(ErrBadSelector, "decay factor %q", sel.Params[0])
		}
		decay = d
	}
	if len(sel.Params) > 1 {
		n, err := strconv.Atoi(sel.Params[1])
		if err != nil {
			return 0, 0, errors.Wrapf(ErrBadSelector, "bucket threshold %q", sel.Params[1])
		}
		threshold = n
	}
	return decay, threshold, nil
}
