// Package neighbors finds interacting particle pairs.
//
// A [Searcher] builds a [Lookup] once per step from the current positions
// and the domain boundary. [Pairs] turns any lookup into the deduplicated
// unordered pair list the solver accumulates over.
package neighbors

import (
	"fmt"
	"slices"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Lookup returns the neighbor indices of particle i. Order is unspecified.
type Lookup func(i int) []int

type Searcher interface {
	Map(positions []dynamo.Vec2, b dynamo.Boundary) Lookup
}

// ByName returns the searcher registered under name.
func ByName(name string, radius float64) (Searcher, error) {
	switch name {
	case "", "grid":
		return Grid{Radius: radius}, nil
	case "brute":
		return BruteForce{Radius: radius}, nil
	default:
		return nil, fmt.Errorf("unknown neighbor search: %s", name)
	}
}

// FromLists adapts precomputed neighbor lists to a Lookup.
func FromLists(lists [][]int) Lookup {
	return func(i int) []int { return lists[i] }
}

// Pair is an unordered interacting pair with I < J.
type Pair struct {
	I, J int
}

// Pairs collects every relation reported by lookup for particles [0, n),
// from either endpoint, and returns each unordered pair exactly once in
// ascending (I, J) order. Self references are ignored. An index outside
// [0, n) fails the whole call.
func Pairs(lookup Lookup, n int) ([]Pair, error) {
	var pairs []Pair
	for i := 0; i < n; i++ {
		for _, j := range lookup(i) {
			if j < 0 || j >= n {
				return nil, fmt.Errorf("%w: particle %d reported neighbor %d (n=%d)",
					dynamo.ErrNeighborIndex, i, j, n)
			}
			switch {
			case i < j:
				pairs = append(pairs, Pair{i, j})
			case j < i:
				pairs = append(pairs, Pair{j, i})
			}
		}
	}

	slices.SortFunc(pairs, func(a, b Pair) int {
		if a.I != b.I {
			return a.I - b.I
		}
		return a.J - b.J
	})
	return slices.Compact(pairs), nil
}
