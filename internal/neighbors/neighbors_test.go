package neighbors

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

func randomPositions(n int, seed int64, b dynamo.Boundary) []dynamo.Vec2 {
	rng := rand.New(rand.NewSource(seed))
	size := b.Size()
	ps := make([]dynamo.Vec2, n)
	for i := range ps {
		ps[i] = dynamo.Vec2{
			X: b.Min.X + rng.Float64()*size.X,
			Y: b.Min.Y + rng.Float64()*size.Y,
		}
	}
	return ps
}

func sorted(xs []int) []int {
	c := slices.Clone(xs)
	slices.Sort(c)
	return c
}

func TestGridMatchesBruteForce(t *testing.T) {
	b := dynamo.Boundary{Max: dynamo.Vec2{X: 2, Y: 1}}
	ps := randomPositions(400, 7, b)
	// a few stragglers outside the domain
	ps = append(ps, dynamo.Vec2{X: -0.5, Y: 0.5}, dynamo.Vec2{X: -0.45, Y: 0.55}, dynamo.Vec2{X: 3, Y: 3})

	grid := Grid{Radius: 0.1}.Map(ps, b)
	brute := BruteForce{Radius: 0.1}.Map(ps, b)

	for i := range ps {
		assert.Equal(t, sorted(brute(i)), sorted(grid(i)), "particle %d", i)
	}
}

func TestGridHugeBoundary(t *testing.T) {
	b := dynamo.Boundary{Max: dynamo.Vec2{X: 1000, Y: 1000}}
	ps := []dynamo.Vec2{{X: 1, Y: 1}, {X: 1.1, Y: 1}, {X: 999, Y: 999}}

	cg := newCellGrid(b, 0.2, maxCells(len(ps)))
	assert.LessOrEqual(t, cg.nx*cg.ny, maxCells(len(ps)))
	assert.GreaterOrEqual(t, cg.size, 0.2)

	lookup := Grid{Radius: 0.2}.Map(ps, b)
	assert.Equal(t, []int{1}, lookup(0))
	assert.Equal(t, []int{0}, lookup(1))
	assert.Empty(t, lookup(2))

	ps = randomPositions(300, 11, b)
	grid := Grid{Radius: 20}.Map(ps, b)
	brute := BruteForce{Radius: 20}.Map(ps, b)
	for i := range ps {
		assert.Equal(t, sorted(brute(i)), sorted(grid(i)), "particle %d", i)
	}
}

func TestGridWithEmptyBoundary(t *testing.T) {
	ps := randomPositions(100, 3, dynamo.Boundary{Max: dynamo.Vec2{X: 1, Y: 1}})
	grid := Grid{Radius: 0.15}.Map(ps, dynamo.Boundary{})
	brute := BruteForce{Radius: 0.15}.Map(ps, dynamo.Boundary{})
	for i := range ps {
		assert.Equal(t, sorted(brute(i)), sorted(grid(i)), "particle %d", i)
	}
}

func TestGridSkipsNonFinite(t *testing.T) {
	ps := []dynamo.Vec2{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 0.01, Y: 0}}
	lookup := Grid{Radius: 0.1}.Map(ps, dynamo.Boundary{Max: dynamo.Vec2{X: 1, Y: 1}})
	assert.Equal(t, []int{2}, lookup(0))
	assert.Empty(t, lookup(1))
}

func TestGridNeverReportsSelf(t *testing.T) {
	ps := []dynamo.Vec2{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}
	lookup := Grid{Radius: 0.1}.Map(ps, dynamo.Boundary{Max: dynamo.Vec2{X: 1, Y: 1}})
	assert.Equal(t, []int{1}, lookup(0))
	assert.Equal(t, []int{0}, lookup(1))
}

func TestPairsDeduplicatesSymmetricReports(t *testing.T) {
	lookup := FromLists([][]int{{1, 2}, {0}, {0}})
	pairs, err := Pairs(lookup, 3)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{0, 1}, {0, 2}}, pairs)
}

func TestPairsKeepsAsymmetricReports(t *testing.T) {
	// only the higher index reports the relation
	lookup := FromLists([][]int{{}, {}, {0, 1}})
	pairs, err := Pairs(lookup, 3)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{0, 2}, {1, 2}}, pairs)
}

func TestPairsIgnoresSelfAndDuplicates(t *testing.T) {
	lookup := FromLists([][]int{{0, 1, 1}, {1}})
	pairs, err := Pairs(lookup, 2)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{0, 1}}, pairs)
}

func TestPairsRejectsOutOfRange(t *testing.T) {
	for _, bad := range []int{-1, 3, 100} {
		lookup := FromLists([][]int{{1}, {bad}, {}})
		_, err := Pairs(lookup, 3)
		assert.True(t, errors.Is(err, dynamo.ErrNeighborIndex), "index %d: %v", bad, err)
	}
}

func TestByName(t *testing.T) {
	s, err := ByName("grid", 0.2)
	require.NoError(t, err)
	assert.Equal(t, Grid{Radius: 0.2}, s)

	s, err = ByName("brute", 0.2)
	require.NoError(t, err)
	assert.Equal(t, BruteForce{Radius: 0.2}, s)

	_, err = ByName("kdtree", 0.2)
	assert.Error(t, err)
}

func BenchmarkGrid(b *testing.B) {
	bound := dynamo.Boundary{Max: dynamo.Vec2{X: 4, Y: 4}}
	ps := randomPositions(4000, 1, bound)
	g := Grid{Radius: 0.1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Map(ps, bound)
	}
}
