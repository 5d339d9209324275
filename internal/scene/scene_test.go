package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

func TestPairMatchesTwoParticleScenario(t *testing.T) {
	x, err := Build(Spec{Kind: "pair"}, 0)
	require.NoError(t, err)

	assert.Equal(t, []dynamo.Vec2{{X: 0, Y: 0}, {X: 0, Y: 0.1}}, x.Positions)
	assert.Equal(t, []dynamo.Vec2{{}, {}}, x.Velocities)
	assert.Equal(t, 1.0, x.ReferenceDensity)
	assert.False(t, x.Boundary.Empty())
}

func TestBlockLayout(t *testing.T) {
	x, err := Build(Spec{Kind: "block", Count: 9, Spacing: 0.1, Origin: dynamo.Vec2{X: 1, Y: 2}}, 1)
	require.NoError(t, err)
	require.Equal(t, 9, x.Len())
	require.NoError(t, x.Validate())

	assert.InDelta(t, 1.0, x.Positions[0].X, 1e-12)
	assert.InDelta(t, 2.0, x.Positions[0].Y, 1e-12)
	assert.InDelta(t, 1.2, x.Positions[8].X, 1e-12)
	assert.InDelta(t, 2.2, x.Positions[8].Y, 1e-12)
}

func TestColumnIsFourWide(t *testing.T) {
	x, err := Build(Spec{Kind: "column", Count: 20, Spacing: 0.1}, 1)
	require.NoError(t, err)
	for _, p := range x.Positions {
		assert.Less(t, p.X, 0.35)
	}
	assert.InDelta(t, 0.4, x.Positions[19].Y, 1e-12)
}

func TestRandomStaysInsideBoundary(t *testing.T) {
	b := dynamo.Boundary{Min: dynamo.Vec2{X: 0, Y: 0.5}, Max: dynamo.Vec2{X: 2, Y: 1.5}}
	x, err := Build(Spec{Kind: "random", Count: 500, Boundary: b}, 42)
	require.NoError(t, err)
	assert.Equal(t, b, x.Boundary)
	for _, p := range x.Positions {
		assert.True(t, p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y, "%v", p)
	}
}

func TestBuildIsSeedDeterministic(t *testing.T) {
	spec := Spec{Kind: "block", Count: 50, Jitter: 0.3}
	a, err := Build(spec, 7)
	require.NoError(t, err)
	b, err := Build(spec, 7)
	require.NoError(t, err)
	c, err := Build(spec, 8)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Positions, c.Positions)
}

func TestInitialVelocity(t *testing.T) {
	x, err := Build(Spec{Kind: "block", Count: 4, Velocity: dynamo.Vec2{X: 1, Y: -2}}, 0)
	require.NoError(t, err)
	for _, v := range x.Velocities {
		assert.Equal(t, dynamo.Vec2{X: 1, Y: -2}, v)
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := Build(Spec{Kind: "vortex"}, 0)
	assert.Error(t, err)
}
