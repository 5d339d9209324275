package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

var kernels = map[string]Kernel{
	"poly6": Poly6{},
	"cubic": CubicSpline{},
}

// integrate sums W over a fine grid covering the support.
func integrate(k Kernel, radius float64) float64 {
	n := 400
	step := 2 * radius / float64(n)
	origin := dynamo.Vec2{}
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := dynamo.Vec2{X: -radius + (float64(i)+0.5)*step, Y: -radius + (float64(j)+0.5)*step}
			sum += k.Value(p, origin, radius, 1.0)
		}
	}
	return sum * step * step
}

func TestKernelNormalization(t *testing.T) {
	for name, k := range kernels {
		assert.InDelta(t, 1.0, integrate(k, 0.2), 1e-3, name)
	}
}

func TestKernelCompactSupport(t *testing.T) {
	a := dynamo.Vec2{}
	for name, k := range kernels {
		for _, d := range []float64{0.2, 0.25, 1.0} {
			b := dynamo.Vec2{X: d}
			assert.Equal(t, 0.0, k.Value(a, b, 0.2, 1.0), "%s value at %g", name, d)
			assert.Equal(t, dynamo.Vec2{}, k.Gradient(a, b, 0.2, 1.0), "%s gradient at %g", name, d)
		}
	}
}

func TestKernelMaximalAtCenter(t *testing.T) {
	a := dynamo.Vec2{X: 0.3, Y: 0.7}
	for name, k := range kernels {
		center := k.Value(a, a, 0.2, 1.0)
		require.Greater(t, center, 0.0, name)
		for _, d := range []float64{0.01, 0.05, 0.1, 0.15, 0.19} {
			assert.Less(t, k.Value(a, a.Add(dynamo.Vec2{Y: d}), 0.2, 1.0), center, "%s at %g", name, d)
		}
	}
}

func TestKernelGradientZeroAtCenter(t *testing.T) {
	a := dynamo.Vec2{X: 1, Y: 2}
	for name, k := range kernels {
		assert.Equal(t, dynamo.Vec2{}, k.Gradient(a, a, 0.2, 1.0), name)
	}
}

func TestKernelGradientMatchesFiniteDifference(t *testing.T) {
	b := dynamo.Vec2{}
	eps := 1e-7
	for name, k := range kernels {
		for _, a := range []dynamo.Vec2{{X: 0.03, Y: 0.04}, {X: -0.08, Y: 0.05}, {X: 0.12, Y: -0.1}} {
			g := k.Gradient(a, b, 0.2, 1.0)
			dx := (k.Value(a.Add(dynamo.Vec2{X: eps}), b, 0.2, 1.0) - k.Value(a.Sub(dynamo.Vec2{X: eps}), b, 0.2, 1.0)) / (2 * eps)
			dy := (k.Value(a.Add(dynamo.Vec2{Y: eps}), b, 0.2, 1.0) - k.Value(a.Sub(dynamo.Vec2{Y: eps}), b, 0.2, 1.0)) / (2 * eps)
			scale := math.Max(1, math.Abs(dx)+math.Abs(dy))
			assert.InDelta(t, dx, g.X, 1e-4*scale, "%s dx at %v", name, a)
			assert.InDelta(t, dy, g.Y, 1e-4*scale, "%s dy at %v", name, a)
		}
	}
}

func TestKernelGradientAntisymmetric(t *testing.T) {
	a := dynamo.Vec2{X: 0.05, Y: 0.02}
	b := dynamo.Vec2{X: -0.01, Y: 0.06}
	for name, k := range kernels {
		gab := k.Gradient(a, b, 0.2, 1.0)
		gba := k.Gradient(b, a, 0.2, 1.0)
		assert.InDelta(t, gab.X, -gba.X, 1e-12, name)
		assert.InDelta(t, gab.Y, -gba.Y, 1e-12, name)
	}
}

func TestKernelNormScales(t *testing.T) {
	a, b := dynamo.Vec2{}, dynamo.Vec2{X: 0.05}
	for name, k := range kernels {
		assert.InDelta(t, 2*k.Value(a, b, 0.2, 1.0), k.Value(a, b, 0.2, 2.0), 1e-9, name)
	}
}

func TestByName(t *testing.T) {
	k, err := ByName("poly6")
	require.NoError(t, err)
	assert.IsType(t, Poly6{}, k)

	k, err = ByName("cubic")
	require.NoError(t, err)
	assert.IsType(t, CubicSpline{}, k)

	_, err = ByName("wendland")
	assert.Error(t, err)
}
