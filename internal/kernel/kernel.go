// Package kernel provides 2-D SPH smoothing kernels.
//
// A kernel maps a pair of positions, a support radius and a normalisation
// factor to a non-negative weight. Gradients are taken with respect to the
// first position and vanish at zero separation and outside the support.
package kernel

import (
	"fmt"
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

type Kernel interface {
	Value(a, b dynamo.Vec2, radius, norm float64) float64
	Gradient(a, b dynamo.Vec2, radius, norm float64) dynamo.Vec2
}

// ByName returns the kernel registered under name.
func ByName(name string) (Kernel, error) {
	switch name {
	case "", "poly6":
		return Poly6{}, nil
	case "cubic", "cubic_spline":
		return CubicSpline{}, nil
	default:
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
}

// Poly6 is the 2-D poly6 kernel, W = 4/(pi R^8) (R^2 - r^2)^3.
type Poly6 struct{}

func (Poly6) Value(a, b dynamo.Vec2, radius, norm float64) float64 {
	r2 := a.Sub(b).Norm2()
	h2 := radius * radius
	if r2 >= h2 {
		return 0
	}
	d := h2 - r2
	return norm * 4.0 / (math.Pi * math.Pow(radius, 8)) * d * d * d
}

func (Poly6) Gradient(a, b dynamo.Vec2, radius, norm float64) dynamo.Vec2 {
	rv := a.Sub(b)
	r2 := rv.Norm2()
	h2 := radius * radius
	if r2 >= h2 || r2 == 0 {
		return dynamo.Vec2{}
	}
	d := h2 - r2
	return rv.Scale(-norm * 24.0 / (math.Pi * math.Pow(radius, 8)) * d * d)
}

// CubicSpline is the 2-D M4 spline with smoothing length R/2, so its support
// matches the given radius.
type CubicSpline struct{}

func (CubicSpline) sigma(h float64) float64 {
	return 10.0 / (7.0 * math.Pi * h * h)
}

func (c CubicSpline) Value(a, b dynamo.Vec2, radius, norm float64) float64 {
	h := radius / 2
	q := a.Sub(b).Norm() / h
	switch {
	case q < 1:
		return norm * c.sigma(h) * (1 - 1.5*q*q + 0.75*q*q*q)
	case q < 2:
		t := 2 - q
		return norm * c.sigma(h) * 0.25 * t * t * t
	default:
		return 0
	}
}

func (c CubicSpline) Gradient(a, b dynamo.Vec2, radius, norm float64) dynamo.Vec2 {
	h := radius / 2
	rv := a.Sub(b)
	r := rv.Norm()
	if r == 0 {
		return dynamo.Vec2{}
	}
	q := r / h

	var dw float64 // dW/dq
	switch {
	case q < 1:
		dw = -3*q + 2.25*q*q
	case q < 2:
		t := 2 - q
		dw = -0.75 * t * t
	default:
		return dynamo.Vec2{}
	}
	return rv.Scale(norm * c.sigma(h) * dw / (h * r))
}
