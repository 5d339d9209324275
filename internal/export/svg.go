package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

const (
	background = "#0a0a0a"
	particle   = "#00a8cc"
	outline    = "#444466"
)

type frame struct {
	bounds dynamo.Boundary
	scale  float64
}

func newFrame(b dynamo.Boundary, positions []dynamo.Vec2, scale float64) frame {
	if b.Empty() {
		b = bounds(positions)
	}
	if !(scale > 0) {
		scale = 100
	}
	return frame{bounds: b, scale: scale}
}

func (f frame) size() (float64, float64) {
	s := f.bounds.Size()
	return s.X * f.scale, s.Y * f.scale
}

// point maps simulation coordinates to SVG coordinates, y pointing up.
func (f frame) point(v dynamo.Vec2) (float64, float64) {
	_, h := f.size()
	return (v.X - f.bounds.Min.X) * f.scale, h - (v.Y-f.bounds.Min.Y)*f.scale
}

func (f frame) header(sb *strings.Builder) {
	w, h := f.size()
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<rect x="0" y="0" width="%.1f" height="%.1f" fill="none" stroke="%s" stroke-width="2"/>
`, w, h, w, h, background, w, h, outline))
}

// FrameSVG renders the particles of x as circles inside its boundary.
// scale is pixels per unit length. Non-finite particles are left out.
func FrameSVG(x *dynamo.State, scale float64) string {
	f := newFrame(x.Boundary, x.Positions, scale)
	r := math.Max(f.scale*0.02, 1)

	var sb strings.Builder
	f.header(&sb)
	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", particle))
	for _, p := range x.Positions {
		if !p.IsFinite() {
			continue
		}
		cx, cy := f.point(p)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, r))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PathSVG draws the path of one particle across frames. It returns an empty
// string when the particle has fewer than two finite positions.
func PathSVG(frames []dynamo.Frame, index int, scale float64, stroke string) string {
	points := make([]dynamo.Vec2, 0, len(frames))
	for _, fr := range frames {
		if index < 0 || index >= fr.State.Len() {
			continue
		}
		if p := fr.State.Positions[index]; p.IsFinite() {
			points = append(points, p)
		}
	}
	if len(points) < 2 {
		return ""
	}

	f := newFrame(frames[0].State.Boundary, points, scale)

	var sb strings.Builder
	f.header(&sb)
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range points {
		x, y := f.point(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// bounds pads the bounding box of the finite positions by 10%.
func bounds(positions []dynamo.Vec2) dynamo.Boundary {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range positions {
		if !p.IsFinite() {
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if math.IsInf(minX, 1) {
		return dynamo.Boundary{Max: dynamo.Vec2{X: 1, Y: 1}}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return dynamo.Boundary{
		Min: dynamo.Vec2{X: minX - rangeX*0.1, Y: minY - rangeY*0.1},
		Max: dynamo.Vec2{X: maxX + rangeX*0.1, Y: maxY + rangeY*0.1},
	}
}
