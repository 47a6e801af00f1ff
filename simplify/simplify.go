// Package simplify scores vertex importance with a Douglas-Peucker pass and
// filters lines by zoom relative tolerance.
package simplify

import (
	"math"

	"github.com/RoninZc/tiler/geometry"
)

// Extent pixels per tile edge the tolerances are expressed in.
const Extent = 4096

// SqTolerance squared unit square tolerance at the deepest zoom.
func SqTolerance(tolerance float64, maxzoom int) float64 {
	t := tolerance / (math.Exp2(float64(maxzoom)) * Extent)
	return t * t
}

// BuildSqDists writes an importance score into every vertex of g that
// matters at the given tolerance. Endpoints always score 1.
func BuildSqDists(g geometry.VectorGeometry, tolerance float64, maxzoom int) {
	sqTol := SqTolerance(tolerance, maxzoom)
	geometry.EachLine(g, func(line geometry.VectorLineString, _, _ bool) {
		buildLine(line, sqTol)
	})
}

func buildLine(line geometry.VectorLineString, sqTol float64) {
	if len(line) == 0 {
		return
	}
	last := len(line) - 1
	if last > 1 {
		sqDists(line, 0, last, sqTol)
	}
	line[0].T = 1
	line[last].T = 1
}

func sqDists(line geometry.VectorLineString, first, last int, sqTol float64) {
	maxSqDist := sqTol
	mid := first + (last-first)>>1
	minPosToMid := last - first
	index := -1

	a, b := line[first], line[last]
	for i := first + 1; i < last; i++ {
		d := sqSegDist(line[i], a, b)
		if d > maxSqDist {
			index = i
			maxSqDist = d
		} else if d == maxSqDist {
			// prefer the vertex nearest the middle to bound the depth
			posToMid := i - mid
			if posToMid < 0 {
				posToMid = -posToMid
			}
			if posToMid < minPosToMid {
				index = i
				minPosToMid = posToMid
			}
		}
	}

	if maxSqDist > sqTol {
		if index-first > 1 {
			sqDists(line, first, index, sqTol)
		}
		line[index].T = maxSqDist
		if last-index > 1 {
			sqDists(line, index, last, sqTol)
		}
	}
}

// sqSegDist squared distance from p to segment ab.
func sqSegDist(p, a, b geometry.VectorPoint) float64 {
	x, y := a.X, a.Y
	dx, dy := b.X-x, b.Y-y
	if dx != 0 || dy != 0 {
		m := ((p.X-x)*dx + (p.Y-y)*dy) / (dx*dx + dy*dy)
		if m > 1 {
			x, y = b.X, b.Y
		} else if m > 0 {
			x += dx * m
			y += dy * m
		}
	}
	dx, dy = p.X-x, p.Y-y
	return dx*dx + dy*dy
}

// ZoomTolerance unit square tolerance at zoom; 0 at or past maxzoom.
func ZoomTolerance(tolerance float64, zoom, maxzoom int) float64 {
	if zoom >= maxzoom {
		return 0
	}
	return tolerance / (math.Exp2(float64(zoom)) * Extent)
}

// Simplify drops vertices whose importance does not exceed the zoom's
// squared tolerance and rewinds polygon rings, outer rings clockwise.
// The returned geometry replaces g.
func Simplify(g geometry.VectorGeometry, tolerance float64, zoom, maxzoom int) geometry.VectorGeometry {
	zt := ZoomTolerance(tolerance, zoom, maxzoom)
	switch g := g.(type) {
	case geometry.VectorLineString:
		return line(g, zt, false, false)
	case geometry.VectorMultiLineString:
		out := make(geometry.VectorMultiLineString, len(g))
		for i, l := range g {
			out[i] = line(l, zt, false, false)
		}
		return out
	case geometry.VectorPolygon:
		return polygon(g, zt)
	case geometry.VectorMultiPolygon:
		out := make(geometry.VectorMultiPolygon, len(g))
		for i, p := range g {
			out[i] = polygon(p, zt)
		}
		return out
	}
	return g
}

func polygon(p geometry.VectorPolygon, zt float64) geometry.VectorPolygon {
	out := make(geometry.VectorPolygon, len(p))
	for i, r := range p {
		out[i] = line(r, zt, true, i == 0)
	}
	return out
}

func line(l geometry.VectorLineString, zt float64, isPolygon, isOuter bool) geometry.VectorLineString {
	sqZt := zt * zt
	size := float64(len(l))
	guard := zt
	if isPolygon {
		guard = sqZt
	}

	out := l
	if zt == 0 || size >= guard {
		out = make(geometry.VectorLineString, 0, len(l))
		for _, p := range l {
			if zt == 0 || p.T > sqZt {
				out = append(out, p)
			}
		}
	}
	if isPolygon {
		Rewind(out, isOuter)
	}
	return out
}

// Rewind reverses ring in place when the sign of its shoelace area
// matches clockwise.
func Rewind(ring geometry.VectorLineString, clockwise bool) {
	var area float64
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		area += (ring[i].X - ring[j].X) * (ring[i].Y + ring[j].Y)
	}
	if (area > 0) == clockwise {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
}
