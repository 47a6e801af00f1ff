package geometry

import (
	"github.com/paulmach/orb"
)

// ToOrb drops z, m and importance and returns the planar orb geometry.
func ToOrb(g VectorGeometry) orb.Geometry {
	switch g := g.(type) {
	case VectorPoint:
		return orb.Point{g.X, g.Y}
	case VectorMultiPoint:
		return orb.MultiPoint(toOrbPoints(g))
	case VectorLineString:
		return orb.LineString(toOrbPoints(g))
	case VectorMultiLineString:
		mls := make(orb.MultiLineString, len(g))
		for i, l := range g {
			mls[i] = toOrbPoints(l)
		}
		return mls
	case VectorPolygon:
		return toOrbPolygon(g)
	case VectorMultiPolygon:
		mp := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			mp[i] = toOrbPolygon(p)
		}
		return mp
	}
	return nil
}

func toOrbPoints(ps []VectorPoint) []orb.Point {
	out := make([]orb.Point, len(ps))
	for i, p := range ps {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func toOrbPolygon(p VectorPolygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		out[i] = toOrbPoints(r)
	}
	return out
}

// VertexIndex remembers the attributes of known vertices so that a planar
// orb result can be lifted back into vector points.
type VertexIndex map[orb.Point]VectorPoint

// IndexVertices indexes every vertex of g. Duplicate coordinates keep the
// highest importance.
func IndexVertices(g VectorGeometry) VertexIndex {
	idx := make(VertexIndex)
	EachPoint(g, func(p *VectorPoint) {
		k := orb.Point{p.X, p.Y}
		if old, ok := idx[k]; ok && old.T >= p.T {
			return
		}
		idx[k] = *p
	})
	return idx
}

func (idx VertexIndex) lift(p orb.Point) VectorPoint {
	if v, ok := idx[p]; ok {
		return v
	}
	// vertices created by clipping are always kept
	return VectorPoint{X: p[0], Y: p[1], T: 1}
}

func (idx VertexIndex) liftPoints(ps []orb.Point) VectorLineString {
	out := make(VectorLineString, len(ps))
	for i, p := range ps {
		out[i] = idx.lift(p)
	}
	return out
}

func (idx VertexIndex) liftPolygon(p orb.Polygon) VectorPolygon {
	out := make(VectorPolygon, len(p))
	for i, r := range p {
		out[i] = idx.liftPoints(r)
	}
	return out
}

// FromOrb lifts an orb geometry back into vector form. Ring becomes a one
// ring polygon; unsupported types return nil.
func (idx VertexIndex) FromOrb(g orb.Geometry) VectorGeometry {
	switch g := g.(type) {
	case orb.Point:
		return idx.lift(g)
	case orb.MultiPoint:
		return VectorMultiPoint(idx.liftPoints(g))
	case orb.LineString:
		return idx.liftPoints(g)
	case orb.MultiLineString:
		out := make(VectorMultiLineString, len(g))
		for i, l := range g {
			out[i] = idx.liftPoints(l)
		}
		return out
	case orb.Ring:
		return VectorPolygon{idx.liftPoints(g)}
	case orb.Polygon:
		return idx.liftPolygon(g)
	case orb.MultiPolygon:
		out := make(VectorMultiPolygon, len(g))
		for i, p := range g {
			out[i] = idx.liftPolygon(p)
		}
		return out
	}
	return nil
}
