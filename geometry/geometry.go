// Package geometry holds the vector feature model stored in tiles.
// Coordinates are face-local unit square values until a tile transforms
// them into tile pixels.
package geometry

// Properties feature attributes, also used for per point m-values.
type Properties map[string]interface{}

// VectorPoint one vertex. T is the importance score written by
// simplification; 0 means unscored, 1 means always keep.
type VectorPoint struct {
	X, Y float64
	Z    *float64
	M    Properties
	T    float64
}

// NewPoint vertex without z or m-values
func NewPoint(x, y float64) VectorPoint {
	return VectorPoint{X: x, Y: y}
}

// VectorGeometry is one of VectorPoint, VectorMultiPoint, VectorLineString,
// VectorMultiLineString, VectorPolygon or VectorMultiPolygon.
type VectorGeometry interface {
	GeoJSONType() string
}

type (
	// VectorMultiPoint point set
	VectorMultiPoint []VectorPoint
	// VectorLineString open line
	VectorLineString []VectorPoint
	// VectorMultiLineString line set
	VectorMultiLineString []VectorLineString
	// VectorPolygon outer ring followed by holes, rings closed
	VectorPolygon []VectorLineString
	// VectorMultiPolygon polygon set
	VectorMultiPolygon []VectorPolygon
)

func (VectorPoint) GeoJSONType() string           { return "Point" }
func (VectorMultiPoint) GeoJSONType() string      { return "MultiPoint" }
func (VectorLineString) GeoJSONType() string      { return "LineString" }
func (VectorMultiLineString) GeoJSONType() string { return "MultiLineString" }
func (VectorPolygon) GeoJSONType() string         { return "Polygon" }
func (VectorMultiPolygon) GeoJSONType() string    { return "MultiPolygon" }

// EachLine calls fn for every line or ring in g. polygon is set for rings,
// outer for the first ring of each polygon.
func EachLine(g VectorGeometry, fn func(line VectorLineString, polygon, outer bool)) {
	switch g := g.(type) {
	case VectorLineString:
		fn(g, false, false)
	case VectorMultiLineString:
		for _, l := range g {
			fn(l, false, false)
		}
	case VectorPolygon:
		for i, r := range g {
			fn(r, true, i == 0)
		}
	case VectorMultiPolygon:
		for _, p := range g {
			for i, r := range p {
				fn(r, true, i == 0)
			}
		}
	}
}

// EachPoint calls fn with a pointer to every vertex of g, allowing in
// place edits.
func EachPoint(g VectorGeometry, fn func(p *VectorPoint)) VectorGeometry {
	switch g := g.(type) {
	case VectorPoint:
		fn(&g)
		return g
	case VectorMultiPoint:
		for i := range g {
			fn(&g[i])
		}
	default:
		EachLine(g, func(line VectorLineString, _, _ bool) {
			for i := range line {
				fn(&line[i])
			}
		})
	}
	return g
}

// Clone deep copies the vertex slices of g.
func Clone(g VectorGeometry) VectorGeometry {
	cloneLine := func(l VectorLineString) VectorLineString {
		return append(VectorLineString(nil), l...)
	}
	switch g := g.(type) {
	case VectorMultiPoint:
		return append(VectorMultiPoint(nil), g...)
	case VectorLineString:
		return cloneLine(g)
	case VectorMultiLineString:
		out := make(VectorMultiLineString, len(g))
		for i, l := range g {
			out[i] = cloneLine(l)
		}
		return out
	case VectorPolygon:
		out := make(VectorPolygon, len(g))
		for i, l := range g {
			out[i] = cloneLine(l)
		}
		return out
	case VectorMultiPolygon:
		out := make(VectorMultiPolygon, len(g))
		for i, p := range g {
			out[i] = Clone(p).(VectorPolygon)
		}
		return out
	}
	return g
}
