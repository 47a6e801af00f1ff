// Package convert turns lon/lat GeoJSON into per-face unit square vector
// features carrying importance scores, ready for tile ingestion.
package convert

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/clip"
	"github.com/RoninZc/tiler/geometry"
	"github.com/RoninZc/tiler/simplify"
)

// Options conversion parameters
type Options struct {
	Projection cell.Projection
	Tolerance  float64
	MaxZoom    int
	Buffer     float64
	// Layer is attached as feature metadata when set.
	Layer  string
	Logger logrus.FieldLogger
}

// projector maps lon/lat to face-local unit square coordinates
type projector func(p orb.Point) (x, y float64)

// Collection converts every feature of fc. Features that cannot be
// converted are logged and skipped.
func Collection(fc *geojson.FeatureCollection, opts Options) []*geometry.VectorFeature {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fc == nil {
		return nil
	}
	var out []*geometry.VectorFeature
	for n, f := range fc.Features {
		vfs, err := Feature(f, opts)
		if err != nil {
			log.Warnf("layer %q feature %d skipped, details: %s", opts.Layer, n, err)
			continue
		}
		out = append(out, vfs...)
	}
	return out
}

// Feature converts one GeoJSON feature. Collections expand to one vector
// feature per member; on the sphere a feature yields one result per face
// it touches.
func Feature(f *geojson.Feature, opts Options) ([]*geometry.VectorFeature, error) {
	if f == nil || f.Geometry == nil {
		return nil, errors.New("nil geometry")
	}
	var out []*geometry.VectorFeature
	for _, g := range flatten(f.Geometry) {
		vfs, err := convertGeometry(f, g, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, vfs...)
	}
	return out, nil
}

func flatten(g orb.Geometry) []orb.Geometry {
	switch g := g.(type) {
	case orb.Collection:
		var out []orb.Geometry
		for _, m := range g {
			out = append(out, flatten(m)...)
		}
		return out
	case orb.Bound:
		return []orb.Geometry{g.ToPolygon()}
	}
	return []orb.Geometry{g}
}

func convertGeometry(f *geojson.Feature, g orb.Geometry, opts Options) ([]*geometry.VectorFeature, error) {
	base := geometry.VectorFeature{
		ID:         f.ID,
		Properties: geometry.Properties(f.Properties),
	}
	if opts.Layer != "" {
		base.Metadata = geometry.LayerMetadata{Name: opts.Layer}
	}

	if opts.Projection == cell.WM {
		vf, err := project(base, g, 0, mercator, opts)
		if err != nil || vf == nil {
			return nil, err
		}
		return []*geometry.VectorFeature{vf}, nil
	}

	var out []*geometry.VectorFeature
	for _, face := range touchedFaces(g) {
		face := face
		vf, err := project(base, g, face, func(p orb.Point) (float64, float64) {
			return cell.FaceST(face, spherePoint(p))
		}, opts)
		if err != nil {
			return nil, err
		}
		if vf != nil {
			out = append(out, vf)
		}
	}
	return out, nil
}

func project(base geometry.VectorFeature, g orb.Geometry, face uint8, proj projector, opts Options) (*geometry.VectorFeature, error) {
	vg, err := toVector(g, proj)
	if err != nil {
		return nil, err
	}
	simplify.BuildSqDists(vg, opts.Tolerance, opts.MaxZoom)
	base.Face = face
	base.Geometry = vg
	return clip.Feature(&base, clip.Bound(0, 0, 0, opts.Buffer)), nil
}

func toVector(g orb.Geometry, proj projector) (geometry.VectorGeometry, error) {
	points := func(ps []orb.Point) geometry.VectorLineString {
		out := make(geometry.VectorLineString, len(ps))
		for i, p := range ps {
			x, y := proj(p)
			out[i] = geometry.NewPoint(x, y)
		}
		return out
	}
	polygon := func(p orb.Polygon) geometry.VectorPolygon {
		out := make(geometry.VectorPolygon, len(p))
		for i, r := range p {
			out[i] = points(r)
		}
		return out
	}

	switch g := g.(type) {
	case orb.Point:
		x, y := proj(g)
		return geometry.NewPoint(x, y), nil
	case orb.MultiPoint:
		return geometry.VectorMultiPoint(points(g)), nil
	case orb.LineString:
		return points(g), nil
	case orb.MultiLineString:
		out := make(geometry.VectorMultiLineString, len(g))
		for i, l := range g {
			out[i] = points(l)
		}
		return out, nil
	case orb.Ring:
		return geometry.VectorPolygon{points(g)}, nil
	case orb.Polygon:
		return polygon(g), nil
	case orb.MultiPolygon:
		out := make(geometry.VectorMultiPolygon, len(g))
		for i, p := range g {
			out[i] = polygon(p)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported geometry %T", g)
}

// mercator web mercator lon/lat to the unit square, y growing south.
func mercator(p orb.Point) (float64, float64) {
	x := p.Lon()/360 + 0.5
	sin := math.Sin(p.Lat() * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		y = 0
	} else if y > 1 {
		y = 1
	}
	return x, y
}

func spherePoint(p orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon()))
}

func touchedFaces(g orb.Geometry) []uint8 {
	var seen [cell.MaxFaces]bool
	eachOrbPoint(g, func(p orb.Point) {
		seen[cell.FaceOf(spherePoint(p))] = true
	})
	var faces []uint8
	for f, ok := range seen {
		if ok {
			faces = append(faces, uint8(f))
		}
	}
	return faces
}

func eachOrbPoint(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, l := range g {
			eachOrbPoint(l, fn)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.Polygon:
		for _, r := range g {
			eachOrbPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			eachOrbPoint(p, fn)
		}
	}
}
