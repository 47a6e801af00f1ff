package tile

import (
	"math"
	"sort"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/geometry"
	"github.com/RoninZc/tiler/simplify"
)

// DefaultLayer name used when neither metadata nor caller picks a layer
const DefaultLayer = "default"

// Layer named, append only feature list
type Layer struct {
	Name     string
	Features []*geometry.VectorFeature
}

// Tile features of one cell grouped by layer
type Tile struct {
	ID          cell.ID
	Layers      map[string]*Layer
	Transformed bool
}

// New empty tile
func New(id cell.ID) *Tile {
	return &Tile{ID: id, Layers: make(map[string]*Layer)}
}

// AddFeature appends f to its layer: the metadata layer name wins, then
// layer, then DefaultLayer.
func (t *Tile) AddFeature(f *geometry.VectorFeature, layer string) {
	name, ok := f.LayerName()
	if !ok {
		name = layer
	}
	if name == "" {
		name = DefaultLayer
	}
	l, ok := t.Layers[name]
	if !ok {
		l = &Layer{Name: name}
		t.Layers[name] = l
	}
	l.Features = append(l.Features, f)
}

// IsEmpty reports whether no layer holds a feature.
func (t *Tile) IsEmpty() bool {
	for _, l := range t.Layers {
		if len(l.Features) > 0 {
			return false
		}
	}
	return true
}

// Len total feature count
func (t *Tile) Len() int {
	n := 0
	for _, l := range t.Layers {
		n += len(l.Features)
	}
	return n
}

// LayerNames sorted layer names
func (t *Tile) LayerNames() []string {
	names := make([]string, 0, len(t.Layers))
	for name := range t.Layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transform simplifies every feature for this tile's zoom and moves it into
// tile pixels. It runs at most once per tile.
func (t *Tile) Transform(tolerance float64, maxzoom int, extent float64) {
	if t.Transformed {
		return
	}
	_, zoom, i, j := t.ID.ToFaceIJ()
	for _, l := range t.Layers {
		for _, f := range l.Features {
			g := simplify.Simplify(f.Geometry, tolerance, zoom, maxzoom)
			f.Geometry = TransformGeometry(g, zoom, float64(i), float64(j), extent)
		}
	}
	t.Transformed = true
}

// TransformGeometry maps unit square coordinates into the pixels of tile
// (zoom, ti, tj): round(extent * (x * 2^zoom - ti)).
func TransformGeometry(g geometry.VectorGeometry, zoom int, ti, tj, extent float64) geometry.VectorGeometry {
	z2 := math.Exp2(float64(zoom))
	return geometry.EachPoint(g, func(p *geometry.VectorPoint) {
		p.X = math.Round(extent * (p.X*z2 - ti))
		p.Y = math.Round(extent * (p.Y*z2 - tj))
	})
}
