// Package tile is the tile pyramid index. A Store routes vector features to
// face root tiles, splits them eagerly down to an index zoom at
// construction, and lazily below that on request. Every split tile is
// simplified and moved into tile pixels exactly once.
//
// A Store is not safe for concurrent use: GetTile both reads and writes.
package tile

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/clip"
	"github.com/RoninZc/tiler/convert"
	"github.com/RoninZc/tiler/geometry"
)

// MaxZoom hard ceiling for any configured zoom
const MaxZoom = 20

// Options store configuration
type Options struct {
	Projection cell.Projection
	MinZoom    int
	MaxZoom    int
	// IndexMaxZoom depth built at construction
	IndexMaxZoom int
	// Tolerance simplification tolerance in pixels at MaxZoom
	Tolerance float64
	// Buffer pixels shared with neighbor tiles when splitting
	Buffer float64
	// Extent pixels per tile edge for the transform; 1 keeps tile units
	Extent float64
	Logger logrus.FieldLogger
}

// DefaultOptions cube-sphere, zooms 0-20, index to 4, tolerance 3, buffer 64
func DefaultOptions() Options {
	return Options{
		Projection:   cell.S2,
		MinZoom:      0,
		MaxZoom:      MaxZoom,
		IndexMaxZoom: 4,
		Tolerance:    3,
		Buffer:       64,
		Extent:       1,
	}
}

// Store tile pyramid over one projection
type Store struct {
	opts  Options
	log   logrus.FieldLogger
	tiles map[cell.ID]*Tile
	faces map[uint8]struct{}
}

// target bounds a lazy split to the chain leading to id
type target struct {
	id   cell.ID
	zoom int
}

// NewStore indexes a single feature collection; features land in their
// metadata layer or DefaultLayer.
func NewStore(data *geojson.FeatureCollection, opts Options) *Store {
	return NewLayeredStore(map[string]*geojson.FeatureCollection{"": data}, opts)
}

// NewLayeredStore indexes several collections, each into the named layer.
func NewLayeredStore(layers map[string]*geojson.FeatureCollection, opts Options) *Store {
	s := newStore(opts)
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	var features []*geometry.VectorFeature
	for _, name := range names {
		features = append(features, convert.Collection(layers[name], convert.Options{
			Projection: s.opts.Projection,
			Tolerance:  s.opts.Tolerance,
			MaxZoom:    s.opts.MaxZoom,
			Buffer:     s.opts.Buffer,
			Layer:      name,
			Logger:     s.log,
		})...)
	}
	s.index(features)
	return s
}

// NewStoreFromFeatures indexes features that are already in unit square
// space with importance scores.
func NewStoreFromFeatures(features []*geometry.VectorFeature, opts Options) *Store {
	s := newStore(opts)
	s.index(features)
	return s
}

func newStore(opts Options) *Store {
	if opts.MinZoom < 0 || opts.MinZoom > opts.MaxZoom || opts.MaxZoom > MaxZoom {
		panic(fmt.Sprintf("tile: invalid zoom range %d-%d", opts.MinZoom, opts.MaxZoom))
	}
	if opts.Extent <= 0 {
		opts.Extent = 1
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		opts:  opts,
		log:   log,
		tiles: make(map[cell.ID]*Tile),
		faces: make(map[uint8]struct{}),
	}
}

func (s *Store) index(features []*geometry.VectorFeature) {
	for _, f := range features {
		s.AddFeature(f)
	}
	for _, face := range s.Faces() {
		s.splitTile(cell.FromFace(s.opts.Projection, face), nil)
	}
	s.log.WithFields(logrus.Fields{
		"projection": s.opts.Projection,
		"features":   len(features),
		"faces":      len(s.faces),
		"tiles":      len(s.tiles),
	}).Infof("tile index built to zoom %d", s.opts.IndexMaxZoom)
}

// AddFeature appends a copy of f to the root tile of its face and marks the
// face active. It reports false when f was dropped: its face is outside the
// projection, or the face root was already split and moved to pixels.
func (s *Store) AddFeature(f *geometry.VectorFeature) bool {
	if int(f.Face) >= s.opts.Projection.Faces() {
		s.log.Warnf("feature %v has face %d outside %s, dropped", f.ID, f.Face, s.opts.Projection)
		return false
	}
	id := cell.FromFace(s.opts.Projection, f.Face)
	t, ok := s.tiles[id]
	if !ok {
		t = New(id)
		s.tiles[id] = t
	} else if t.Transformed {
		s.log.Warnf("feature %v added after face %d was split, dropped", f.ID, f.Face)
		return false
	}
	s.faces[f.Face] = struct{}{}
	t.AddFeature(f.WithGeometry(geometry.Clone(f.Geometry)), "")
	return true
}

// GetTile returns the tile at id, splitting its ancestors on demand.
// Zooms past MaxZoom, inactive faces and empty areas return false.
func (s *Store) GetTile(id cell.ID) (*Tile, bool) {
	zoom := id.Level()
	if zoom < 0 || zoom > MaxZoom || id.Projection() != s.opts.Projection {
		return nil, false
	}
	if _, ok := s.faces[id.Face()]; !ok {
		return nil, false
	}
	if id.IsOutOfBounds() {
		id = id.Wrapped()
	}

	p := id
	for {
		if _, ok := s.tiles[p]; ok || p.IsFace() {
			break
		}
		p = p.Parent()
	}
	s.splitTile(p, &target{id: id, zoom: zoom})

	t, ok := s.tiles[id]
	if !ok {
		return nil, false
	}
	s.transform(t)
	return t, true
}

// splitTile walks down from start with an explicit stack. Without a target
// it stops at IndexMaxZoom; with one it follows only the chain containing
// the target id.
func (s *Store) splitTile(start cell.ID, to *target) {
	stack := []cell.ID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t, ok := s.tiles[id]
		if !ok || t.IsEmpty() || t.Transformed {
			continue
		}
		zoom := id.Level()
		if zoom >= s.opts.MaxZoom {
			continue
		}
		if to == nil {
			if zoom >= s.opts.IndexMaxZoom {
				continue
			}
		} else if zoom > to.zoom || !id.Contains(to.id) {
			continue
		}

		children := s.split(t)
		s.transform(t)
		for _, c := range children {
			if c.IsEmpty() {
				continue
			}
			s.tiles[c.ID] = c
			stack = append(stack, c.ID)
		}
	}
}

// split clips the untransformed features of t into four child tiles.
func (s *Store) split(t *Tile) [4]*Tile {
	var children [4]*Tile
	for _, name := range t.LayerNames() {
		parts := clip.Split(t.ID, t.Layers[name].Features, s.opts.Buffer)
		for n, part := range parts {
			if children[n] == nil {
				children[n] = New(part.ID)
			}
			for _, f := range part.Features {
				children[n].AddFeature(f, name)
			}
		}
	}
	for n := range children {
		if children[n] == nil {
			face, zoom, i, j := t.ID.ToFaceIJ()
			children[n] = New(cell.ChildrenIJ(t.ID.Projection(), face, zoom, i, j)[n])
		}
	}
	s.log.Debugf("tile %s split", t.ID)
	return children
}

func (s *Store) transform(t *Tile) {
	if t.Transformed {
		return
	}
	t.Transform(s.opts.Tolerance, s.opts.MaxZoom, s.opts.Extent)
	_, zoom, i, j := t.ID.ToFaceIJ()
	s.log.WithFields(logrus.Fields{
		"face": t.ID.Face(),
		"zoom": zoom,
		"i":    i,
		"j":    j,
	}).Debug("tile transformed")
}

// Faces active faces in ascending order
func (s *Store) Faces() []uint8 {
	faces := make([]uint8, 0, len(s.faces))
	for f := range s.faces {
		faces = append(faces, f)
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i] < faces[j] })
	return faces
}

// Len number of registered tiles
func (s *Store) Len() int { return len(s.tiles) }

// Options effective configuration
func (s *Store) Options() Options { return s.opts }
