package tile

import (
	"testing"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/geometry"
)

func wmOptions(logger logrus.FieldLogger) Options {
	return Options{
		Projection:   cell.WM,
		MinZoom:      0,
		MaxZoom:      2,
		IndexMaxZoom: 2,
		Tolerance:    3,
		Buffer:       64,
		Extent:       4096,
		Logger:       logger,
	}
}

func debugLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func countTransforms(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "tile transformed" {
			n++
		}
	}
	return n
}

func pointFeature(x, y float64) *geometry.VectorFeature {
	return &geometry.VectorFeature{
		ID:         1,
		Geometry:   geometry.NewPoint(x, y),
		Properties: geometry.Properties{"name": "p"},
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, cell.S2, opts.Projection)
	assert.Equal(t, 0, opts.MinZoom)
	assert.Equal(t, 20, opts.MaxZoom)
	assert.Equal(t, 4, opts.IndexMaxZoom)
	assert.Equal(t, 3.0, opts.Tolerance)
	assert.Equal(t, 64.0, opts.Buffer)
	assert.Equal(t, 1.0, opts.Extent)
}

func TestNewStoreRejectsZoomRange(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := wmOptions(logger)
	opts.MinZoom = 3
	assert.Panics(t, func() { NewStoreFromFeatures(nil, opts) })

	opts = wmOptions(logger)
	opts.MaxZoom = 21
	assert.Panics(t, func() { NewStoreFromFeatures(nil, opts) })
}

func TestStoreEagerIndex(t *testing.T) {
	logger, hook := debugLogger()
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, wmOptions(logger))

	assert.Equal(t, []uint8{0}, s.Faces())
	// root, (1,0,1) and (2,1,2)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, countTransforms(hook))

	tl, ok := s.GetTile(cell.FromZXY(2, 1, 2))
	require.True(t, ok)
	assert.True(t, tl.Transformed)
	require.Len(t, tl.Layers[DefaultLayer].Features, 1)
	f := tl.Layers[DefaultLayer].Features[0]
	assert.Equal(t, "p", f.Properties["name"])
	p := f.Geometry.(geometry.VectorPoint)
	assert.Equal(t, 819.0, p.X)
	assert.Equal(t, 3277.0, p.Y)

	for _, id := range []cell.ID{cell.FromZXY(2, 0, 2), cell.FromZXY(2, 1, 3), cell.FromZXY(2, 2, 2)} {
		_, ok := s.GetTile(id)
		assert.False(t, ok, id.String())
	}
}

func TestGetTileTransformsOnce(t *testing.T) {
	logger, hook := debugLogger()
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, wmOptions(logger))
	before := countTransforms(hook)

	id := cell.FromZXY(2, 1, 2)
	first, ok := s.GetTile(id)
	require.True(t, ok)
	second, ok := s.GetTile(id)
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, before+1, countTransforms(hook))
	p := second.Layers[DefaultLayer].Features[0].Geometry.(geometry.VectorPoint)
	assert.Equal(t, 819.0, p.X)
}

func TestGetTileRejects(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := wmOptions(logger)
	opts.Projection = cell.S2
	opts.MaxZoom = 20
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, opts)

	_, ok := s.GetTile(cell.FromFaceIJ(cell.S2, 0, 21, 0, 0))
	assert.False(t, ok)
	_, ok = s.GetTile(cell.FromFace(cell.S2, 3))
	assert.False(t, ok)
	_, ok = s.GetTile(cell.FromZXY(0, 0, 0))
	assert.False(t, ok)

	root, ok := s.GetTile(cell.FromFace(cell.S2, 0))
	require.True(t, ok)
	assert.True(t, root.Transformed)
}

func TestGetTileLazyBelowIndex(t *testing.T) {
	logger, hook := debugLogger()
	opts := wmOptions(logger)
	opts.MaxZoom = 4
	opts.IndexMaxZoom = 0
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, opts)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, countTransforms(hook))

	tl, ok := s.GetTile(cell.FromZXY(4, 4, 11))
	require.True(t, ok)
	assert.True(t, tl.Transformed)
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 5, countTransforms(hook))

	// the chain is split, so siblings resolve without new work
	_, ok = s.GetTile(cell.FromZXY(4, 5, 11))
	assert.False(t, ok)
	assert.Equal(t, 5, s.Len())
}

func TestGetTileWrapsOutOfBounds(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, wmOptions(logger))

	var west cell.ID
	for _, n := range cell.FromZXY(2, 0, 2).Neighbors(true) {
		if n.IsOutOfBounds() {
			west = n
			break
		}
	}
	require.True(t, west.IsOutOfBounds())
	_, ok := s.GetTile(west)
	assert.False(t, ok)

	east, ok := s.GetTile(cell.FromZXY(2, 1, 2))
	require.True(t, ok)
	assert.Equal(t, cell.FromZXY(2, 1, 2), east.ID)
}

func TestStoreDropsForeignFace(t *testing.T) {
	logger, hook := test.NewNullLogger()
	f := pointFeature(0.3, 0.7)
	f.Face = 4
	s := NewStoreFromFeatures([]*geometry.VectorFeature{f}, wmOptions(logger))
	assert.Empty(t, s.Faces())
	assert.Equal(t, 0, s.Len())
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[0].Level)
}

func TestNewStoreLayers(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := wmOptions(logger)
	opts.MaxZoom = 1
	opts.IndexMaxZoom = 1

	pois := geojson.NewFeatureCollection()
	pois.Append(geojson.NewFeature(orb.Point{90, 45}))
	roads := geojson.NewFeatureCollection()
	roads.Append(geojson.NewFeature(orb.LineString{{80, 45}, {100, 45}}))

	s := NewLayeredStore(map[string]*geojson.FeatureCollection{"pois": pois, "roads": roads}, opts)
	tl, ok := s.GetTile(cell.FromZXY(1, 1, 0))
	require.True(t, ok)
	assert.Equal(t, []string{"pois", "roads"}, tl.LayerNames())
	assert.Len(t, tl.Layers["pois"].Features, 1)
	assert.Len(t, tl.Layers["roads"].Features, 1)

	single := NewStore(pois, opts)
	tl, ok = single.GetTile(cell.FromZXY(1, 1, 0))
	require.True(t, ok)
	assert.Equal(t, []string{DefaultLayer}, tl.LayerNames())
}

func TestSphereStore(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := DefaultOptions()
	opts.Logger = logger
	opts.MaxZoom = 6
	opts.IndexMaxZoom = 1

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{10, 10}))
	s := NewStore(fc, opts)
	assert.Equal(t, []uint8{0}, s.Faces())

	want := cell.FromS2(s2.CellIDFromLatLng(s2.LatLngFromDegrees(10, 10)).Parent(3))
	tl, ok := s.GetTile(want)
	require.True(t, ok)
	assert.True(t, tl.Transformed)
	assert.Equal(t, 1, tl.Len())
	assert.Equal(t, uint8(0), tl.Layers[DefaultLayer].Features[0].Face)
}

func TestStoreUnitExtent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := wmOptions(logger)
	opts.Extent = 0
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, opts)
	assert.Equal(t, 1.0, s.Options().Extent)

	tl, ok := s.GetTile(cell.FromZXY(2, 1, 2))
	require.True(t, ok)
	p := tl.Layers[DefaultLayer].Features[0].Geometry.(geometry.VectorPoint)
	// round(0.3*4 - 1), round(0.7*4 - 2)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 1.0, p.Y)
}

func TestAddFeatureKeepsCallerGeometry(t *testing.T) {
	logger, _ := test.NewNullLogger()
	line := geometry.VectorLineString{{X: 0.1, Y: 0.1, T: 1}, {X: 0.2, Y: 0.2, T: 1}}
	f := &geometry.VectorFeature{Geometry: line}
	s := NewStoreFromFeatures([]*geometry.VectorFeature{f}, wmOptions(logger))
	_, ok := s.GetTile(cell.FromZXY(2, 0, 0))
	require.True(t, ok)
	assert.Equal(t, 0.1, line[0].X)
}

func TestAddFeatureAfterSplit(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, wmOptions(logger))
	root, ok := s.GetTile(cell.FromZXY(0, 0, 0))
	require.True(t, ok)
	require.True(t, root.Transformed)

	assert.False(t, s.AddFeature(pointFeature(0.6, 0.2)))
	assert.Equal(t, 1, root.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// a root that is not split yet still takes features
	opts := wmOptions(logger)
	opts.IndexMaxZoom = 0
	lazy := NewStoreFromFeatures([]*geometry.VectorFeature{pointFeature(0.3, 0.7)}, opts)
	assert.True(t, lazy.AddFeature(pointFeature(0.6, 0.2)))
	tl, ok := lazy.GetTile(cell.FromZXY(1, 1, 0))
	require.True(t, ok)
	assert.Equal(t, 1, tl.Len())
}
