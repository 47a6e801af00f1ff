package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) VectorLineString {
	return VectorLineString{
		NewPoint(x0, y0), NewPoint(x1, y0), NewPoint(x1, y1), NewPoint(x0, y1), NewPoint(x0, y0),
	}
}

func TestEachLine(t *testing.T) {
	type call struct {
		n              int
		polygon, outer bool
	}
	var calls []call
	g := VectorMultiPolygon{
		{square(0, 0, 1, 1), square(0.2, 0.2, 0.4, 0.4)},
		{square(2, 2, 3, 3)},
	}
	EachLine(g, func(l VectorLineString, polygon, outer bool) {
		calls = append(calls, call{len(l), polygon, outer})
	})
	assert.Equal(t, []call{{5, true, true}, {5, true, false}, {5, true, true}}, calls)

	calls = nil
	EachLine(VectorMultiLineString{{NewPoint(0, 0), NewPoint(1, 1)}}, func(l VectorLineString, polygon, outer bool) {
		calls = append(calls, call{len(l), polygon, outer})
	})
	assert.Equal(t, []call{{2, false, false}}, calls)

	EachLine(NewPoint(0, 0), func(VectorLineString, bool, bool) { t.Fatal("points have no lines") })
}

func TestEachPointEditsInPlace(t *testing.T) {
	p := EachPoint(NewPoint(1, 2), func(p *VectorPoint) { p.X *= 10 })
	assert.Equal(t, 10.0, p.(VectorPoint).X)

	line := VectorLineString{NewPoint(1, 1), NewPoint(2, 2)}
	EachPoint(line, func(p *VectorPoint) { p.Y = 0 })
	assert.Equal(t, 0.0, line[1].Y)
}

func TestClone(t *testing.T) {
	poly := VectorPolygon{square(0, 0, 1, 1)}
	c := Clone(VectorMultiPolygon{poly}).(VectorMultiPolygon)
	c[0][0][0].X = 9
	assert.Equal(t, 0.0, poly[0][0].X)

	p := NewPoint(1, 1)
	assert.Equal(t, p, Clone(p))
}

func TestOrbRoundTripKeepsAttributes(t *testing.T) {
	z := 3.0
	line := VectorLineString{
		{X: 0, Y: 0, Z: &z, T: 1},
		{X: 1, Y: 0, M: Properties{"speed": 4}, T: 0.25},
		{X: 1, Y: 1, T: 1},
	}
	og := ToOrb(line)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}, {1, 1}}, og)

	back := IndexVertices(line).FromOrb(orb.LineString{{0, 0}, {1, 0}, {0.5, 0.5}}).(VectorLineString)
	require.Len(t, back, 3)
	assert.Same(t, &z, back[0].Z)
	assert.Equal(t, 4, back[1].M["speed"])
	assert.Equal(t, 0.25, back[1].T)
	assert.Equal(t, 1.0, back[2].T)
}

func TestIndexVerticesKeepsHighestImportance(t *testing.T) {
	ring := VectorLineString{{X: 0, Y: 0, T: 0.1}, {X: 1, Y: 0, T: 1}, {X: 0, Y: 1, T: 1}, {X: 0, Y: 0, T: 1}}
	idx := IndexVertices(VectorPolygon{ring})
	assert.Equal(t, 1.0, idx[orb.Point{0, 0}].T)

	g := idx.FromOrb(orb.Ring{{0, 0}, {1, 0}, {0, 1}, {0, 0}})
	poly, ok := g.(VectorPolygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 4)
	assert.Nil(t, idx.FromOrb(orb.Bound{}))
}

func TestLayerName(t *testing.T) {
	f := &VectorFeature{}
	_, ok := f.LayerName()
	assert.False(t, ok)

	f.Metadata = LayerMetadata{Name: "roads"}
	name, ok := f.LayerName()
	assert.True(t, ok)
	assert.Equal(t, "roads", name)

	c := f.WithGeometry(NewPoint(1, 1))
	assert.Equal(t, "roads", c.Metadata.(LayerMetadata).Name)
	assert.Nil(t, f.Geometry)
}
