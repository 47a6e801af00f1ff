// Package clip cuts unit square features to tile bounds.
package clip

import (
	"math"

	"github.com/paulmach/orb"
	orbclip "github.com/paulmach/orb/clip"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/geometry"
	"github.com/RoninZc/tiler/simplify"
)

// Child payload of one quadrant
type Child struct {
	ID       cell.ID
	Features []*geometry.VectorFeature
}

// Bound unit square footprint of (level, i, j) grown by buffer pixels on
// every side.
func Bound(level int, i, j uint32, buffer float64) orb.Bound {
	size := 1 / math.Exp2(float64(level))
	k := buffer / simplify.Extent
	return orb.Bound{
		Min: orb.Point{(float64(i) - k) * size, (float64(j) - k) * size},
		Max: orb.Point{(float64(i) + 1 + k) * size, (float64(j) + 1 + k) * size},
	}
}

// Feature clips f to b, keeping z, m-values and importance of surviving
// vertices. Returns nil when nothing is left.
func Feature(f *geometry.VectorFeature, b orb.Bound) *geometry.VectorFeature {
	g := geometry.ToOrb(f.Geometry)
	if g == nil {
		return nil
	}
	clipped := orbclip.Geometry(b, g)
	if clipped == nil {
		return nil
	}
	vg := geometry.IndexVertices(f.Geometry).FromOrb(clipped)
	if vg == nil {
		return nil
	}
	return f.WithGeometry(vg)
}

// Split divides the features of tile id into its four children, in
// ChildrenIJ order. Every child is returned, possibly with no features.
func Split(id cell.ID, features []*geometry.VectorFeature, buffer float64) [4]Child {
	face, level, i, j := id.ToFaceIJ()
	ids := cell.ChildrenIJ(id.Projection(), face, level, i, j)

	var out [4]Child
	for n, cid := range ids {
		ci, cj := i<<1|uint32(n&1), j<<1|uint32(n>>1)
		b := Bound(level+1, ci, cj, buffer)
		out[n].ID = cid
		for _, f := range features {
			if c := Feature(f, b); c != nil {
				out[n].Features = append(out[n].Features, c)
			}
		}
	}
	return out
}
