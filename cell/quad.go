package cell

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// 6 bits zoom | 29 bits x | 29 bits y
const (
	coordBits = 29
	coordMask = 1<<coordBits - 1
	zoomShift = 2 * coordBits

	// MaxQuadZoom deepest level the packed flat id can hold
	MaxQuadZoom = 29
)

func encode(z uint8, x, y uint32) uint64 {
	return uint64(z)<<zoomShift | (uint64(x)&coordMask)<<coordBits | uint64(y)&coordMask
}

func decode(v uint64) (z uint8, x, y uint32) {
	return uint8(v >> zoomShift), uint32(v >> coordBits & coordMask), uint32(v & coordMask)
}

// FromZXY packs a flat quadtree node. x and y must be inside the zoom's grid.
func FromZXY(z uint8, x, y uint32) ID {
	if z >= MaxQuadZoom+1 {
		panic(fmt.Sprintf("cell: zoom %d out of range", z))
	}
	if n := uint64(1) << z; uint64(x) >= n || uint64(y) >= n {
		panic(fmt.Sprintf("cell: tile %d/%d/%d out of range", z, x, y))
	}
	return ID{proj: WM, v: encode(z, x, y)}
}

// FromMaptile converts an orb tile address.
func FromMaptile(t maptile.Tile) ID {
	return FromZXY(uint8(t.Z), t.X, t.Y)
}

// ZXY unpacks a flat id.
func (id ID) ZXY() (z uint8, x, y uint32) {
	return decode(id.v)
}

// Maptile flat id as an orb tile address.
func (id ID) Maptile() maptile.Tile {
	z, x, y := decode(id.v)
	return maptile.New(x, y, maptile.Zoom(z))
}

func quadContains(a, b uint64) bool {
	az, ax, ay := decode(a)
	bz, bx, by := decode(b)
	if az > bz {
		return false
	}
	diff := bz - az
	return ax == bx>>diff && ay == by>>diff
}

// IsOutOfBounds reports x or y outside the zoom's grid, which happens for
// neighbors across the antimeridian of a repeating world.
func (id ID) IsOutOfBounds() bool {
	if id.proj != WM {
		return false
	}
	z, x, y := decode(id.v)
	n := uint64(1) << z
	return uint64(x) >= n || uint64(y) >= n
}

// Wrapped folds an out of bounds id back onto the canonical grid.
func (id ID) Wrapped() ID {
	if id.proj != WM {
		return id
	}
	z, x, y := decode(id.v)
	n := uint32(1) << z
	return ID{proj: WM, v: encode(z, x%n, y%n)}
}

// Neighbors returns the axis adjacent cells. Horizontal neighbors past the
// grid edge are kept when includeOutOfBounds is set; vertical neighbors are
// never out of bounds and are skipped entirely for an out of bounds cell.
func (id ID) Neighbors(includeOutOfBounds bool) []ID {
	if id.proj != WM {
		return nil
	}
	z, x, y := decode(id.v)
	size := int64(1) << z
	ix, iy := int64(x), int64(y)
	if ix >= size && ix-size >= (coordMask+1-size)/2 {
		// masked negative column, only reachable through Neighbors
		ix -= coordMask + 1
	}
	xOut := ix < 0 || ix >= size

	out := make([]ID, 0, 4)
	for _, dx := range [2]int64{-1, 1} {
		nx := ix + dx
		if (nx < 0 || nx >= size) && !includeOutOfBounds {
			continue
		}
		out = append(out, ID{proj: WM, v: encode(z, uint32(nx), y)})
	}
	if xOut {
		return out
	}
	for _, dy := range [2]int64{-1, 1} {
		ny := iy + dy
		if ny < 0 || ny >= size {
			continue
		}
		out = append(out, ID{proj: WM, v: encode(z, x, uint32(ny))})
	}
	return out
}
