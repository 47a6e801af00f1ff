// Package cell defines the tile address shared by the two quadtree schemes:
// the flat web mercator quadtree and the six-face cube-sphere quadtree.
package cell

import (
	"fmt"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
)

// Projection selects the addressing scheme.
type Projection uint8

const (
	// WM flat web mercator quadtree, one implicit face
	WM Projection = iota
	// S2 cube-sphere quadtree, six faces
	S2
)

// MaxFaces upper bound of face roots for any projection
const MaxFaces = 6

func (p Projection) String() string {
	switch p {
	case WM:
		return "WM"
	case S2:
		return "S2"
	}
	return fmt.Sprintf("Projection(%d)", uint8(p))
}

// Faces number of face roots in the projection
func (p Projection) Faces() int {
	if p == S2 {
		return MaxFaces
	}
	return 1
}

// ParseProjection parses "WM" or "S2", case insensitive.
func ParseProjection(s string) (Projection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WM", "WEBMERCATOR", "EPSG:3857":
		return WM, nil
	case "S2", "":
		return S2, nil
	}
	return 0, errors.Errorf("unsupported projection %q", s)
}

// ID addresses one node of either quadtree. The zero value is the flat root.
// IDs are comparable and usable as map keys; Less gives the total order.
type ID struct {
	proj Projection
	v    uint64
}

// FromFace returns the root node of face.
func FromFace(p Projection, face uint8) ID {
	if p == S2 {
		return FromS2(s2.CellIDFromFace(int(face)))
	}
	return ID{proj: WM, v: encode(0, 0, 0)}
}

// FromFaceIJ builds the node at (face, level, i, j).
func FromFaceIJ(p Projection, face uint8, level int, i, j uint32) ID {
	if p == S2 {
		return ID{proj: S2, v: uint64(sphereFromFaceIJ(face, level, i, j))}
	}
	return FromZXY(uint8(level), i, j)
}

// ChildrenIJ returns the four nodes under (face, level, i, j) in the order
// (2i,2j), (2i+1,2j), (2i,2j+1), (2i+1,2j+1).
func ChildrenIJ(p Projection, face uint8, level int, i, j uint32) [4]ID {
	ci, cj := i<<1, j<<1
	l := level + 1
	return [4]ID{
		FromFaceIJ(p, face, l, ci, cj),
		FromFaceIJ(p, face, l, ci+1, cj),
		FromFaceIJ(p, face, l, ci, cj+1),
		FromFaceIJ(p, face, l, ci+1, cj+1),
	}
}

// Projection scheme of the id
func (id ID) Projection() Projection { return id.proj }

// Raw packed 64 bit value
func (id ID) Raw() uint64 { return id.v }

// Level zoom depth, 0 for a face root.
func (id ID) Level() int {
	if id.proj == S2 {
		return s2.CellID(id.v).Level()
	}
	return int(id.v >> zoomShift)
}

// Face index, always 0 for the flat scheme.
func (id ID) Face() uint8 {
	if id.proj == S2 {
		return uint8(s2.CellID(id.v).Face())
	}
	return 0
}

// IsFace reports whether id is a face root (level 0).
func (id ID) IsFace() bool {
	return id.Level() == 0
}

// Parent returns the node one level up. A face root is its own parent.
func (id ID) Parent() ID {
	if id.IsFace() {
		return id
	}
	if id.proj == S2 {
		c := s2.CellID(id.v)
		return FromS2(c.Parent(c.Level() - 1))
	}
	z, x, y := decode(id.v)
	return ID{proj: WM, v: encode(z-1, x>>1, y>>1)}
}

// ParentAt walks up until level is reached. Levels at or below the
// current one return id unchanged.
func (id ID) ParentAt(level int) ID {
	if level < 0 {
		level = 0
	}
	if level >= id.Level() {
		return id
	}
	if id.proj == S2 {
		return FromS2(s2.CellID(id.v).Parent(level))
	}
	z, x, y := decode(id.v)
	diff := z - uint8(level)
	return ID{proj: WM, v: encode(uint8(level), x>>diff, y>>diff)}
}

// Contains reports whether other is id or one of its descendants.
func (id ID) Contains(other ID) bool {
	if id.proj != other.proj {
		return false
	}
	if id.proj == S2 {
		return s2.CellID(id.v).Contains(s2.CellID(other.v))
	}
	return quadContains(id.v, other.v)
}

// Children returns the four nodes one level deeper. The flat scheme uses
// the ChildrenIJ order, the cube-sphere scheme its curve order.
func (id ID) Children() [4]ID {
	if id.proj == S2 {
		cs := s2.CellID(id.v).Children()
		return [4]ID{FromS2(cs[0]), FromS2(cs[1]), FromS2(cs[2]), FromS2(cs[3])}
	}
	z, x, y := decode(id.v)
	return ChildrenIJ(WM, 0, int(z), x, y)
}

// ToFaceIJ returns face, level and grid coordinates. With a level argument
// shallower than the id, the id is first walked up to that level.
func (id ID) ToFaceIJ(level ...int) (face uint8, zoom int, i, j uint32) {
	n := id
	if len(level) > 0 && level[0] < id.Level() {
		n = id.ParentAt(level[0])
	}
	if n.proj == S2 {
		f, l, i, j := sphereFaceIJ(s2.CellID(n.v))
		return f, l, i, j
	}
	z, x, y := decode(n.v)
	return 0, int(z), x, y
}

// Less total order: projection first, then packed value.
func (id ID) Less(other ID) bool {
	if id.proj != other.proj {
		return id.proj < other.proj
	}
	return id.v < other.v
}

func (id ID) String() string {
	if id.proj == S2 {
		return "s2/" + s2.CellID(id.v).ToToken()
	}
	z, x, y := decode(id.v)
	return fmt.Sprintf("wm/%d/%d/%d", z, x, y)
}
