package cell

import (
	"math"

	"github.com/golang/geo/s2"
)

// FromS2 wraps a cube-sphere cell.
func FromS2(c s2.CellID) ID {
	return ID{proj: S2, v: uint64(c)}
}

// S2 unwraps a cube-sphere id.
func (id ID) S2() s2.CellID {
	return s2.CellID(id.v)
}

// axis and sign of each face normal: +x, +y, +z, -x, -y, -z
var faceAxis = [MaxFaces]struct {
	axis int
	sign float64
}{{0, 1}, {1, 1}, {2, 1}, {0, -1}, {1, -1}, {2, -1}}

func faceUVToXYZ(face uint8, u, v float64) (x, y, z float64) {
	switch face {
	case 0:
		return 1, u, v
	case 1:
		return -u, 1, v
	case 2:
		return -u, -v, 1
	case 3:
		return -1, -v, -u
	case 4:
		return v, -1, -u
	default:
		return v, u, -1
	}
}

// minAxis keeps points behind a face projectable; they land far outside
// [0,1] and are removed by clipping.
const minAxis = 1e-9

func faceXYZToUV(face uint8, x, y, z float64) (u, v float64) {
	c := [3]float64{x, y, z}
	fa := faceAxis[face]
	if c[fa.axis]*fa.sign < minAxis {
		c[fa.axis] = fa.sign * minAxis
	}
	x, y, z = c[0], c[1], c[2]
	switch face {
	case 0:
		return y / x, z / x
	case 1:
		return -x / y, z / y
	case 2:
		return -x / z, -y / z
	case 3:
		return z / x, y / x
	case 4:
		return z / y, -x / y
	default:
		return -y / z, -x / z
	}
}

func stToUV(s float64) float64 {
	if s >= 0.5 {
		return (1.0 / 3.0) * (4*s*s - 1)
	}
	return (1.0 / 3.0) * (1 - 4*(1-s)*(1-s))
}

func uvToST(u float64) float64 {
	if u >= 0 {
		return 0.5 * math.Sqrt(1+3*u)
	}
	return 1 - 0.5*math.Sqrt(1-3*u)
}

// FaceST projects a sphere point onto face, returning face-local unit
// square coordinates. Points off the face map outside [0,1].
func FaceST(face uint8, p s2.Point) (s, t float64) {
	u, v := faceXYZToUV(face, p.X, p.Y, p.Z)
	return uvToST(u), uvToST(v)
}

// FaceOf returns the face containing p.
func FaceOf(p s2.Point) uint8 {
	return uint8(leafOf(p).Face())
}

func sphereFromFaceIJ(face uint8, level int, i, j uint32) s2.CellID {
	n := float64(uint64(1) << uint(level))
	u := stToUV((float64(i) + 0.5) / n)
	v := stToUV((float64(j) + 0.5) / n)
	x, y, z := faceUVToXYZ(face, u, v)
	return leafOf(s2.PointFromCoords(x, y, z)).Parent(level)
}

func leafOf(p s2.Point) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromPoint(p))
}

func sphereFaceIJ(c s2.CellID) (face uint8, level int, i, j uint32) {
	face = uint8(c.Face())
	level = c.Level()
	s, t := FaceST(face, c.Point())
	n := float64(uint64(1) << uint(level))
	return face, level, clampIJ(s*n, n), clampIJ(t*n, n)
}

func clampIJ(f, n float64) uint32 {
	f = math.Floor(f)
	if f < 0 {
		return 0
	}
	if f > n-1 {
		return uint32(n - 1)
	}
	return uint32(f)
}
