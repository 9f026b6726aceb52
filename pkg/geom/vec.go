package geom

import (
	"fmt"
	"math"
)

// Axis names one of the three world axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// MarshalText encodes the axis as "x", "y" or "z".
func (a Axis) MarshalText() ([]byte, error) {
	switch a {
	case AxisX, AxisY, AxisZ:
		return []byte(a.String()), nil
	}
	return nil, fmt.Errorf("geom: invalid axis %d", int(a))
}

// UnmarshalText parses "x", "y" or "z".
func (a *Axis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("geom: invalid axis %q", string(b))
	}
	return nil
}

// Unit returns the world unit vector along a.
func (a Axis) Unit() Vec3 {
	switch a {
	case AxisY:
		return Vec3{Y: 1}
	case AxisZ:
		return Vec3{Z: 1}
	default:
		return Vec3{X: 1}
	}
}

// Axes lists the world axes in tie-break order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// Vec3 is a point or direction in millimeters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var (
	Zero    = Vec3{}
	UnitX   = Vec3{X: 1}
	UnitY   = Vec3{Y: 1}
	UnitZ   = Vec3{Z: 1}
	WorldUp = UnitY
)

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Component returns the coordinate along axis a.
func (v Vec3) Component(a Axis) float64 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	default:
		return v.X
	}
}

// With returns a copy of v with the coordinate along a replaced by value.
func (v Vec3) With(a Axis, value float64) Vec3 {
	switch a {
	case AxisY:
		v.Y = value
	case AxisZ:
		v.Z = value
	default:
		v.X = value
	}
	return v
}

// DominantAxis returns the axis with the largest absolute component.
// Ties resolve X before Y before Z.
func (v Vec3) DominantAxis() Axis {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	if ax >= ay && ax >= az {
		return AxisX
	}
	if ay >= az {
		return AxisY
	}
	return AxisZ
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Normalize returns v scaled to unit length. A zero-length input yields the
// zero vector.
func Normalize(v Vec3) Vec3 {
	l := v.Length()
	if l == 0 {
		return Zero
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Dot is the scalar product of a and b.
func Dot(a, b Vec3) float64 { return a.Dot(b) }

// Cross is the vector product a × b.
func Cross(a, b Vec3) Vec3 { return a.Cross(b) }

// Distance is the Euclidean distance between two points.
func Distance(a, b Vec3) float64 { return a.Sub(b).Length() }

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec3) Vec3 {
	return Vec3{(a.X + b.X) / 2, (a.Y + b.Y) / 2, (a.Z + b.Z) / 2}
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}
