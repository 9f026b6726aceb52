package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// degenerateEpsilon is the norm below which a constructed quaternion is
// treated as undefined and replaced by FlipX.
const degenerateEpsilon = 1e-4

// Quat is a rotation from the canonical lumber frame (local Y = long axis,
// local X = width, local Z = height) to world orientation.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

var (
	// IdentityQuat maps local axes onto the identical world axes.
	IdentityQuat = Quat{W: 1}

	// FlipX is the 180° rotation about X used when a rotation cannot be
	// constructed (anti-parallel vectors, zero norm).
	FlipX = Quat{X: 1}
)

func (q Quat) String() string {
	return fmt.Sprintf("quat(%.4f, %.4f, %.4f, %.4f)", q.X, q.Y, q.Z, q.W)
}

func (q Quat) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quat {
	return Quat{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Norm returns the quaternion magnitude.
func (q Quat) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit norm. Near-zero quaternions fall back
// to FlipX.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	if n < degenerateEpsilon {
		return FlipX
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

// IsUnit reports whether |q| is 1 within eps.
func (q Quat) IsUnit(eps float64) bool {
	return math.Abs(q.Norm()-1) <= eps
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return fromNumber(quat.Conj(q.number()))
}

// Mul returns the Hamilton product q·r, i.e. r applied first, then q.
func (q Quat) Mul(r Quat) Quat {
	return fromNumber(quat.Mul(q.number(), r.number()))
}

// ApproxEqual compares component-wise, treating q and -q as the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	same := math.Abs(q.X-r.X) <= eps && math.Abs(q.Y-r.Y) <= eps &&
		math.Abs(q.Z-r.Z) <= eps && math.Abs(q.W-r.W) <= eps
	flipped := math.Abs(q.X+r.X) <= eps && math.Abs(q.Y+r.Y) <= eps &&
		math.Abs(q.Z+r.Z) <= eps && math.Abs(q.W+r.W) <= eps
	return same || flipped
}

// AxisAngle returns the rotation of angle radians about axis. The axis is
// normalized first; a zero axis yields the identity.
func AxisAngle(axis Vec3, angle float64) Quat {
	a := Normalize(axis)
	if a.IsZero() {
		return IdentityQuat
	}
	s := math.Sin(angle / 2)
	return Quat{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(angle / 2)}
}

// ToAxisAngle decomposes a unit quaternion. The identity returns the Y axis
// and a zero angle.
func (q Quat) ToAxisAngle() (Vec3, float64) {
	if q.W < 0 {
		q = Quat{-q.X, -q.Y, -q.Z, -q.W}
	}
	w := Clamp(q.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return UnitY, 0
	}
	return Vec3{q.X / s, q.Y / s, q.Z / s}, angle
}

// ApplyQuaternion rotates v by q as q·v·q⁻¹. q must already be unit length.
func ApplyQuaternion(v Vec3, q Quat) Vec3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	n := q.number()
	r := quat.Mul(quat.Mul(n, p), quat.Conj(n))
	return Vec3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// RotationBetween returns the quaternion rotating unit vector from onto unit
// vector to, built from the half-angle cross/dot form. Anti-parallel inputs
// have no unique answer and return FlipX.
func RotationBetween(from, to Vec3) Quat {
	c := from.Cross(to)
	w := 1 + from.Dot(to)
	norm := math.Sqrt(c.X*c.X + c.Y*c.Y + c.Z*c.Z + w*w)
	if norm < degenerateEpsilon {
		return FlipX
	}
	return Quat{X: c.X / norm, Y: c.Y / norm, Z: c.Z / norm, W: w / norm}
}

// RotateAroundAxis90 composes q with a quarter turn about the world-space
// unit axis. Used for the edge-alignment twist about a piece's long axis.
func RotateAroundAxis90(q Quat, axis Vec3) Quat {
	return AxisAngle(axis, math.Pi/2).Mul(q).Normalize()
}

// RotationFromNormalAndUp builds the orientation whose local Y is normal and
// whose local Z is normalize(up × normal); local X completes the right-handed
// frame. When up is parallel to normal a world axis is substituted as the up
// hint.
func RotationFromNormalAndUp(normal, up Vec3) Quat {
	y := Normalize(normal)
	z := Normalize(up.Cross(y))
	if z.IsZero() {
		hint := UnitX
		if math.Abs(y.X) > 0.99 {
			hint = UnitZ
		}
		z = Normalize(hint.Cross(y))
	}
	x := Normalize(y.Cross(z))
	return quatFromBasis(x, y, z)
}

// quatFromBasis converts the rotation matrix with columns x, y, z into a
// quaternion, branching on the largest diagonal term for stability near 180°.
func quatFromBasis(x, y, z Vec3) Quat {
	m11, m12, m13 := x.X, y.X, z.X
	m21, m22, m23 := x.Y, y.Y, z.Y
	m31, m32, m33 := x.Z, y.Z, z.Z

	trace := m11 + m22 + m33
	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quat{
			W: 0.25 / s,
			X: (m32 - m23) * s,
			Y: (m13 - m31) * s,
			Z: (m21 - m12) * s,
		}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		q = Quat{
			W: (m32 - m23) / s,
			X: 0.25 * s,
			Y: (m12 + m21) / s,
			Z: (m13 + m31) / s,
		}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		q = Quat{
			W: (m13 - m31) / s,
			X: (m12 + m21) / s,
			Y: 0.25 * s,
			Z: (m23 + m32) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		q = Quat{
			W: (m21 - m12) / s,
			X: (m13 + m31) / s,
			Y: (m23 + m32) / s,
			Z: 0.25 * s,
		}
	}
	return q.Normalize()
}
