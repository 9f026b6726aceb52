package geom

import "math"

// parallelEpsilon bounds the ray/line determinant below which the two are
// treated as parallel.
const parallelEpsilon = 1e-9

// Ray is a half-line in world space. Direction need not be unit length.
type Ray struct {
	Origin    Vec3 `json:"origin"`
	Direction Vec3 `json:"direction"`
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlane returns where r meets the plane through point with the given
// normal. ok is false when the ray is parallel to the plane or the plane lies
// behind the origin.
func IntersectPlane(r Ray, point, normal Vec3) (hit Vec3, t float64, ok bool) {
	denom := normal.Dot(r.Direction)
	if math.Abs(denom) < parallelEpsilon {
		return Vec3{}, 0, false
	}
	t = normal.Dot(point.Sub(r.Origin)) / denom
	if t < 0 {
		return Vec3{}, 0, false
	}
	return r.At(t), t, true
}

// ClosestPointRayLine returns the point on the infinite line through
// linePoint along lineDir that is nearest to r, and the gap between that
// point and the ray. When the ray and line are parallel the ray origin is
// projected onto the line instead. A zero lineDir yields linePoint.
func ClosestPointRayLine(r Ray, linePoint, lineDir Vec3) (Vec3, float64) {
	u := r.Direction
	v := lineDir
	w0 := r.Origin.Sub(linePoint)

	a := u.Dot(u)
	b := u.Dot(v)
	c := v.Dot(v)
	d := u.Dot(w0)
	e := v.Dot(w0)

	if c < parallelEpsilon {
		return linePoint, Distance(r.Origin, linePoint)
	}

	var sc, tc float64
	denom := a*c - b*b
	if math.Abs(denom) < parallelEpsilon*a*c || a < parallelEpsilon {
		sc = 0
		tc = e / c
	} else {
		sc = (b*e - c*d) / denom
		tc = (a*e - b*d) / denom
		if sc < 0 {
			sc = 0
			tc = e / c
		}
	}

	onLine := linePoint.Add(v.Scale(tc))
	onRay := r.At(sc)
	return onLine, Distance(onLine, onRay)
}
