package geom

// SegmentGap is the closest approach between two segments.
type SegmentGap struct {
	Distance float64
	P1       Vec3 // on the first segment
	P2       Vec3 // on the second segment
}

// ClosestPointsBetweenSegments finds the nearest pair of points on segments
// [a0,a1] and [b0,b1]. Degenerate (zero-length) segments act as points.
func ClosestPointsBetweenSegments(a0, a1, b0, b1 Vec3) SegmentGap {
	d1 := a1.Sub(a0)
	d2 := b1.Sub(b0)
	r := a0.Sub(b0)

	a := d1.Dot(d1)
	b := d1.Dot(d2)
	c := d2.Dot(d2)
	d := d1.Dot(r)
	e := d2.Dot(r)

	var s, t float64
	switch {
	case a < parallelEpsilon && c < parallelEpsilon:
		// both points
	case a < parallelEpsilon:
		t = Clamp(e/c, 0, 1)
	case c < parallelEpsilon:
		s = Clamp(-d/a, 0, 1)
	default:
		denom := a*c - b*b
		if denom > parallelEpsilon*a*c {
			s = Clamp((b*e-c*d)/denom, 0, 1)
		}
		t = Clamp((b*s+e)/c, 0, 1)
		s = Clamp((b*t-d)/a, 0, 1)
	}

	p1 := a0.Add(d1.Scale(s))
	p2 := b0.Add(d2.Scale(t))
	return SegmentGap{Distance: Distance(p1, p2), P1: p1, P2: p2}
}
