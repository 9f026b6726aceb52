// Package snap refines cursor positions against the grid, world axes and
// the faces of placed pieces. Every function is pure.
package snap

import (
	"math"

	"github.com/chazu/lumberyard/pkg/geom"
)

func round(x, g float64) float64 {
	return math.Floor(x/g+0.5) * g
}

// ToGrid rounds each coordinate of p to the nearest multiple of g.
// A non-positive g leaves p unchanged.
func ToGrid(p geom.Vec3, g float64) geom.Vec3 {
	if g <= 0 {
		return p
	}
	return geom.Vec3{X: round(p.X, g), Y: round(p.Y, g), Z: round(p.Z, g)}
}

// ToGridWithThreshold snaps each axis independently, only when the grid
// line lies within threshold millimeters.
func ToGridWithThreshold(p geom.Vec3, g, threshold float64) geom.Vec3 {
	if g <= 0 {
		return p
	}
	out := p
	for _, a := range geom.Axes {
		v := p.Component(a)
		s := round(v, g)
		if math.Abs(v-s) <= threshold {
			out = out.With(a, s)
		}
	}
	return out
}

// ToAxisWithFaceSnap constrains end to differ from start along one axis
// only: faceAxis when set, else the axis of largest displacement with ties
// resolved X, then Y, then Z.
func ToAxisWithFaceSnap(start, end geom.Vec3, faceAxis *geom.Axis) geom.Vec3 {
	axis := end.Sub(start).DominantAxis()
	if faceAxis != nil {
		axis = *faceAxis
	}
	return start.With(axis, end.Component(axis))
}

// Scalar rounds a single length to the nearest multiple of g.
func Scalar(v, g float64) float64 {
	if g <= 0 {
		return v
	}
	return round(v, g)
}
