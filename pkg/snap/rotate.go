package snap

import (
	"math"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
)

// edgeLengthTolerance is how far two edge lengths may differ and still
// count as the same edge.
const edgeLengthTolerance = 0.5

// SectionEdges returns the four cross-section edges of a piece with the
// given size and rotation, as laid at start: two along local X of length
// Width, two along local Z of length Height.
func SectionEdges(size lumber.Size, start geom.Vec3, rot geom.Quat) [4]lumber.Edge {
	x := geom.Normalize(geom.ApplyQuaternion(geom.UnitX, rot))
	z := geom.Normalize(geom.ApplyQuaternion(geom.UnitZ, rot))
	hx := x.Scale(size.Width / 2)
	hz := z.Scale(size.Height / 2)

	c0 := start.Sub(hx).Sub(hz)
	c1 := start.Add(hx).Sub(hz)
	c2 := start.Add(hx).Add(hz)
	c3 := start.Sub(hx).Add(hz)
	return [4]lumber.Edge{
		{Start: c0, End: c1, Length: size.Width, Direction: x},
		{Start: c1, End: c2, Length: size.Height, Direction: z},
		{Start: c2, End: c3, Length: size.Width, Direction: x.Neg()},
		{Start: c3, End: c0, Length: size.Height, Direction: z.Neg()},
	}
}

func countMatches(candidate [4]lumber.Edge, target [4]lumber.Edge) int {
	n := 0
	for _, c := range candidate {
		for _, e := range target {
			if math.Abs(c.Direction.Dot(e.Direction)) > parallelDot &&
				math.Abs(c.Length-e.Length) <= edgeLengthTolerance {
				n++
			}
		}
	}
	return n
}

// ShouldRotate90Degrees decides whether a new piece of the given size,
// starting at start on target with orientation base, lines its
// cross-section edges up with target's edges better after a quarter turn
// about its own long axis. Equal scores keep the unrotated orientation.
//
// An edge pair only scores when the directions are parallel (|dot| > 0.99)
// and the lengths agree within edgeLengthTolerance. Direction alone always
// ties on axis-aligned faces, since both candidates have edges along both
// in-plane axes.
func ShouldRotate90Degrees(size lumber.Size, target lumber.Face, start geom.Vec3, base geom.Quat) bool {
	long := geom.Normalize(geom.ApplyQuaternion(geom.UnitY, base))
	twisted := geom.RotateAroundAxis90(base, long)

	plain := countMatches(SectionEdges(size, start, base), target.Edges)
	turned := countMatches(SectionEdges(size, start, twisted), target.Edges)
	return turned > plain
}

// AlignToFace returns the orientation for a new piece starting on f: long
// axis along the face normal, width along the face's WidthDir, twisted a
// quarter turn when that lines the edges up better.
func AlignToFace(size lumber.Size, f lumber.Face, start geom.Vec3) geom.Quat {
	base := geom.RotationFromNormalAndUp(f.Normal, f.WidthDir)
	if ShouldRotate90Degrees(size, f, start, base) {
		return geom.RotateAroundAxis90(base, geom.Normalize(f.Normal))
	}
	return base
}
