// Package kernel is the solid-modeling boundary. The sdfx implementation
// turns lumber pieces into triangle meshes for the viewport; nothing else
// in the system depends on a particular backend.
package kernel

import "github.com/chazu/lumberyard/pkg/geom"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	BoundingBox() (min, max geom.Vec3)
}

// Kernel builds and meshes solids. Lengths are millimeters.
type Kernel interface {
	// Box is centered on the origin.
	Box(size geom.Vec3) Solid
	// Cylinder runs along Z, centered on the origin.
	Cylinder(height, radius float64) Solid

	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	Translate(s Solid, v geom.Vec3) Solid
	Rotate(s Solid, euler geom.Vec3) Solid // degrees about X, then Y, then Z
	RotateAxis(s Solid, axis geom.Vec3, radians float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}

// Orient rotates s by q, which must be unit length.
func Orient(k Kernel, s Solid, q geom.Quat) Solid {
	axis, angle := q.ToAxisAngle()
	if angle == 0 {
		return s
	}
	return k.RotateAxis(s, axis, angle)
}
