// Package sdfx implements kernel.Kernel on top of github.com/deadsy/sdfx.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/kernel"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultCells is the marching cubes resolution along a solid's longest
// side.
const DefaultCells = 200

type solid struct {
	s sdf.SDF3
}

func (s *solid) BoundingBox() (min, max geom.Vec3) {
	bb := s.s.BoundingBox()
	return fromVec(bb.Min), fromVec(bb.Max)
}

func toVec(v geom.Vec3) v3.Vec   { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromVec(v v3.Vec) geom.Vec3 { return geom.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

func unwrap(s kernel.Solid) sdf.SDF3 { return s.(*solid).s }
func wrap(s sdf.SDF3) kernel.Solid   { return &solid{s: s} }

// Kernel meshes solids with uniform marching cubes.
type Kernel struct {
	cells int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithCells sets the marching cubes resolution. Values below 1 keep the
// default.
func WithCells(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

func New(opts ...Option) *Kernel {
	k := &Kernel{cells: DefaultCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Cells is the configured resolution.
func (k *Kernel) Cells() int { return k.cells }

// Box panics on a non-positive size, as sdf.Box3D rejects it.
func (k *Kernel) Box(size geom.Vec3) kernel.Solid {
	s, err := sdf.Box3D(toVec(size), 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(s)
}

func (k *Kernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Translate(s kernel.Solid, v geom.Vec3) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(toVec(v))))
}

func (k *Kernel) Rotate(s kernel.Solid, euler geom.Vec3) kernel.Solid {
	rad := euler.Scale(math.Pi / 180)
	m := sdf.RotateZ(rad.Z).Mul(sdf.RotateY(rad.Y)).Mul(sdf.RotateX(rad.X))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

func (k *Kernel) RotateAxis(s kernel.Solid, axis geom.Vec3, radians float64) kernel.Solid {
	m := sdf.Rotate3d(toVec(geom.Normalize(axis)), radians)
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh runs marching cubes and emits flat-shaded, unindexed triangles.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	triangles := render.ToTriangles(unwrap(s), render.NewMarchingCubesUniform(k.cells))
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: solid produced no triangles at %d cells", k.cells)
	}

	n := len(triangles) * 3
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, n*3),
		Normals:  make([]float32, 0, n*3),
		Indices:  make([]uint32, 0, n),
	}
	for i, tri := range triangles {
		nv := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(nv.X), float32(nv.Y), float32(nv.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}
