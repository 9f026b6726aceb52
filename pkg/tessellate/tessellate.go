// Package tessellate turns placed lumber into triangle meshes through a
// geometry kernel, one mesh per piece.
package tessellate

import (
	"fmt"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/kernel"
	"github.com/chazu/lumberyard/pkg/lumber"
)

// Solid builds the kernel solid for one piece: a box of width × length ×
// height in the canonical frame, turned by the stored rotation and moved so
// its centerline starts at Position. The width runs along the rotated local
// X axis and the height along local Z, so a quarter twist from face
// alignment shows in the mesh.
func Solid(k kernel.Kernel, l lumber.Lumber) (kernel.Solid, error) {
	size := l.Size()
	if size == (lumber.Size{}) {
		return nil, fmt.Errorf("lumber %s: %w: %q", l.ID, lumber.ErrUnknownType, l.Type)
	}
	if !(l.Length > 0) {
		return nil, fmt.Errorf("lumber %s: length %.4f must be positive", l.ID, l.Length)
	}
	s := k.Box(geom.Vec3{X: size.Width, Y: l.Length, Z: size.Height})
	s = kernel.Orient(k, s, l.Rotation.Normalize())
	return k.Translate(s, l.Center()), nil
}

// Tessellate meshes every piece in order. It never mutates its input.
func Tessellate(lumbers []lumber.Lumber, k kernel.Kernel) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(lumbers))
	for _, l := range lumbers {
		s, err := Solid(k, l)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %w", err)
		}
		mesh, err := k.ToMesh(s)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for lumber %s: %w", l.ID, err)
		}
		mesh.LumberID = l.ID
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// FaceOutline returns the face's four corners as a flat line loop, lifted
// offset millimeters along the normal so the highlight clears the surface.
func FaceOutline(f lumber.Face, offset float64) []float32 {
	lift := f.Normal.Scale(offset)
	out := make([]float32, 0, len(f.Vertices)*3)
	for _, v := range f.Vertices {
		p := v.Add(lift)
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}
