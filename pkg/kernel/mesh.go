package kernel

import (
	"math"

	"github.com/chazu/lumberyard/pkg/geom"
)

// Mesh is a flat triangle mesh: three floats per vertex and normal, three
// indices per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	LumberID string    `json:"lumberId,omitempty"`
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the extent of the vertices. An empty mesh returns zero
// vectors.
func (m *Mesh) Bounds() (min, max geom.Vec3) {
	if m.IsEmpty() {
		return geom.Vec3{}, geom.Vec3{}
	}
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for j := 0; j < 3; j++ {
			v := float64(m.Vertices[i+j])
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
	}
	return geom.Vec3{X: lo[0], Y: lo[1], Z: lo[2]}, geom.Vec3{X: hi[0], Y: hi[1], Z: hi[2]}
}
