package snap

import (
	"cmp"
	"math"
	"slices"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
)

// parallelDot is the |cos| above which two normals count as parallel.
const parallelDot = 0.99

// ParallelFaceInfo is a face of a placed piece whose normal is parallel to
// the one being drawn, with the plane coordinate along its dominant axis.
type ParallelFaceInfo struct {
	Face          lumber.Face `json:"face"`
	LumberID      string      `json:"lumberId"`
	PlanePosition float64     `json:"planePosition"`
	Axis          geom.Axis   `json:"axis"`
}

// ParallelThreshold is the snap distance used during placement for grid g.
func ParallelThreshold(g float64) float64 {
	return 1.5 * g
}

// FindParallelFaces returns every face of every piece whose normal is
// parallel or anti-parallel to normal. Pieces are visited in ID order and
// faces in lumber.Faces order.
func FindParallelFaces(normal geom.Vec3, lumbers []lumber.Lumber) []ParallelFaceInfo {
	n := geom.Normalize(normal)
	if n.IsZero() {
		return nil
	}
	sorted := slices.SortedFunc(slices.Values(lumbers), func(a, b lumber.Lumber) int {
		return cmp.Compare(a.ID, b.ID)
	})

	var out []ParallelFaceInfo
	for _, l := range sorted {
		for _, f := range lumber.Faces(l) {
			if math.Abs(n.Dot(f.Normal)) <= parallelDot {
				continue
			}
			axis := f.Axis()
			out = append(out, ParallelFaceInfo{
				Face:          f,
				LumberID:      l.ID,
				PlanePosition: f.Center.Component(axis),
				Axis:          axis,
			})
		}
	}
	return out
}

// FindClosestParallelFace picks the face plane nearest p along its own
// axis. Only distances strictly below threshold qualify; nil otherwise.
func FindClosestParallelFace(p geom.Vec3, faces []ParallelFaceInfo, threshold float64) *ParallelFaceInfo {
	var best *ParallelFaceInfo
	bestDist := threshold
	for i := range faces {
		d := math.Abs(p.Component(faces[i].Axis) - faces[i].PlanePosition)
		if d < bestDist {
			best = &faces[i]
			bestDist = d
		}
	}
	return best
}

// ToFace moves p onto the plane described by info.
func ToFace(p geom.Vec3, info ParallelFaceInfo) geom.Vec3 {
	return p.With(info.Axis, info.PlanePosition)
}

// ToFaceCenterLine projects p onto the line through the face center along
// WidthDir, or HeightDir when WidthDir is unset. Faces without either
// direction leave p unchanged.
func ToFaceCenterLine(p geom.Vec3, f lumber.Face) geom.Vec3 {
	dir := f.WidthDir
	if dir.IsZero() {
		dir = f.HeightDir
	}
	dir = geom.Normalize(dir)
	if dir.IsZero() {
		return p
	}
	t := p.Sub(f.Center).Dot(dir)
	return f.Center.Add(dir.Scale(t))
}
