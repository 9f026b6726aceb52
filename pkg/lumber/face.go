package lumber

import (
	"math"

	"github.com/chazu/lumberyard/pkg/geom"
)

// FaceType classifies a face by the stock dimension it exposes.
type FaceType string

const (
	FaceEnd  FaceType = "end"  // tip cross-section
	FaceEdge FaceType = "edge" // long face normal to the width axis
	FaceFace FaceType = "face" // long face normal to the height axis
)

// uprightThreshold is the |dot| with world up above which a piece counts
// as vertical and the cross-section basis falls back to world X/Z.
const uprightThreshold = 0.99

// Edge is one boundary segment of a face.
type Edge struct {
	Start     geom.Vec3 `json:"start"`
	End       geom.Vec3 `json:"end"`
	Length    float64   `json:"length"`
	Direction geom.Vec3 `json:"direction"`
}

// Face is one of the six planar boundaries of a piece. Vertices wind
// counter-clockwise seen from outside (along -Normal).
//
// WidthDir and HeightDir span the face plane. END faces use the piece's
// cross-section basis and carry EdgeLengths; long faces use the centerline
// direction as WidthDir and the exposed cross-section axis as HeightDir.
type Face struct {
	Center      geom.Vec3    `json:"center"`
	Normal      geom.Vec3    `json:"normal"`
	Vertices    [4]geom.Vec3 `json:"vertices"`
	WidthDir    geom.Vec3    `json:"widthDir"`
	HeightDir   geom.Vec3    `json:"heightDir"`
	FaceType    FaceType     `json:"faceType"`
	Edges       [4]Edge      `json:"edges"`
	EdgeLengths *Size        `json:"edgeLengths,omitempty"`
}

// Basis returns the cross-section axes of a piece running along direction.
// Near-vertical pieces use world X and Z; otherwise width is
// normalize(direction × up) and height is normalize(width × direction).
func Basis(direction geom.Vec3) (width, height geom.Vec3) {
	if math.Abs(direction.Dot(geom.WorldUp)) > uprightThreshold {
		return geom.UnitX, geom.UnitZ
	}
	width = geom.Normalize(direction.Cross(geom.WorldUp))
	height = geom.Normalize(width.Cross(direction))
	return width, height
}

// Faces derives the six faces of l in fixed order: start END, end END,
// +width EDGE, -width EDGE, +height FACE, -height FACE.
func Faces(l Lumber) [6]Face {
	size := l.Size()
	dir := l.Direction()
	start := l.Position
	end := start.Add(dir.Scale(l.Length))
	mid := geom.Midpoint(start, end)
	w, h := Basis(dir)

	ends := Size{Width: size.Width, Height: size.Height}
	startFace := newFace(FaceEnd, start, dir.Neg(), w, size.Width, h, size.Height)
	startFace.EdgeLengths = &ends
	endFace := newFace(FaceEnd, end, dir, w, size.Width, h, size.Height)
	endLengths := ends
	endFace.EdgeLengths = &endLengths

	halfW := w.Scale(size.Width / 2)
	halfH := h.Scale(size.Height / 2)

	return [6]Face{
		startFace,
		endFace,
		newFace(FaceEdge, mid.Add(halfW), w, dir, l.Length, h, size.Height),
		newFace(FaceEdge, mid.Sub(halfW), w.Neg(), dir, l.Length, h, size.Height),
		newFace(FaceFace, mid.Add(halfH), h, dir, l.Length, w, size.Width),
		newFace(FaceFace, mid.Sub(halfH), h.Neg(), dir, l.Length, w, size.Width),
	}
}

// newFace builds a rectangle centered at c spanning ul along u and vl along v.
func newFace(ft FaceType, c, normal, u geom.Vec3, ul float64, v geom.Vec3, vl float64) Face {
	du := u.Scale(ul / 2)
	dv := v.Scale(vl / 2)
	verts := [4]geom.Vec3{
		c.Sub(du).Sub(dv),
		c.Add(du).Sub(dv),
		c.Add(du).Add(dv),
		c.Sub(du).Add(dv),
	}
	if u.Cross(v).Dot(normal) < 0 {
		verts[1], verts[3] = verts[3], verts[1]
	}

	f := Face{
		Center:    c,
		Normal:    normal,
		Vertices:  verts,
		WidthDir:  u,
		HeightDir: v,
		FaceType:  ft,
	}
	for i := range verts {
		a, b := verts[i], verts[(i+1)%4]
		f.Edges[i] = Edge{
			Start:     a,
			End:       b,
			Length:    geom.Distance(a, b),
			Direction: geom.Normalize(b.Sub(a)),
		}
	}
	return f
}

// Extents returns the face's size along WidthDir and HeightDir.
func (f Face) Extents() (width, height float64) {
	for _, e := range f.Edges {
		d := math.Abs(e.Direction.Dot(f.WidthDir))
		if d > 0.5 {
			width = e.Length
		} else {
			height = e.Length
		}
	}
	return width, height
}

// Contains reports whether p lies on the face rectangle, allowing tol
// millimeters off the plane and past each boundary.
func (f Face) Contains(p geom.Vec3, tol float64) bool {
	rel := p.Sub(f.Center)
	if math.Abs(rel.Dot(f.Normal)) > tol {
		return false
	}
	w, h := f.Extents()
	return math.Abs(rel.Dot(f.WidthDir)) <= w/2+tol &&
		math.Abs(rel.Dot(f.HeightDir)) <= h/2+tol
}

// Intersect hit-tests a ray against the front side of the face and returns
// the hit point and ray parameter.
func (f Face) Intersect(r geom.Ray) (geom.Vec3, float64, bool) {
	if r.Direction.Dot(f.Normal) >= 0 {
		return geom.Vec3{}, 0, false
	}
	hit, t, ok := geom.IntersectPlane(r, f.Center, f.Normal)
	if !ok || !f.Contains(hit, 1e-6) {
		return geom.Vec3{}, 0, false
	}
	return hit, t, true
}

// Axis is the world axis the face normal is closest to.
func (f Face) Axis() geom.Axis {
	return f.Normal.DominantAxis()
}
