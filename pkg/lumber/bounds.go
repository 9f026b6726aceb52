package lumber

import (
	"math"

	"github.com/chazu/lumberyard/pkg/geom"
)

// AABB is an axis-aligned box in world millimeters.
type AABB struct {
	Min geom.Vec3 `json:"min"`
	Max geom.Vec3 `json:"max"`
}

// Size returns the box extent along each axis.
func (b AABB) Size() geom.Vec3 { return b.Max.Sub(b.Min) }

// Expand grows the box by d on every side.
func (b AABB) Expand(d float64) AABB {
	off := geom.Vec3{X: d, Y: d, Z: d}
	return AABB{Min: b.Min.Sub(off), Max: b.Max.Add(off)}
}

// Overlaps reports whether the two boxes intersect or touch.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Union returns the smallest box containing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: geom.Vec3{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: geom.Vec3{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Corners returns the eight vertices of the piece's prism.
func (l Lumber) Corners() [8]geom.Vec3 {
	size := l.Size()
	w, h := Basis(l.Direction())
	hw := w.Scale(size.Width / 2)
	hh := h.Scale(size.Height / 2)
	var out [8]geom.Vec3
	for i, p := range [2]geom.Vec3{l.Position, l.End()} {
		out[i*4+0] = p.Sub(hw).Sub(hh)
		out[i*4+1] = p.Add(hw).Sub(hh)
		out[i*4+2] = p.Add(hw).Add(hh)
		out[i*4+3] = p.Sub(hw).Add(hh)
	}
	return out
}

// Bounds is the axis-aligned box around the piece's eight corners.
func (l Lumber) Bounds() AABB {
	c := l.Corners()
	b := AABB{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		b = b.Union(AABB{Min: p, Max: p})
	}
	return b
}
