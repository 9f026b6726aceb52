// Package viewport converts between screen pixels and world rays, and
// between millimeters and renderer units.
package viewport

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lumberyard/pkg/geom"
)

// ScaleFactor is millimeters per renderer unit.
const ScaleFactor = 100.0

func MmToUnits(mm float64) float64 { return mm / ScaleFactor }
func UnitsToMm(u float64) float64  { return u * ScaleFactor }

// VecToUnits scales a millimeter vector into renderer units.
func VecToUnits(v geom.Vec3) geom.Vec3 { return v.Scale(1 / ScaleFactor) }

// VecToMm scales a renderer vector into millimeters.
func VecToMm(v geom.Vec3) geom.Vec3 { return v.Scale(ScaleFactor) }

var ErrBadViewport = errors.New("viewport: width and height must be positive")

// Camera is a perspective camera in millimeters. FovY is in degrees.
type Camera struct {
	Eye    geom.Vec3 `json:"eye"`
	Target geom.Vec3 `json:"target"`
	Up     geom.Vec3 `json:"up"`
	FovY   float64   `json:"fovY"`
	Near   float64   `json:"near"`
	Far    float64   `json:"far"`
}

// DefaultCamera looks at the origin from above one corner of the work
// area.
func DefaultCamera() Camera {
	return Camera{
		Eye:    geom.Vec3{X: 3000, Y: 3000, Z: 3000},
		Target: geom.Zero,
		Up:     geom.WorldUp,
		FovY:   50,
		Near:   10,
		Far:    100_000,
	}
}

func toMgl(v geom.Vec3) mgl64.Vec3   { return mgl64.Vec3{v.X, v.Y, v.Z} }
func fromMgl(v mgl64.Vec3) geom.Vec3 { return geom.Vec3{X: v[0], Y: v[1], Z: v[2]} }

// View is the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(toMgl(c.Eye), toMgl(c.Target), toMgl(c.Up))
}

// Projection is the perspective matrix for the given aspect ratio.
func (c Camera) Projection(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// RayFromScreen casts a ray through pixel (x, y), with y growing downward
// as in browser coordinates.
func RayFromScreen(x, y float64, width, height int, c Camera) (geom.Ray, error) {
	if width <= 0 || height <= 0 {
		return geom.Ray{}, ErrBadViewport
	}
	view := c.View()
	proj := c.Projection(float64(width) / float64(height))
	winY := float64(height) - y

	near, err := mgl64.UnProject(mgl64.Vec3{x, winY, 0}, view, proj, 0, 0, width, height)
	if err != nil {
		return geom.Ray{}, err
	}
	far, err := mgl64.UnProject(mgl64.Vec3{x, winY, 1}, view, proj, 0, 0, width, height)
	if err != nil {
		return geom.Ray{}, err
	}
	origin := fromMgl(near)
	return geom.Ray{Origin: origin, Direction: geom.Normalize(fromMgl(far).Sub(origin))}, nil
}

// ToScreen projects a world point to pixel coordinates, y downward. ok is
// false for points behind the camera.
func ToScreen(p geom.Vec3, width, height int, c Camera) (x, y float64, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	view := c.View()
	if view.Mul4x1(toMgl(p).Vec4(1)).Z() >= 0 {
		return 0, 0, false
	}
	proj := c.Projection(float64(width) / float64(height))
	win := mgl64.Project(toMgl(p), view, proj, 0, 0, width, height)
	if math.IsNaN(win[0]) || math.IsNaN(win[1]) {
		return 0, 0, false
	}
	return win[0], float64(height) - win[1], true
}
