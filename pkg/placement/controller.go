package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/snap"
)

// MinLength is the shortest piece a click will commit, in millimeters.
const MinLength = 1.0

var (
	// ErrTooShort is returned when the end point is within MinLength of the start.
	ErrTooShort = errors.New("placement: piece too short")

	// ErrNotPlacing is returned by Place outside a placing mode.
	ErrNotPlacing = errors.New("placement: no placement in progress")
)

// Committer stores a finished placement and returns the new piece's ID.
type Committer interface {
	Commit(p lumber.Placement) (string, error)
}

// Scene is the read and selection surface of the piece store.
type Scene interface {
	All() []lumber.Lumber
	Select(id string, multi bool)
	DeselectAll()
}

// Options supplies the live snapping configuration.
type Options interface {
	GridSize() float64
	SnapEnabled() bool
}

// Modifiers are the keyboard modifiers held during a click.
type Modifiers struct {
	Shift bool `json:"shift"`
}

// Controller is the placement state machine. It is not safe for concurrent
// use; callers serialize events.
type Controller struct {
	scene  Scene
	commit Committer
	opts   Options
	mode   Mode
}

// New returns a controller in Idle mode.
func New(scene Scene, commit Committer, opts Options) *Controller {
	return &Controller{scene: scene, commit: commit, opts: opts, mode: Idle{}}
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// Snapshot returns the preview state.
func (c *Controller) Snapshot() Snapshot { return snapshotOf(c.mode) }

func (c *Controller) setMode(m Mode) {
	if c.mode.Name() != m.Name() {
		log.Debug().Str("from", c.mode.Name()).Str("to", m.Name()).Msg("placement mode")
	}
	c.mode = m
}

func (c *Controller) grid() float64 {
	if !c.opts.SnapEnabled() {
		return 0
	}
	return c.opts.GridSize()
}

// Begin starts placing a piece of type t, abandoning any placement in
// progress.
func (c *Controller) Begin(t lumber.Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", lumber.ErrUnknownType, t)
	}
	c.setMode(PlacingStart{Type: t})
	return nil
}

// Cancel drops any placement in progress and returns to Idle.
func (c *Controller) Cancel() {
	c.setMode(Idle{})
}

// Move updates the preview for the cursor ray.
func (c *Controller) Move(r geom.Ray) {
	switch s := c.mode.(type) {
	case PlacingStart:
		c.setMode(c.hoverStart(s, r))
	case PlacingEnd:
		c.setMode(c.dragEnd(s, r))
	}
}

// MoveTo updates the preview for a cursor already resolved to a world
// point. No face hover is attempted.
func (c *Controller) MoveTo(p geom.Vec3) {
	switch s := c.mode.(type) {
	case PlacingStart:
		p = snap.ToGrid(p, c.grid())
		s.Point, s.Hover = &p, nil
		c.setMode(s)
	case PlacingEnd:
		if s.Lock != nil {
			c.setMode(c.lockedEnd(s, p))
			return
		}
		c.setMode(c.refineEnd(s, p))
	}
}

// Click handles a pointer click. In Idle it selects the piece under the
// cursor (shift adds to the selection) or clears the selection. While
// placing it moves to r and then places; the returned ID is set when a
// piece was committed.
func (c *Controller) Click(r geom.Ray, mods Modifiers) (string, error) {
	if _, ok := c.mode.(Idle); ok {
		if h, ok := pick(c.scene.All(), r); ok {
			c.scene.Select(h.lumberID, mods.Shift)
		} else {
			c.scene.DeselectAll()
		}
		return "", nil
	}
	c.Move(r)
	return c.Place()
}

// Place confirms the current preview point: it fixes the start point, or
// commits the piece. Too-short pieces are rejected and the mode is kept.
func (c *Controller) Place() (string, error) {
	switch s := c.mode.(type) {
	case PlacingStart:
		if s.Point == nil {
			return "", nil
		}
		end := PlacingEnd{Type: s.Type, Start: *s.Point, End: *s.Point}
		if s.Hover != nil {
			end.Lock = &Lock{
				LumberID: s.Hover.LumberID,
				Face:     s.Hover.Face,
				Normal:   geom.Normalize(s.Hover.Face.Normal),
				Rotation: s.Hover.Rotation,
			}
		}
		c.setMode(end)
		return "", nil

	case PlacingEnd:
		p, err := finish(s)
		if err != nil {
			return "", err
		}
		id, err := c.commit.Commit(p)
		if err != nil {
			return "", fmt.Errorf("commit placement: %w", err)
		}
		log.Debug().Str("id", id).Str("type", string(p.Type)).Float64("length", p.Length).Msg("placed lumber")
		c.setMode(Idle{})
		return id, nil
	}
	return "", ErrNotPlacing
}

func finish(s PlacingEnd) (lumber.Placement, error) {
	end := s.End
	if s.Lock == nil {
		var axis *geom.Axis
		if s.ActiveSnapFace != nil {
			axis = &s.ActiveSnapFace.Axis
		}
		end = snap.ToAxisWithFaceSnap(s.Start, end, axis)
	}
	d := end.Sub(s.Start)
	length := d.Length()
	if length < MinLength {
		return lumber.Placement{}, ErrTooShort
	}
	rot := geom.RotationBetween(geom.UnitY, d.Scale(1/length))
	if s.Lock != nil {
		rot = s.Lock.Rotation
	}
	return lumber.Placement{Type: s.Type, Position: s.Start, Rotation: rot, Length: length}, nil
}

// hoverStart resolves the start point: a face under the cursor gives a
// centerline-aligned point and orientation, otherwise the ground plane.
func (c *Controller) hoverStart(s PlacingStart, r geom.Ray) PlacingStart {
	if h, ok := pick(c.scene.All(), r); ok {
		p := snap.ToFaceCenterLine(h.point, h.face)
		s.Point = &p
		s.Hover = &Hover{
			LumberID: h.lumberID,
			Face:     h.face,
			Point:    p,
			Rotation: snap.AlignToFace(s.Type.Dimensions(), h.face, p),
		}
		return s
	}
	s.Hover = nil
	if p, _, ok := geom.IntersectPlane(r, geom.Zero, geom.WorldUp); ok {
		p = snap.ToGrid(p, c.grid())
		s.Point = &p
	}
	return s
}

// dragEnd picks the world-axis line through the start closest to the ray.
func (c *Controller) dragEnd(s PlacingEnd, r geom.Ray) PlacingEnd {
	if s.Lock != nil {
		p, _ := geom.ClosestPointRayLine(r, s.Start, s.Lock.Normal)
		return c.lockedEnd(s, p)
	}
	var raw geom.Vec3
	best := math.Inf(1)
	for _, a := range geom.Axes {
		p, gap := geom.ClosestPointRayLine(r, s.Start, a.Unit())
		if gap < best {
			raw, best = p, gap
		}
	}
	return c.refineEnd(s, raw)
}

// lockedEnd moves the end along the locked normal only, with a grid-snapped
// non-negative length.
func (c *Controller) lockedEnd(s PlacingEnd, p geom.Vec3) PlacingEnd {
	n := s.Lock.Normal
	length := math.Max(0, p.Sub(s.Start).Dot(n))
	length = math.Max(0, snap.Scalar(length, c.grid()))
	s.End = s.Start.Add(n.Scale(length))
	s.ParallelFaces, s.ActiveSnapFace = nil, nil
	return s
}

// refineEnd grid-snaps raw, lets a nearby parallel face plane override it,
// and keeps the result on a single axis through the start.
func (c *Controller) refineEnd(s PlacingEnd, raw geom.Vec3) PlacingEnd {
	g := c.grid()
	end := snap.ToGrid(raw, g)

	axis := raw.Sub(s.Start).DominantAxis()
	s.ParallelFaces = snap.FindParallelFaces(axis.Unit(), c.scene.All())
	s.ActiveSnapFace = nil
	var faceAxis *geom.Axis
	threshold := snap.ParallelThreshold(c.opts.GridSize())
	if info := snap.FindClosestParallelFace(raw, s.ParallelFaces, threshold); info != nil {
		active := *info
		s.ActiveSnapFace = &active
		end = snap.ToFace(end, active)
		faceAxis = &active.Axis
	}
	s.End = snap.ToAxisWithFaceSnap(s.Start, end, faceAxis)
	return s
}

type hit struct {
	lumberID string
	face     lumber.Face
	point    geom.Vec3
	t        float64
}

// pick returns the nearest front-facing face hit by r.
func pick(pieces []lumber.Lumber, r geom.Ray) (hit, bool) {
	best := hit{t: math.Inf(1)}
	found := false
	for _, l := range pieces {
		for _, f := range lumber.Faces(l) {
			p, t, ok := f.Intersect(r)
			if ok && t < best.t {
				best = hit{lumberID: l.ID, face: f, point: p, t: t}
				found = true
			}
		}
	}
	return best, found
}
