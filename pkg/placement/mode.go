// Package placement runs the two-click protocol that turns cursor rays into
// committed lumber pieces: pick a start point, drag out an end point, click
// to place.
package placement

import (
	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/snap"
)

// Mode is the controller state. It is one of Idle, PlacingStart or
// PlacingEnd; transient snap data lives only on the variant that uses it.
type Mode interface {
	Name() string
	isMode()
}

// Idle means no placement is in progress.
type Idle struct{}

// PlacingStart is choosing the start point of a new piece.
type PlacingStart struct {
	Type  lumber.Type
	Point *geom.Vec3 // last resolved cursor point, nil until the first hit
	Hover *Hover     // face under the cursor, if any
}

// PlacingEnd is dragging out the end point from a fixed start.
type PlacingEnd struct {
	Type           lumber.Type
	Start          geom.Vec3
	End            geom.Vec3
	Lock           *Lock
	ParallelFaces  []snap.ParallelFaceInfo
	ActiveSnapFace *snap.ParallelFaceInfo
}

func (Idle) Name() string         { return "idle" }
func (PlacingStart) Name() string { return "lumber_placing_start" }
func (PlacingEnd) Name() string   { return "lumber_placing_end" }

func (Idle) isMode()         {}
func (PlacingStart) isMode() {}
func (PlacingEnd) isMode()   {}

// Hover is the face under the cursor while choosing a start point, with the
// centerline-aligned point and the orientation a piece started there gets.
type Hover struct {
	LumberID string      `json:"lumberId"`
	Face     lumber.Face `json:"face"`
	Point    geom.Vec3   `json:"point"`
	Rotation geom.Quat   `json:"rotation"`
}

// Lock pins the end point to the normal of the face the start was placed
// on, and fixes the committed rotation.
type Lock struct {
	LumberID string      `json:"lumberId"`
	Face     lumber.Face `json:"face"`
	Normal   geom.Vec3   `json:"normal"`
	Rotation geom.Quat   `json:"rotation"`
}

// Snapshot is the read-only preview state for renderers.
type Snapshot struct {
	Mode                 string                  `json:"mode"`
	Type                 lumber.Type             `json:"type,omitempty"`
	StartPoint           *geom.Vec3              `json:"startPoint,omitempty"`
	CurrentMousePosition *geom.Vec3              `json:"currentMousePosition,omitempty"`
	ParallelFaces        []snap.ParallelFaceInfo `json:"parallelFaces,omitempty"`
	ActiveSnapFace       *snap.ParallelFaceInfo  `json:"activeSnapFace,omitempty"`
	HoveredFaceInfo      *Hover                  `json:"hoveredFaceInfo,omitempty"`
	LockedFaceSnap       *Lock                   `json:"lockedFaceSnap,omitempty"`
	Length               float64                 `json:"length"`
}

func snapshotOf(m Mode) Snapshot {
	switch s := m.(type) {
	case PlacingStart:
		return Snapshot{
			Mode:                 s.Name(),
			Type:                 s.Type,
			CurrentMousePosition: s.Point,
			HoveredFaceInfo:      s.Hover,
		}
	case PlacingEnd:
		start, end := s.Start, s.End
		return Snapshot{
			Mode:                 s.Name(),
			Type:                 s.Type,
			StartPoint:           &start,
			CurrentMousePosition: &end,
			ParallelFaces:        s.ParallelFaces,
			ActiveSnapFace:       s.ActiveSnapFace,
			LockedFaceSnap:       s.Lock,
			Length:               geom.Distance(start, end),
		}
	default:
		return Snapshot{Mode: Idle{}.Name()}
	}
}
