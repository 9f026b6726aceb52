// Package lumber defines placed lumber pieces and derives their oriented
// faces from centerline, cross-section and rotation.
package lumber

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/lumberyard/pkg/geom"
)

// ErrUnknownType is returned when a lumber type name is not in the table.
var ErrUnknownType = errors.New("unknown lumber type")

// Type names a stock profile.
type Type string

const (
	OneByFour Type = "1x4"
	TwoByFour Type = "2x4"
	Rafter    Type = "rafter"
)

// Size is a nominal cross-section in millimeters.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dimensions is the fixed cross-section table.
var Dimensions = map[Type]Size{
	OneByFour: {Width: 19, Height: 89},
	TwoByFour: {Width: 38, Height: 89},
	Rafter:    {Width: 30, Height: 30},
}

// Types lists the known profiles in display order.
var Types = []Type{OneByFour, TwoByFour, Rafter}

// ParseType validates a profile name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := Dimensions[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Valid reports whether t is in the dimension table.
func (t Type) Valid() bool {
	_, ok := Dimensions[t]
	return ok
}

// Dimensions returns the cross-section of t, or a zero Size if t is unknown.
func (t Type) Dimensions() Size {
	return Dimensions[t]
}

// ConnectionType is how two touching pieces are joined.
type ConnectionType string

const (
	ConnectionScrew   ConnectionType = "screw"
	ConnectionBracket ConnectionType = "bracket"
	ConnectionNone    ConnectionType = "none"
)

// ParseConnectionType validates a connection kind. An empty string is none.
func ParseConnectionType(s string) (ConnectionType, error) {
	switch ConnectionType(s) {
	case ConnectionScrew, ConnectionBracket, ConnectionNone:
		return ConnectionType(s), nil
	case "":
		return ConnectionNone, nil
	}
	return "", fmt.Errorf("unknown connection type %q", s)
}

// Connection records that this piece touches another.
type Connection struct {
	TargetLumberID string         `json:"targetLumberId"`
	ConnectionType ConnectionType `json:"connectionType"`
	ContactPoint   geom.Vec3      `json:"contactPoint"`
}

// Lumber is a placed piece. Its centerline runs from Position along the
// rotated local Y axis for Length millimeters. Timestamps are Unix
// milliseconds.
type Lumber struct {
	ID          string       `json:"id"`
	Type        Type         `json:"type"`
	Position    geom.Vec3    `json:"position"`
	Length      float64      `json:"length"`
	Rotation    geom.Quat    `json:"rotation"`
	Connections []Connection `json:"connections"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with l.
func (l Lumber) Clone() Lumber {
	l.Connections = slices.Clone(l.Connections)
	if l.Connections == nil {
		l.Connections = []Connection{}
	}
	return l
}

// Direction is the unit vector along the centerline.
func (l Lumber) Direction() geom.Vec3 {
	return geom.Normalize(geom.ApplyQuaternion(geom.UnitY, l.Rotation))
}

// End is the far tip of the centerline.
func (l Lumber) End() geom.Vec3 {
	return l.Position.Add(l.Direction().Scale(l.Length))
}

// Center is the midpoint of the centerline.
func (l Lumber) Center() geom.Vec3 {
	return geom.Midpoint(l.Position, l.End())
}

// Size returns the cross-section of the piece's type.
func (l Lumber) Size() Size {
	return l.Type.Dimensions()
}

// ConnectedTo reports whether l has a connection record targeting id.
func (l Lumber) ConnectedTo(id string) bool {
	return slices.ContainsFunc(l.Connections, func(c Connection) bool {
		return c.TargetLumberID == id
	})
}

// Placement is the result of the two-click protocol, ready to be stored.
type Placement struct {
	Type     Type      `json:"type"`
	Position geom.Vec3 `json:"position"`
	Rotation geom.Quat `json:"rotation"`
	Length   float64   `json:"length"`
}

// End is the far tip of the placed centerline.
func (p Placement) End() geom.Vec3 {
	return p.Position.Add(geom.Normalize(geom.ApplyQuaternion(geom.UnitY, p.Rotation)).Scale(p.Length))
}

// PlacementBetween derives length and rotation from two centerline points.
// Coincident points give a zero-length piece with identity rotation.
func PlacementBetween(t Type, start, end geom.Vec3) Placement {
	d := end.Sub(start)
	rot := geom.IdentityQuat
	if l := d.Length(); l > 0 {
		rot = geom.RotationBetween(geom.UnitY, d.Scale(1/l))
	}
	return Placement{Type: t, Position: start, Rotation: rot, Length: d.Length()}
}
