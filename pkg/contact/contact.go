// Package contact finds pieces whose faces touch and records connections
// between them.
package contact

import (
	"cmp"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/rs/zerolog/log"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/store"
)

// Type classifies how two faces meet.
type Type string

const (
	FaceToFace Type = "face-to-face"
	EdgeToEdge Type = "edge-to-edge"
)

const (
	opposingDot = -0.99
	// overlapTolerance is how much shared extent, in mm, counts as a line
	// rather than an area.
	overlapTolerance = 1e-3
	minRectSide      = 1e-6
)

// Contact is a touching pair of pieces. A sorts before B.
type Contact struct {
	A            string    `json:"a"`
	B            string    `json:"b"`
	FaceA        int       `json:"faceA"`
	FaceB        int       `json:"faceB"`
	Distance     float64   `json:"distance"`
	ContactPoint geom.Vec3 `json:"contactPoint"`
	ContactType  Type      `json:"contactType"`
}

// entry adapts a piece to the R-tree.
type entry struct {
	l    lumber.Lumber
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

func rectOf(b lumber.AABB) rtreego.Rect {
	size := b.Size()
	lengths := []float64{
		math.Max(size.X, minRectSide),
		math.Max(size.Y, minRectSide),
		math.Max(size.Z, minRectSide),
	}
	r, err := rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z}, lengths)
	if err != nil {
		// Lengths are clamped positive above.
		panic(err)
	}
	return r
}

// Detect returns every pair of pieces with opposing faces no further than
// threshold apart whose rectangles overlap. Each pair is reported once,
// for its closest face pair. Results are ordered by A then B.
func Detect(lumbers []lumber.Lumber, threshold float64) []Contact {
	threshold = math.Max(threshold, 0)
	entries := make([]*entry, 0, len(lumbers))
	tree := rtreego.NewTree(3, 2, 8)
	for _, l := range lumbers {
		if !l.Type.Valid() || !(l.Length > 0) {
			continue
		}
		e := &entry{l: l, rect: rectOf(l.Bounds().Expand(threshold + overlapTolerance))}
		entries = append(entries, e)
		tree.Insert(e)
	}

	var out []Contact
	for _, e := range entries {
		for _, s := range tree.SearchIntersect(e.rect) {
			other := s.(*entry)
			if other.l.ID <= e.l.ID {
				continue
			}
			if c, ok := between(e.l, other.l, threshold); ok {
				out = append(out, c)
			}
		}
	}
	slices.SortFunc(out, func(a, b Contact) int {
		return cmp.Or(cmp.Compare(a.A, b.A), cmp.Compare(a.B, b.B))
	})
	return out
}

// between checks all 36 face pairs of a and b and keeps the closest hit.
func between(a, b lumber.Lumber, threshold float64) (Contact, bool) {
	fa, fb := lumber.Faces(a), lumber.Faces(b)
	var best Contact
	found := false
	for i, x := range fa {
		for j, y := range fb {
			c, ok := faces(x, y, threshold)
			if !ok {
				continue
			}
			if !found || c.Distance < best.Distance ||
				(c.Distance == best.Distance && c.ContactType == FaceToFace && best.ContactType != FaceToFace) {
				c.A, c.B, c.FaceA, c.FaceB = a.ID, b.ID, i, j
				best, found = c, true
			}
		}
	}
	return best, found
}

// faces tests a single pair. The overlap is measured in x's plane basis.
func faces(x, y lumber.Face, threshold float64) (Contact, bool) {
	if x.Normal.Dot(y.Normal) >= opposingDot {
		return Contact{}, false
	}
	gap := y.Center.Sub(x.Center).Dot(x.Normal)
	if math.Abs(gap) > threshold {
		return Contact{}, false
	}

	uLo, uHi, uOK := overlap(x, y, x.WidthDir)
	vLo, vHi, vOK := overlap(x, y, x.HeightDir)
	if !uOK || !vOK {
		return Contact{}, false
	}

	kind := FaceToFace
	if uHi-uLo <= overlapTolerance || vHi-vLo <= overlapTolerance {
		kind = EdgeToEdge
	}
	mid := x.Center.
		Add(x.WidthDir.Scale((uLo + uHi) / 2)).
		Add(x.HeightDir.Scale((vLo + vHi) / 2)).
		Add(x.Normal.Scale(gap / 2))
	return Contact{
		Distance:     math.Abs(gap),
		ContactPoint: mid,
		ContactType:  kind,
	}, true
}

// overlap intersects the two faces' spans along axis, relative to x's
// center.
func overlap(x, y lumber.Face, axis geom.Vec3) (lo, hi float64, ok bool) {
	xLo, xHi := span(x, x.Center, axis)
	yLo, yHi := span(y, x.Center, axis)
	lo, hi = math.Max(xLo, yLo), math.Min(xHi, yHi)
	return lo, hi, hi-lo >= -overlapTolerance
}

func span(f lumber.Face, origin, axis geom.Vec3) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Vertices {
		d := v.Sub(origin).Dot(axis)
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	return lo, hi
}

// Connect detects contacts among the pieces in s and adds a connection of
// the given kind on both sides of every pair that lacks one. It returns the
// number of pairs linked.
func Connect(s *store.Store, threshold float64, kind lumber.ConnectionType) int {
	lumbers := s.All()
	byID := make(map[string]lumber.Lumber, len(lumbers))
	for _, l := range lumbers {
		byID[l.ID] = l
	}

	linked := 0
	for _, c := range Detect(lumbers, threshold) {
		a, b := byID[c.A], byID[c.B]
		added := false
		if !a.ConnectedTo(b.ID) {
			s.AddConnection(a.ID, lumber.Connection{TargetLumberID: b.ID, ConnectionType: kind, ContactPoint: c.ContactPoint})
			added = true
		}
		if !b.ConnectedTo(a.ID) {
			s.AddConnection(b.ID, lumber.Connection{TargetLumberID: a.ID, ConnectionType: kind, ContactPoint: c.ContactPoint})
			added = true
		}
		if added {
			linked++
			log.Debug().
				Str("a", c.A).
				Str("b", c.B).
				Str("type", string(c.ContactType)).
				Float64("distance", c.Distance).
				Msg("connected touching pieces")
		}
	}
	return linked
}
