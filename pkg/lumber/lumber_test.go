package lumber

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/chazu/lumberyard/pkg/geom"
)

const eps = 1e-6

func vertical(t Type, length float64) Lumber {
	return Lumber{ID: "v", Type: t, Length: length, Rotation: geom.IdentityQuat}
}

func alongX(t Type, length float64) Lumber {
	return Lumber{
		ID:       "x",
		Type:     t,
		Length:   length,
		Rotation: geom.RotationBetween(geom.UnitY, geom.UnitX),
	}
}

func assertVec(t *testing.T, label string, got, want geom.Vec3) {
	t.Helper()
	if !got.ApproxEqual(want, 1e-4) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

func TestParseType(t *testing.T) {
	for _, name := range []string{"1x4", "2x4", "rafter"} {
		if _, err := ParseType(name); err != nil {
			t.Errorf("ParseType(%q): %v", name, err)
		}
	}
	_, err := ParseType("4x4")
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("ParseType(4x4) err = %v, want ErrUnknownType", err)
	}
}

func TestDimensionsTable(t *testing.T) {
	tests := []struct {
		t    Type
		want Size
	}{
		{OneByFour, Size{19, 89}},
		{TwoByFour, Size{38, 89}},
		{Rafter, Size{30, 30}},
		{Type("bogus"), Size{}},
	}
	for _, tt := range tests {
		if got := tt.t.Dimensions(); got != tt.want {
			t.Errorf("%s.Dimensions() = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestParseConnectionType(t *testing.T) {
	tests := []struct {
		in      string
		want    ConnectionType
		wantErr bool
	}{
		{"screw", ConnectionScrew, false},
		{"bracket", ConnectionBracket, false},
		{"none", ConnectionNone, false},
		{"", ConnectionNone, false},
		{"glue", "", true},
	}
	for _, tt := range tests {
		got, err := ParseConnectionType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseConnectionType(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseConnectionType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLumberEndpoints(t *testing.T) {
	l := alongX(TwoByFour, 1000)
	l.Position = geom.Vec3{X: 100, Y: 50}
	assertVec(t, "direction", l.Direction(), geom.UnitX)
	assertVec(t, "end", l.End(), geom.Vec3{X: 1100, Y: 50})
	assertVec(t, "center", l.Center(), geom.Vec3{X: 600, Y: 50})
}

func TestPlacementBetween(t *testing.T) {
	p := PlacementBetween(OneByFour, geom.Vec3{}, geom.Vec3{Z: 500})
	if math.Abs(p.Length-500) > eps {
		t.Fatalf("length = %v", p.Length)
	}
	assertVec(t, "end", p.End(), geom.Vec3{Z: 500})

	p = PlacementBetween(OneByFour, geom.Vec3{X: 1}, geom.Vec3{X: 1})
	if p.Length != 0 || p.Rotation != geom.IdentityQuat {
		t.Fatalf("coincident points: %+v", p)
	}
}

func TestCloneDetachesConnections(t *testing.T) {
	l := vertical(Rafter, 100)
	l.Connections = []Connection{{TargetLumberID: "a"}}
	c := l.Clone()
	c.Connections[0].TargetLumberID = "b"
	if l.Connections[0].TargetLumberID != "a" {
		t.Fatal("clone shares connection slice")
	}
	if !l.ConnectedTo("a") || l.ConnectedTo("b") {
		t.Fatal("ConnectedTo mismatch")
	}
	if vertical(Rafter, 1).Clone().Connections == nil {
		t.Fatal("clone should normalize nil connections")
	}
}

func TestLumberJSONFieldNames(t *testing.T) {
	l := vertical(TwoByFour, 10)
	l.Connections = []Connection{{TargetLumberID: "b", ConnectionType: ConnectionScrew}}
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "type", "position", "length", "rotation", "connections", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q in %s", key, b)
		}
	}
	conn := m["connections"].([]any)[0].(map[string]any)
	if conn["targetLumberId"] != "b" || conn["connectionType"] != "screw" {
		t.Errorf("connection encoded as %v", conn)
	}
}

// ---------------------------------------------------------------------------
// Faces
// ---------------------------------------------------------------------------

func TestFacesOrderAndTypes(t *testing.T) {
	faces := Faces(alongX(TwoByFour, 1000))
	wantTypes := [6]FaceType{FaceEnd, FaceEnd, FaceEdge, FaceEdge, FaceFace, FaceFace}
	wantNormals := [6]geom.Vec3{
		{X: -1}, {X: 1},
		{Z: 1}, {Z: -1},
		{Y: 1}, {Y: -1},
	}
	for i, f := range faces {
		if f.FaceType != wantTypes[i] {
			t.Errorf("face %d type = %s, want %s", i, f.FaceType, wantTypes[i])
		}
		assertVec(t, "normal", f.Normal, wantNormals[i])
	}
	assertVec(t, "start center", faces[0].Center, geom.Vec3{})
	assertVec(t, "end center", faces[1].Center, geom.Vec3{X: 1000})
	assertVec(t, "+w center", faces[2].Center, geom.Vec3{X: 500, Z: 19})
	assertVec(t, "+h center", faces[4].Center, geom.Vec3{X: 500, Y: 44.5})
}

func TestFacesNormalsSumToZero(t *testing.T) {
	pieces := []Lumber{
		vertical(OneByFour, 300),
		alongX(TwoByFour, 1200),
		{Type: Rafter, Length: 700, Rotation: geom.RotationBetween(geom.UnitY, geom.Normalize(geom.Vec3{X: 1, Y: 2, Z: -3}))},
	}
	for _, l := range pieces {
		var sum geom.Vec3
		for _, f := range Faces(l) {
			sum = sum.Add(f.Normal)
			if math.Abs(f.Normal.Length()-1) > eps {
				t.Errorf("non-unit normal %v", f.Normal)
			}
		}
		assertVec(t, "normal sum", sum, geom.Vec3{})
	}
}

func TestFacesClosedAndWound(t *testing.T) {
	l := Lumber{Type: TwoByFour, Length: 800, Position: geom.Vec3{X: 10, Y: 20, Z: 30},
		Rotation: geom.RotationBetween(geom.UnitY, geom.Normalize(geom.Vec3{X: 1, Y: 1}))}
	for i, f := range Faces(l) {
		for j, e := range f.Edges {
			next := f.Edges[(j+1)%4]
			if !e.End.ApproxEqual(next.Start, eps) {
				t.Fatalf("face %d edge %d does not meet edge %d", i, j, (j+1)%4)
			}
			if math.Abs(e.Length-geom.Distance(e.Start, e.End)) > eps {
				t.Fatalf("face %d edge %d length mismatch", i, j)
			}
		}
		v := f.Vertices
		n := v[1].Sub(v[0]).Cross(v[2].Sub(v[1]))
		if n.Dot(f.Normal) <= 0 {
			t.Errorf("face %d winds against its normal", i)
		}
		for _, p := range v {
			if math.Abs(p.Sub(f.Center).Dot(f.Normal)) > 1e-6 {
				t.Errorf("face %d vertex %v off plane", i, p)
			}
		}
	}
}

func TestFacesEdgeLengths(t *testing.T) {
	faces := Faces(vertical(OneByFour, 400))
	for i, f := range faces {
		if f.FaceType == FaceEnd {
			if f.EdgeLengths == nil || *f.EdgeLengths != (Size{19, 89}) {
				t.Fatalf("END face %d edgeLengths = %v", i, f.EdgeLengths)
			}
			w, h := f.Extents()
			if math.Abs(w-19) > eps || math.Abs(h-89) > eps {
				t.Fatalf("END face %d extents = %v x %v", i, w, h)
			}
			continue
		}
		if f.EdgeLengths != nil {
			t.Errorf("long face %d carries edgeLengths", i)
		}
		assertVec(t, "long face widthDir", f.WidthDir, geom.UnitY)
		w, _ := f.Extents()
		if math.Abs(w-400) > eps {
			t.Errorf("long face %d length extent = %v", i, w)
		}
	}
	_, h := faces[2].Extents()
	if math.Abs(h-89) > eps {
		t.Errorf("EDGE face cross extent = %v, want height 89", h)
	}
	_, h = faces[4].Extents()
	if math.Abs(h-19) > eps {
		t.Errorf("FACE face cross extent = %v, want width 19", h)
	}
}

func TestVerticalBasisUsesWorldAxes(t *testing.T) {
	w, h := Basis(geom.UnitY)
	assertVec(t, "width", w, geom.UnitX)
	assertVec(t, "height", h, geom.UnitZ)
	w, h = Basis(geom.Vec3{Y: -1})
	assertVec(t, "width", w, geom.UnitX)
	assertVec(t, "height", h, geom.UnitZ)
}

func TestFaceContainsAndIntersect(t *testing.T) {
	l := vertical(TwoByFour, 1000)
	faces := Faces(l)
	top := faces[1]
	if !top.Contains(geom.Vec3{X: 10, Y: 1000, Z: -20}, eps) {
		t.Fatal("point on top face not contained")
	}
	if top.Contains(geom.Vec3{X: 30, Y: 1000}, eps) {
		t.Fatal("point outside width contained")
	}
	if top.Contains(geom.Vec3{Y: 1001}, 0.5) {
		t.Fatal("point off plane contained")
	}

	front := faces[4] // +Z
	r := geom.Ray{Origin: geom.Vec3{Y: 500, Z: 300}, Direction: geom.Vec3{Z: -1}}
	hit, d, ok := front.Intersect(r)
	if !ok {
		t.Fatal("expected hit on +Z face")
	}
	assertVec(t, "hit", hit, geom.Vec3{Y: 500, Z: 44.5})
	if math.Abs(d-255.5) > eps {
		t.Fatalf("t = %v", d)
	}

	if _, _, ok := faces[5].Intersect(r); ok {
		t.Fatal("back face should not be hit")
	}
	miss := geom.Ray{Origin: geom.Vec3{X: 100, Y: 500, Z: 300}, Direction: geom.Vec3{Z: -1}}
	if _, _, ok := front.Intersect(miss); ok {
		t.Fatal("ray beside the piece should miss")
	}
}

func TestBounds(t *testing.T) {
	b := alongX(TwoByFour, 1000).Bounds()
	assertVec(t, "min", b.Min, geom.Vec3{X: 0, Y: -44.5, Z: -19})
	assertVec(t, "max", b.Max, geom.Vec3{X: 1000, Y: 44.5, Z: 19})

	other := AABB{Min: geom.Vec3{X: 1000.5, Y: -1, Z: -1}, Max: geom.Vec3{X: 1100, Y: 1, Z: 1}}
	if b.Overlaps(other) {
		t.Fatal("separated boxes overlap")
	}
	if !b.Expand(1).Overlaps(other) {
		t.Fatal("expanded box should reach neighbour")
	}
}
