package geom

import (
	"math"
	"testing"
)

const eps = 1e-4

func approx(a, b float64) bool { return math.Abs(a-b) <= eps }

func assertVec(t *testing.T, label string, got, want Vec3) {
	t.Helper()
	if !got.ApproxEqual(want, eps) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
}

func isFinite(v Vec3) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Vectors
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"zero", Vec3{}, Vec3{}},
		{"x", Vec3{5, 0, 0}, UnitX},
		{"diagonal", Vec3{3, 4, 0}, Vec3{0.6, 0.8, 0}},
		{"negative", Vec3{0, 0, -2}, Vec3{0, 0, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVec(t, "Normalize", Normalize(tt.in), tt.want)
		})
	}
}

func TestCrossRightHanded(t *testing.T) {
	assertVec(t, "X×Y", Cross(UnitX, UnitY), UnitZ)
	assertVec(t, "Y×Z", Cross(UnitY, UnitZ), UnitX)
	assertVec(t, "Z×X", Cross(UnitZ, UnitX), UnitY)
}

func TestDominantAxisTies(t *testing.T) {
	tests := []struct {
		v    Vec3
		want Axis
	}{
		{Vec3{1, 1, 1}, AxisX},
		{Vec3{0, 2, 2}, AxisY},
		{Vec3{0, -1, 3}, AxisZ},
		{Vec3{-5, 4, 0}, AxisX},
		{Vec3{}, AxisX},
	}
	for _, tt := range tests {
		if got := tt.v.DominantAxis(); got != tt.want {
			t.Errorf("DominantAxis(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestComponentWith(t *testing.T) {
	v := Vec3{1, 2, 3}
	for _, a := range Axes {
		w := v.With(a, 9)
		if w.Component(a) != 9 {
			t.Errorf("With(%v) did not set component: %v", a, w)
		}
	}
	if v != (Vec3{1, 2, 3}) {
		t.Fatal("With mutated receiver")
	}
}

func TestAxisText(t *testing.T) {
	for _, a := range Axes {
		b, err := a.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", a, err)
		}
		var back Axis
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != a {
			t.Errorf("round trip %v -> %v", a, back)
		}
	}
	var a Axis
	if err := a.UnmarshalText([]byte("w")); err == nil {
		t.Fatal("expected error for unknown axis")
	}
}

// ---------------------------------------------------------------------------
// Quaternions
// ---------------------------------------------------------------------------

func TestRotationBetweenRoundTrip(t *testing.T) {
	targets := []Vec3{
		UnitX, UnitZ, UnitY,
		Vec3{-1, 0, 0},
		Normalize(Vec3{1, 1, 0}),
		Normalize(Vec3{1, 2, 3}),
		Normalize(Vec3{-0.3, -0.2, 0.9}),
	}
	for _, d := range targets {
		q := RotationBetween(UnitY, d)
		if !q.IsUnit(eps) {
			t.Fatalf("RotationBetween(Y, %v) not unit: %v", d, q)
		}
		assertVec(t, "rotated Y", ApplyQuaternion(UnitY, q), d)
	}
}

func TestRotationBetweenAntiParallel(t *testing.T) {
	q := RotationBetween(UnitY, Vec3{0, -1, 0})
	if q != FlipX {
		t.Fatalf("anti-parallel: got %v, want %v", q, FlipX)
	}
	assertVec(t, "flipped", ApplyQuaternion(UnitY, q), Vec3{0, -1, 0})
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	if got := (Quat{}).Normalize(); got != FlipX {
		t.Fatalf("zero quat normalized to %v", got)
	}
	q := Quat{0, 0, 0, 2}.Normalize()
	if q != IdentityQuat {
		t.Fatalf("got %v, want identity", q)
	}
}

func TestAxisAngle(t *testing.T) {
	q := AxisAngle(UnitY, math.Pi/2)
	assertVec(t, "X about Y", ApplyQuaternion(UnitX, q), Vec3{0, 0, -1})

	q = AxisAngle(UnitZ, math.Pi/2)
	assertVec(t, "X about Z", ApplyQuaternion(UnitX, q), UnitY)

	if AxisAngle(Vec3{}, 1) != IdentityQuat {
		t.Fatal("zero axis should give identity")
	}

	axis, angle := AxisAngle(Normalize(Vec3{1, 1, 0}), 1.2).ToAxisAngle()
	assertVec(t, "axis", axis, Normalize(Vec3{1, 1, 0}))
	if !approx(angle, 1.2) {
		t.Fatalf("angle = %v, want 1.2", angle)
	}
}

func TestMulConjugate(t *testing.T) {
	q := RotationBetween(UnitY, Normalize(Vec3{1, 2, 3}))
	p := q.Mul(q.Conjugate())
	if !p.ApproxEqual(IdentityQuat, eps) {
		t.Fatalf("q·q* = %v, want identity", p)
	}

	// Composition order: a.Mul(b) applies b first.
	a := AxisAngle(UnitZ, math.Pi/2)
	b := AxisAngle(UnitX, math.Pi/2)
	v := ApplyQuaternion(ApplyQuaternion(UnitY, b), a)
	assertVec(t, "composed", ApplyQuaternion(UnitY, a.Mul(b)), v)
}

func TestRotateAroundAxis90(t *testing.T) {
	// A vertical piece twisted about its own long axis keeps its long axis
	// but swaps width and height.
	q := RotateAroundAxis90(IdentityQuat, UnitY)
	assertVec(t, "long axis", ApplyQuaternion(UnitY, q), UnitY)
	assertVec(t, "width", ApplyQuaternion(UnitX, q), Vec3{0, 0, -1})

	// World-space axis: twist a piece lying along X about X.
	base := RotationBetween(UnitY, UnitX)
	twisted := RotateAroundAxis90(base, UnitX)
	assertVec(t, "long axis after twist", ApplyQuaternion(UnitY, twisted), UnitX)
	w0 := ApplyQuaternion(UnitX, base)
	w1 := ApplyQuaternion(UnitX, twisted)
	if !approx(w0.Dot(w1), 0) {
		t.Fatalf("width axis did not turn 90°: %v vs %v", w0, w1)
	}
}

func TestRotationFromNormalAndUp(t *testing.T) {
	tests := []struct {
		name   string
		normal Vec3
		up     Vec3
	}{
		{"up face", UnitY, UnitX},
		{"side face", UnitX, UnitY},
		{"negative z", Vec3{0, 0, -1}, UnitY},
		{"oblique", Normalize(Vec3{1, 1, 1}), UnitY},
		{"down face", Vec3{0, -1, 0}, UnitZ},
		{"negative x", Vec3{-1, 0, 0}, UnitZ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := RotationFromNormalAndUp(tt.normal, tt.up)
			if !q.IsUnit(eps) {
				t.Fatalf("not unit: %v", q)
			}
			assertVec(t, "local Y", ApplyQuaternion(UnitY, q), Normalize(tt.normal))
			wantZ := Normalize(tt.up.Cross(tt.normal))
			assertVec(t, "local Z", ApplyQuaternion(UnitZ, q), wantZ)
			x := ApplyQuaternion(UnitX, q)
			assertVec(t, "right-handed", x.Cross(ApplyQuaternion(UnitY, q)), wantZ)
		})
	}
}

func TestRotationFromNormalAndUpParallelHint(t *testing.T) {
	for _, n := range []Vec3{UnitY, UnitX, Vec3{0, 0, -1}} {
		q := RotationFromNormalAndUp(n, n)
		if !q.IsUnit(eps) {
			t.Fatalf("normal %v: not unit: %v", n, q)
		}
		assertVec(t, "local Y", ApplyQuaternion(UnitY, q), n)
	}
}

// ---------------------------------------------------------------------------
// Rays
// ---------------------------------------------------------------------------

func TestIntersectPlane(t *testing.T) {
	r := Ray{Origin: Vec3{10, 100, 20}, Direction: Vec3{0, -1, 0}}
	hit, d, ok := IntersectPlane(r, Vec3{}, UnitY)
	if !ok {
		t.Fatal("expected hit")
	}
	assertVec(t, "hit", hit, Vec3{10, 0, 20})
	if !approx(d, 100) {
		t.Fatalf("t = %v", d)
	}

	if _, _, ok := IntersectPlane(Ray{Origin: Vec3{0, 1, 0}, Direction: UnitX}, Vec3{}, UnitY); ok {
		t.Fatal("parallel ray should miss")
	}
	if _, _, ok := IntersectPlane(Ray{Origin: Vec3{0, 1, 0}, Direction: UnitY}, Vec3{}, UnitY); ok {
		t.Fatal("plane behind origin should miss")
	}
}

func TestClosestPointRayLine(t *testing.T) {
	// Ray looking down -Z from (50, 30, 100); line is the X axis.
	r := Ray{Origin: Vec3{50, 30, 100}, Direction: Vec3{0, 0, -1}}
	p, gap := ClosestPointRayLine(r, Vec3{}, UnitX)
	assertVec(t, "point", p, Vec3{50, 0, 0})
	if !approx(gap, 30) {
		t.Fatalf("gap = %v, want 30", gap)
	}
}

func TestClosestPointRayLineParallel(t *testing.T) {
	r := Ray{Origin: Vec3{5, 7, 3}, Direction: UnitY}
	p, gap := ClosestPointRayLine(r, Vec3{}, UnitY)
	if !isFinite(p) || math.IsNaN(gap) {
		t.Fatalf("parallel case produced non-finite result: %v %v", p, gap)
	}
	assertVec(t, "projected origin", p, Vec3{0, 7, 0})
}

func TestClosestPointRayLineZeroDirection(t *testing.T) {
	r := Ray{Origin: Vec3{1, 2, 3}, Direction: UnitZ}
	p, _ := ClosestPointRayLine(r, Vec3{4, 4, 4}, Vec3{})
	assertVec(t, "line point", p, Vec3{4, 4, 4})
}

func TestClosestPointsBetweenSegments(t *testing.T) {
	tests := []struct {
		name           string
		a0, a1, b0, b1 Vec3
		wantDist       float64
	}{
		{"crossing", Vec3{-10, 0, 0}, Vec3{10, 0, 0}, Vec3{0, 5, -10}, Vec3{0, 5, 10}, 5},
		{"parallel offset", Vec3{0, 0, 0}, Vec3{10, 0, 0}, Vec3{0, 3, 0}, Vec3{10, 3, 0}, 3},
		{"endpoint", Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{4, 0, 0}, Vec3{4, 4, 0}, 3},
		{"both points", Vec3{1, 1, 1}, Vec3{1, 1, 1}, Vec3{1, 1, 3}, Vec3{1, 1, 3}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ClosestPointsBetweenSegments(tt.a0, tt.a1, tt.b0, tt.b1)
			if !approx(g.Distance, tt.wantDist) {
				t.Fatalf("distance = %v, want %v", g.Distance, tt.wantDist)
			}
			if !approx(Distance(g.P1, g.P2), g.Distance) {
				t.Fatalf("points %v %v inconsistent with distance %v", g.P1, g.P2, g.Distance)
			}
		})
	}
}
