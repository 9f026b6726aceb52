package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/kernel"
)

func approx(a, b geom.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestNewCells(t *testing.T) {
	if got := New().Cells(); got != DefaultCells {
		t.Errorf("default cells = %d", got)
	}
	if got := New(WithCells(40)).Cells(); got != 40 {
		t.Errorf("cells = %d, want 40", got)
	}
	if got := New(WithCells(0)).Cells(); got != DefaultCells {
		t.Errorf("zero cells should keep the default, got %d", got)
	}
}

func TestBoxIsCentered(t *testing.T) {
	k := New()
	min, max := k.Box(geom.Vec3{X: 38, Y: 1000, Z: 89}).BoundingBox()
	if !approx(min, geom.Vec3{X: -19, Y: -500, Z: -44.5}, 0.01) {
		t.Errorf("min = %v", min)
	}
	if !approx(max, geom.Vec3{X: 19, Y: 500, Z: 44.5}, 0.01) {
		t.Errorf("max = %v", max)
	}
}

func TestBoxMesh(t *testing.T) {
	k := New(WithCells(50))
	mesh, err := k.ToMesh(k.Box(geom.Vec3{X: 100, Y: 50, Z: 25}))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.VertexCount() {
		t.Fatalf("indices %d != vertices %d", len(mesh.Indices), mesh.VertexCount())
	}

	// Marching cubes stays within a cell of the true surface.
	cell := 100.0 / 50
	min, max := mesh.Bounds()
	if !approx(min, geom.Vec3{X: -50, Y: -25, Z: -12.5}, cell) {
		t.Errorf("mesh min = %v", min)
	}
	if !approx(max, geom.Vec3{X: 50, Y: 25, Z: 12.5}, cell) {
		t.Errorf("mesh max = %v", max)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	min, max := k.Translate(k.Box(geom.Vec3{X: 10, Y: 10, Z: 10}), geom.Vec3{X: 100, Y: 200, Z: 300}).BoundingBox()
	if !approx(min, geom.Vec3{X: 95, Y: 195, Z: 295}, 0.5) {
		t.Errorf("min = %v", min)
	}
	if !approx(max, geom.Vec3{X: 105, Y: 205, Z: 305}, 0.5) {
		t.Errorf("max = %v", max)
	}
}

func TestRotate(t *testing.T) {
	k := New()
	box := k.Box(geom.Vec3{X: 100, Y: 10, Z: 10})

	tests := []struct {
		name string
		s    func() (geom.Vec3, geom.Vec3)
	}{
		{"euler", func() (geom.Vec3, geom.Vec3) {
			return k.Rotate(box, geom.Vec3{Z: 90}).BoundingBox()
		}},
		{"axis", func() (geom.Vec3, geom.Vec3) {
			return k.RotateAxis(box, geom.Vec3{Z: 2}, math.Pi/2).BoundingBox()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.s()
			size := max.Sub(min)
			if math.Abs(size.X-10) > 1 || math.Abs(size.Y-100) > 1 {
				t.Errorf("rotated extent = %v, want ~(10, 100, 10)", size)
			}
		})
	}
}

func TestBooleans(t *testing.T) {
	k := New(WithCells(40))
	a := k.Box(geom.Vec3{X: 100, Y: 100, Z: 100})
	b := k.Translate(k.Box(geom.Vec3{X: 100, Y: 100, Z: 100}), geom.Vec3{X: 50})

	for name, s := range map[string]kernel.Solid{
		"union":        k.Union(a, b),
		"intersection": k.Intersection(a, b),
		"difference":   k.Difference(a, k.Cylinder(120, 20)),
	} {
		t.Run(name, func(t *testing.T) {
			mesh, err := k.ToMesh(s)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			if mesh.IsEmpty() {
				t.Fatal("mesh is empty")
			}
		})
	}
}
