package tessellate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/lumberyard/pkg/geom"
	"github.com/chazu/lumberyard/pkg/kernel"
	"github.com/chazu/lumberyard/pkg/kernel/sdfx"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/tessellate"
)

const cells = 100

func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithCells(cells))
}

func makePiece(id string, t lumber.Type, start, end geom.Vec3) lumber.Lumber {
	p := lumber.PlacementBetween(t, start, end)
	return lumber.Lumber{ID: id, Type: t, Position: p.Position, Length: p.Length, Rotation: p.Rotation}
}

func checkBounds(t *testing.T, m *kernel.Mesh, wantMin, wantMax geom.Vec3, tol float64) {
	t.Helper()
	min, max := m.Bounds()
	if !min.ApproxEqual(wantMin, tol) {
		t.Errorf("mesh min = %v, want ~%v", min, wantMin)
	}
	if !max.ApproxEqual(wantMax, tol) {
		t.Errorf("mesh max = %v, want ~%v", max, wantMax)
	}
}

func TestUprightPiece(t *testing.T) {
	l := makePiece("post", lumber.TwoByFour, geom.Vec3{}, geom.Vec3{Y: 1000})
	meshes, err := tessellate.Tessellate([]lumber.Lumber{l}, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.LumberID != "post" {
		t.Errorf("LumberID = %q", m.LumberID)
	}
	// Marching cubes lands within a cell of the surface.
	tol := 1000.0 / cells
	checkBounds(t, m, geom.Vec3{X: -19, Y: 0, Z: -44.5}, geom.Vec3{X: 19, Y: 1000, Z: 44.5}, tol)
}

func TestMeshFollowsRotation(t *testing.T) {
	// Rotating local Y onto X turns local X to -Y, so the 38mm side is
	// vertical and the 89mm side runs along Z.
	l := makePiece("beam", lumber.TwoByFour, geom.Vec3{Y: 200}, geom.Vec3{X: 1000, Y: 200})
	meshes, err := tessellate.Tessellate([]lumber.Lumber{l}, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	tol := 1000.0 / cells
	checkBounds(t, meshes[0], geom.Vec3{X: 0, Y: 181, Z: -44.5}, geom.Vec3{X: 1000, Y: 219, Z: 44.5}, tol)
}

func TestQuarterTwistChangesFootprint(t *testing.T) {
	plain := makePiece("plain", lumber.TwoByFour, geom.Vec3{}, geom.Vec3{Y: 500})
	twisted := plain
	twisted.ID = "twisted"
	twisted.Rotation = geom.RotateAroundAxis90(plain.Rotation, geom.UnitY)

	meshes, err := tessellate.Tessellate([]lumber.Lumber{plain, twisted}, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	tol := 500.0 / cells
	checkBounds(t, meshes[0], geom.Vec3{X: -19, Z: -44.5}, geom.Vec3{X: 19, Y: 500, Z: 44.5}, tol)
	checkBounds(t, meshes[1], geom.Vec3{X: -44.5, Z: -19}, geom.Vec3{X: 44.5, Y: 500, Z: 19}, tol)
}

func TestSolidBoundingBox(t *testing.T) {
	k := newKernel()
	l := makePiece("r", lumber.Rafter, geom.Vec3{X: 10, Z: 10}, geom.Vec3{X: 10, Z: 510})
	s, err := tessellate.Solid(k, l)
	if err != nil {
		t.Fatal(err)
	}
	min, max := s.BoundingBox()
	size := max.Sub(min)
	if math.Abs(size.Z-500) > 0.01 || math.Abs(size.X-30) > 0.01 || math.Abs(size.Y-30) > 0.01 {
		t.Errorf("solid size = %v, want (30, 30, 500)", size)
	}
}

func TestOrderAndIDs(t *testing.T) {
	lumbers := []lumber.Lumber{
		makePiece("a", lumber.OneByFour, geom.Vec3{}, geom.Vec3{X: 300}),
		makePiece("b", lumber.Rafter, geom.Vec3{}, geom.Vec3{Z: 300}),
	}
	meshes, err := tessellate.Tessellate(lumbers, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 || meshes[0].LumberID != "a" || meshes[1].LumberID != "b" {
		t.Fatalf("unexpected meshes: %d", len(meshes))
	}
	for _, m := range meshes {
		if m.IsEmpty() {
			t.Errorf("mesh %s is empty", m.LumberID)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel())
	if err != nil || len(meshes) != 0 {
		t.Fatalf("Tessellate(nil) = %v, %v", meshes, err)
	}
}

func TestInvalidPieces(t *testing.T) {
	unknown := makePiece("x", lumber.TwoByFour, geom.Vec3{}, geom.Vec3{Y: 10})
	unknown.Type = "4x4"
	_, err := tessellate.Tessellate([]lumber.Lumber{unknown}, newKernel())
	if !errors.Is(err, lumber.ErrUnknownType) {
		t.Errorf("unknown type error = %v", err)
	}

	flat := makePiece("y", lumber.TwoByFour, geom.Vec3{}, geom.Vec3{})
	if _, err := tessellate.Tessellate([]lumber.Lumber{flat}, newKernel()); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestFaceOutline(t *testing.T) {
	l := makePiece("p", lumber.TwoByFour, geom.Vec3{}, geom.Vec3{Y: 500})
	top := lumber.Faces(l)[1]
	out := tessellate.FaceOutline(top, 0.5)
	if len(out) != 12 {
		t.Fatalf("len = %d, want 12", len(out))
	}
	for i := 0; i < 4; i++ {
		y := float64(out[i*3+1])
		if math.Abs(y-500.5) > 1e-3 {
			t.Errorf("vertex %d y = %v, want 500.5", i, y)
		}
	}
}
