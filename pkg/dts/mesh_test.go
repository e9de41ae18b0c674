package dts

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/dtsconv/pkg/math"
)

func triangleMesh() *Mesh {
	m := NewMesh(MeshStandard)
	m.Verts = []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	m.TVerts = make([]math.Vec2, 3)
	m.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}}
	m.ENormals = EncodeNormals(m.Normals)
	m.Indices = []uint16{2, 1, 0}
	m.Primitives, _ = EncodePrimitives(m.Indices, Strip)
	m.SetFrames(1)
	m.CalculateDerived()
	return m
}

func TestMeshDerivedAttributes(t *testing.T) {
	m := triangleMesh()

	if m.Bounds.Min != (math.Vec3{}) {
		t.Errorf("bounds.min = %v, want (0,0,0)", m.Bounds.Min)
	}
	if m.Bounds.Max != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("bounds.max = %v, want (1,1,0)", m.Bounds.Max)
	}
	if m.Center != (math.Vec3{X: 0.5, Y: 0.5}) {
		t.Errorf("center = %v, want (0.5,0.5,0)", m.Center)
	}
	want := float32(gomath.Sqrt(0.5))
	if gomath.Abs(float64(m.Radius-want)) > 1e-6 {
		t.Errorf("radius = %v, want %v", m.Radius, want)
	}
}

func TestMeshRadiusCoversFrameZero(t *testing.T) {
	m := NewMesh(MeshStandard)
	m.Verts = []math.Vec3{
		{X: -3, Y: 2, Z: 1}, {X: 4, Y: -1, Z: 0.5}, {X: 0.25, Y: 7, Z: -2}, {X: 1, Y: 1, Z: 1},
	}
	m.SetFrames(1)
	m.CalculateDerived()

	for i := 0; i < 3; i++ {
		if m.Bounds.Min.Axis(i) > m.Bounds.Max.Axis(i) {
			t.Errorf("axis %d: min %v > max %v", i, m.Bounds.Min.Axis(i), m.Bounds.Max.Axis(i))
		}
		c := m.Bounds.Min.Axis(i) + (m.Bounds.Max.Axis(i)-m.Bounds.Min.Axis(i))/2
		if gomath.Abs(float64(m.Center.Axis(i)-c)) > 1e-6 {
			t.Errorf("axis %d: center %v, want %v", i, m.Center.Axis(i), c)
		}
	}

	hit := false
	for _, v := range m.Verts {
		d := v.Distance(m.Center)
		if d > m.Radius {
			t.Errorf("vertex %v at %v outside radius %v", v, d, m.Radius)
		}
		if d == m.Radius {
			hit = true
		}
	}
	if !hit {
		t.Error("radius is not attained by any vertex")
	}
	for _, v := range m.Verts {
		if !m.Bounds.Contains(v) {
			t.Errorf("vertex %v outside bounds %v", v, m.Bounds)
		}
	}
}

func TestMeshFrames(t *testing.T) {
	m := NewMesh(MeshStandard)
	m.Verts = []math.Vec3{
		// frame 0
		{X: -1}, {X: 1},
		// frame 1
		{X: -3}, {X: 11},
	}
	if err := m.SetFrames(2); err != nil {
		t.Fatalf("SetFrames(2) error = %v", err)
	}
	if m.NumFrames != 2 || m.VertsPerFrame != 2 {
		t.Fatalf("frames = %d, verts per frame = %d", m.NumFrames, m.VertsPerFrame)
	}
	if got := len(m.FrameVerts()); got != 2 {
		t.Errorf("FrameVerts() has %d vertices, want 2", got)
	}

	m.CalculateDerived()
	if m.Bounds.Max.X != 11 {
		t.Errorf("bounds.max.x = %v, want 11 from frame 1", m.Bounds.Max.X)
	}
	if m.Bounds.Min.X != -3 {
		t.Errorf("bounds.min.x = %v, want -3 from frame 1", m.Bounds.Min.X)
	}
	if m.Center != (math.Vec3{X: 4}) {
		t.Errorf("center = %v, want (4,0,0)", m.Center)
	}
	// (11,0,0) is 7 from the center but belongs to frame 1.
	if m.Radius != 5 {
		t.Errorf("radius = %v, want 5 from frame 0", m.Radius)
	}
}

func TestMeshSetFramesErrors(t *testing.T) {
	tests := []struct {
		name   string
		verts  int
		frames int32
	}{
		{"uneven split", 5, 2},
		{"zero frames", 4, 0},
		{"negative frames", 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMesh(MeshStandard)
			m.Verts = make([]math.Vec3, tt.verts)
			if err := m.SetFrames(tt.frames); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("SetFrames(%d) over %d vertices: expected ErrInvalidGeometry, got %v", tt.frames, tt.verts, err)
			}
			if m.NumFrames != 1 || m.VertsPerFrame != 0 {
				t.Errorf("failed SetFrames changed the mesh: frames %d, verts per frame %d", m.NumFrames, m.VertsPerFrame)
			}
		})
	}
}

func TestMeshEmptyBounds(t *testing.T) {
	m := NewMesh(MeshStandard)
	m.CalculateDerived()
	if !m.Bounds.IsEmpty() {
		t.Errorf("empty mesh bounds should be inverted, got %v", m.Bounds)
	}
	if m.Radius != 0 {
		t.Errorf("empty mesh radius = %v, want 0", m.Radius)
	}
}

func TestMeshSetMaterial(t *testing.T) {
	m := triangleMesh()
	m.Primitives = append(m.Primitives, Primitive{Type: Triangles | 9})
	before := []PrimitiveType{m.Primitives[0].Type &^ MaterialMask, m.Primitives[1].Type &^ MaterialMask}

	m.SetMaterial(0x12345678)
	for i, p := range m.Primitives {
		got, _ := p.Material()
		if got != 0x02345678 {
			t.Errorf("primitive %d material = 0x%x, want 0x2345678", i, got)
		}
		if p.Type&^MaterialMask != before[i] {
			t.Errorf("primitive %d flags changed", i)
		}
	}

	m.AssignMaterial(4)
	for i, p := range m.Primitives {
		mat, ok := p.Material()
		if !ok || mat != 4 {
			t.Errorf("primitive %d: material %d (bound %v), want 4", i, mat, ok)
		}
	}
}

func TestMeshPolyCount(t *testing.T) {
	m := triangleMesh()
	if n, err := m.PolyCount(); err != nil || n != 1 {
		t.Errorf("PolyCount() = %d, %v; want 1", n, err)
	}

	m.Primitives = append(m.Primitives, Primitive{NumElements: 10, Type: Triangles})
	if _, err := m.PolyCount(); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestMeshTranslate(t *testing.T) {
	m := triangleMesh()
	m.Translate(math.Vec3{X: 10})
	if m.Bounds.Min.X != 10 || m.Bounds.Max.X != 11 {
		t.Errorf("translated bounds = %v", m.Bounds)
	}
	if m.Center.X != 10.5 {
		t.Errorf("translated center = %v", m.Center)
	}
}

func TestMeshClone(t *testing.T) {
	m := triangleMesh()
	c := m.Clone()
	c.Verts[0] = math.Vec3{X: 9}
	c.Primitives[0].SetMaterial(3)
	if m.Verts[0] != (math.Vec3{}) {
		t.Error("clone shares vertex storage")
	}
	if mat, _ := m.Primitives[0].Material(); mat != 0 {
		t.Error("clone shares primitive storage")
	}
}

func TestParseMeshName(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		flags MeshFlags
	}{
		{"Body", "Body", 0},
		{"Tree:billboard", "Tree", Billboard},
		{"Tree:BillboardZ", "Tree", Billboard | BillboardZ},
		{"Rock: enormals , unknown", "Rock", EncodedNormals},
	}
	for _, tt := range tests {
		name, flags := ParseMeshName(tt.in)
		if name != tt.name || flags != tt.flags {
			t.Errorf("ParseMeshName(%q) = %q, 0x%x; want %q, 0x%x", tt.in, name, flags, tt.name, tt.flags)
		}
	}
}

func TestMeshTypeString(t *testing.T) {
	if MeshNull.String() != "Null" || MeshType(9).String() != "Unknown(9)" {
		t.Errorf("unexpected names %q, %q", MeshNull, MeshType(9))
	}
}
