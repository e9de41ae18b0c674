package dts

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// testShape returns a valid single-object shape: one root node, one
// triangle mesh bound to one material, one subshape and one detail level.
func testShape() *Shape {
	s := NewShape()
	s.Nodes = []Node{{Name: s.AddName("Root"), Parent: NoIndex, FirstObject: NoIndex, Child: NoIndex, Sibling: NoIndex}}
	s.NodeDefRotations = []math.Quat{math.QuatIdentity()}
	s.NodeDefTranslations = []math.Vec3{{}}

	m := triangleMesh()
	m.AssignMaterial(0)
	s.Meshes = []*Mesh{m}
	s.Materials = []Material{NewMaterial("brick", 0)}
	s.Objects = []Object{{Name: s.AddName("Tri"), NumMeshes: 1, FirstMesh: 0, Node: 0, Sibling: NoIndex, FirstDecal: NoIndex}}
	s.ObjectStates = []ObjectState{{Vis: 1}}
	s.Subshapes = []Subshape{{NumNodes: 1, NumObjects: 1}}
	s.DetailLevels = []DetailLevel{{Name: s.AddName("Detail-2"), Subshape: 0, ObjectDetail: 0, Size: 2, AvgError: -1, MaxError: -1, PolyCount: 1}}
	s.CalculateDerived()
	return s
}

func TestShapeValidate(t *testing.T) {
	if err := testShape().Validate(); err != nil {
		t.Fatalf("valid shape rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Shape)
	}{
		{"node name out of range", func(s *Shape) { s.Nodes[0].Name = 99 }},
		{"node parent out of range", func(s *Shape) { s.Nodes[0].Parent = 4 }},
		{"node is its own parent", func(s *Shape) { s.Nodes[0].Parent = 0 }},
		{"node cycle", func(s *Shape) {
			s.Nodes = append(s.Nodes, Node{Name: 0, Parent: 0})
			s.Nodes[0].Parent = 1
			s.NodeDefRotations = append(s.NodeDefRotations, math.QuatIdentity())
			s.NodeDefTranslations = append(s.NodeDefTranslations, math.Vec3{})
		}},
		{"missing default transforms", func(s *Shape) { s.NodeDefTranslations = nil }},
		{"object node out of range", func(s *Shape) { s.Objects[0].Node = 1 }},
		{"object mesh range past end", func(s *Shape) { s.Objects[0].NumMeshes = 2 }},
		{"object name negative", func(s *Shape) { s.Objects[0].Name = -1 }},
		{"object states mismatch", func(s *Shape) { s.ObjectStates = append(s.ObjectStates, ObjectState{}) }},
		{"mesh index past vertices", func(s *Shape) { s.Meshes[0].Indices[0] = 5 }},
		{"primitive past indices", func(s *Shape) { s.Meshes[0].Primitives[0].NumElements = 4 }},
		{"primitive material past list", func(s *Shape) { s.Meshes[0].AssignMaterial(1) }},
		{"mesh parent out of range", func(s *Shape) { s.Meshes[0].Parent = 3 }},
		{"nil mesh", func(s *Shape) { s.Meshes[0] = nil }},
		{"material map out of range", func(s *Shape) { s.Materials[0].Bump = 2 }},
		{"subshape past objects", func(s *Shape) { s.Subshapes[0].NumObjects = 2 }},
		{"primitive start wraps int32", func(s *Shape) {
			s.Meshes[0].Primitives[0].FirstElement = gomath.MaxInt32
			s.Meshes[0].Primitives[0].NumElements = 1
		}},
		{"object mesh start wraps int32", func(s *Shape) {
			s.Objects[0].FirstMesh = gomath.MaxInt32
			s.Objects[0].NumMeshes = 1
		}},
		{"subshape node start wraps int32", func(s *Shape) {
			s.Subshapes[0].FirstNode = gomath.MaxInt32
			s.Subshapes[0].NumNodes = 1
		}},
		{"subshape object start wraps int32", func(s *Shape) {
			s.Subshapes[0].FirstObject = gomath.MaxInt32
			s.Subshapes[0].NumObjects = 1
		}},
		{"detail subshape out of range", func(s *Shape) { s.DetailLevels[0].Subshape = 1 }},
		{"detail name out of range", func(s *Shape) { s.DetailLevels[0].Name = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testShape()
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrDanglingReference) {
				t.Errorf("expected ErrDanglingReference, got %v", err)
			}
		})
	}
}

func TestShapeValidateOverlappingObjects(t *testing.T) {
	s := testShape()
	s.Objects = append(s.Objects, Object{Name: 0, NumMeshes: 1, FirstMesh: 0, Node: 0})
	s.ObjectStates = append(s.ObjectStates, ObjectState{Vis: 1})
	if err := s.Validate(); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("overlapping mesh ranges: expected ErrDanglingReference, got %v", err)
	}
}

func TestShapeDerived(t *testing.T) {
	s := testShape()
	s.NodeDefTranslations[0] = math.Vec3{Z: 2}
	s.CalculateDerived()

	want := Box{Min: math.Vec3{Z: 2}, Max: math.Vec3{X: 1, Y: 1, Z: 2}}
	if s.Bounds != want {
		t.Errorf("bounds = %v, want %v", s.Bounds, want)
	}
	if s.Center != (math.Vec3{X: 0.5, Y: 0.5, Z: 2}) {
		t.Errorf("center = %v", s.Center)
	}
	r := float32(gomath.Sqrt(0.5))
	if gomath.Abs(float64(s.Radius-r)) > 1e-6 {
		t.Errorf("radius = %v, want %v", s.Radius, r)
	}
	if gomath.Abs(float64(s.TubeRadius-r)) > 1e-6 {
		t.Errorf("tube radius = %v, want %v", s.TubeRadius, r)
	}
}

func TestShapeNodeWorldTransform(t *testing.T) {
	s := NewShape()
	s.Nodes = []Node{
		{Name: s.AddName("Root"), Parent: NoIndex},
		{Name: s.AddName("Arm"), Parent: 0},
	}
	s.NodeDefRotations = []math.Quat{
		math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2),
		math.QuatIdentity(),
	}
	s.NodeDefTranslations = []math.Vec3{{X: 1}, {X: 1}}

	trans, _ := s.NodeWorldTransform(1)
	want := math.Vec3{X: 1, Y: 1}
	if trans.Distance(want) > 1e-5 {
		t.Errorf("world translation = %v, want %v", trans, want)
	}
}

func TestShapeSetSmallestSize(t *testing.T) {
	s := NewShape()
	s.DetailLevels = []DetailLevel{{Size: 64}, {Size: 16}, {Size: -1}}

	tests := []struct {
		pixels int
		level  int32
	}{
		{10, 2},
		{20, 1},
		{100, 0},
		{0, 2},
	}
	for _, tt := range tests {
		s.SetSmallestSize(tt.pixels)
		if s.SmallestDetailLevel != tt.level {
			t.Errorf("SetSmallestSize(%d): level = %d, want %d", tt.pixels, s.SmallestDetailLevel, tt.level)
		}
	}
	if s.SmallestSize != 1 {
		t.Errorf("smallest size clamps to 1, got %v", s.SmallestSize)
	}
}

func TestShapePolyCount(t *testing.T) {
	s := testShape()
	if n, err := s.PolyCount(0); err != nil || n != 1 {
		t.Errorf("PolyCount(0) = %d, %v; want 1", n, err)
	}
	if n, _ := s.PolyCount(1); n != 0 {
		t.Errorf("PolyCount(1) = %d, want 0", n)
	}
}
