package dts

import (
	"fmt"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// Node is a point in the shape's transform hierarchy.
// FirstObject, Child and Sibling are obsolete and always NoIndex.
type Node struct {
	Name        int32
	Parent      int32
	FirstObject int32
	Child       int32
	Sibling     int32
}

// Object is a named attachment holding one mesh per detail level. Its
// meshes occupy Meshes[FirstMesh : FirstMesh+NumMeshes].
type Object struct {
	Name       int32
	NumMeshes  int32
	FirstMesh  int32
	Node       int32
	Sibling    int32
	FirstDecal int32
}

// Subshape is a group of nodes and objects that is posed independently.
type Subshape struct {
	FirstNode   int32
	FirstObject int32
	FirstDecal  int32
	NumNodes    int32
	NumObjects  int32
	NumDecals   int32
}

// DetailLevel selects which mesh of every object in a subshape is drawn
// once the shape's projected size reaches Size pixels. A negative size
// marks a collision level that is never rendered.
type DetailLevel struct {
	Name         int32
	Subshape     int32
	ObjectDetail int32
	Size         float32
	AvgError     float32
	MaxError     float32
	PolyCount    int32
}

// ObjectState is the default visibility and frame of an object.
type ObjectState struct {
	Vis      float32
	Frame    int32
	MatFrame int32
}

// Shape is the top-level exported asset.
type Shape struct {
	Nodes        []Node
	Objects      []Object
	Subshapes    []Subshape
	DetailLevels []DetailLevel
	Materials    []Material
	Meshes       []*Mesh
	ObjectStates []ObjectState
	Names        *StringTable

	NodeDefRotations    []math.Quat
	NodeDefTranslations []math.Vec3

	Bounds     Box
	Center     math.Vec3
	Radius     float32
	TubeRadius float32

	SmallestSize        float32
	SmallestDetailLevel int32
}

// NewShape returns an empty shape with its own string table.
func NewShape() *Shape {
	return &Shape{
		Names:  NewStringTable(),
		Bounds: EmptyBox(),
	}
}

// AddName interns a name into the shape's string table.
func (s *Shape) AddName(name string) int32 {
	if s.Names == nil {
		s.Names = NewStringTable()
	}
	return s.Names.Intern(name)
}

// NodeWorldTransform accumulates the default translations and rotations
// from the root down to node n.
func (s *Shape) NodeWorldTransform(n int32) (math.Vec3, math.Quat) {
	var chain []int32
	for i := 0; n >= 0 && int(n) < len(s.Nodes) && i <= len(s.Nodes); i++ {
		chain = append(chain, n)
		n = s.Nodes[n].Parent
	}

	trans := math.Vec3{}
	rot := math.QuatIdentity()
	for i := len(chain) - 1; i >= 0; i-- {
		idx := chain[i]
		if int(idx) < len(s.NodeDefTranslations) {
			trans = trans.Add(rot.Rotate(s.NodeDefTranslations[idx]))
		}
		if int(idx) < len(s.NodeDefRotations) {
			rot = s.NodeDefRotations[idx].Mul(rot)
		}
	}
	return trans, rot
}

// eachObjectMesh calls fn for every mesh of every object with the owning
// node's world transform.
func (s *Shape) eachObjectMesh(fn func(m *Mesh, trans math.Vec3, rot math.Quat)) {
	for _, obj := range s.Objects {
		trans, rot := s.NodeWorldTransform(obj.Node)
		for j := int32(0); j < obj.NumMeshes; j++ {
			idx := obj.FirstMesh + j
			if idx < 0 || int(idx) >= len(s.Meshes) {
				continue
			}
			if m := s.Meshes[idx]; m != nil && m.Type != MeshNull {
				fn(m, trans, rot)
			}
		}
	}
}

// CalculateBounds sets the shape bounds to enclose every object mesh
// placed at its node's default transform.
func (s *Shape) CalculateBounds() {
	if len(s.Objects) == 0 {
		return
	}
	b := EmptyBox()
	s.eachObjectMesh(func(m *Mesh, trans math.Vec3, rot math.Quat) {
		b = b.Union(m.TransformedBounds(trans, rot))
	})
	s.Bounds = b
}

// CalculateCenter sets the shape center to the midpoint of its bounds.
func (s *Shape) CalculateCenter() {
	s.Center = s.Bounds.Center()
}

// CalculateRadius sets the shape radius to the largest distance from the
// shape center to any placed mesh vertex.
func (s *Shape) CalculateRadius() {
	var r float32
	s.eachObjectMesh(func(m *Mesh, trans math.Vec3, rot math.Quat) {
		if mr := m.RadiusFrom(trans, rot, s.Center); mr > r {
			r = mr
		}
	})
	s.Radius = r
}

// CalculateTubeRadius is CalculateRadius measured in the XY plane.
func (s *Shape) CalculateTubeRadius() {
	var r float32
	s.eachObjectMesh(func(m *Mesh, trans math.Vec3, rot math.Quat) {
		if mr := m.TubeRadiusFrom(trans, rot, s.Center); mr > r {
			r = mr
		}
	})
	s.TubeRadius = r
}

// CalculateDerived recomputes bounds, center, radius and tube radius.
func (s *Shape) CalculateDerived() {
	s.CalculateBounds()
	s.CalculateCenter()
	s.CalculateRadius()
	s.CalculateTubeRadius()
}

// SetSmallestSize records the minimum pixel size at which the shape is
// drawn and the first detail level below it.
func (s *Shape) SetSmallestSize(pixels int) {
	if pixels < 1 {
		pixels = 1
	}
	s.SmallestSize = float32(pixels)
	i := 0
	for ; i < len(s.DetailLevels); i++ {
		if s.DetailLevels[i].Size < float32(pixels) {
			break
		}
	}
	s.SmallestDetailLevel = int32(i)
}

// PolyCount sums the polygon count of the meshes drawn at objectDetail.
func (s *Shape) PolyCount(objectDetail int32) (int, error) {
	total := 0
	for _, obj := range s.Objects {
		if objectDetail < 0 || objectDetail >= obj.NumMeshes {
			continue
		}
		idx := obj.FirstMesh + objectDetail
		if idx < 0 || int(idx) >= len(s.Meshes) || s.Meshes[idx] == nil {
			continue
		}
		n, err := s.Meshes[idx].PolyCount()
		if err != nil {
			return 0, fmt.Errorf("mesh %d: %w", idx, err)
		}
		total += n
	}
	return total, nil
}

// Validate checks that every cross reference in the shape stays inside
// its target table. It returns an error wrapping ErrDanglingReference.
func (s *Shape) Validate() error {
	numNames := 0
	if s.Names != nil {
		numNames = s.Names.Len()
	}
	nameOK := func(i int32) bool { return i >= 0 && int(i) < numNames }

	for i, n := range s.Nodes {
		if !nameOK(n.Name) {
			return fmt.Errorf("%w: node %d name %d of %d", ErrDanglingReference, i, n.Name, numNames)
		}
		if !checkRef(n.Parent, len(s.Nodes)) || n.Parent == int32(i) {
			return fmt.Errorf("%w: node %d parent %d of %d", ErrDanglingReference, i, n.Parent, len(s.Nodes))
		}
	}
	if err := s.checkNodeCycles(); err != nil {
		return err
	}
	if len(s.NodeDefRotations) != len(s.Nodes) || len(s.NodeDefTranslations) != len(s.Nodes) {
		return fmt.Errorf("%w: %d nodes with %d default rotations and %d translations",
			ErrDanglingReference, len(s.Nodes), len(s.NodeDefRotations), len(s.NodeDefTranslations))
	}

	nextMesh := int32(0)
	for i, o := range s.Objects {
		if !nameOK(o.Name) {
			return fmt.Errorf("%w: object %d name %d of %d", ErrDanglingReference, i, o.Name, numNames)
		}
		if o.Node < 0 || int(o.Node) >= len(s.Nodes) {
			return fmt.Errorf("%w: object %d node %d of %d", ErrDanglingReference, i, o.Node, len(s.Nodes))
		}
		if o.FirstMesh < nextMesh || !spanOK(o.FirstMesh, o.NumMeshes, len(s.Meshes)) {
			return fmt.Errorf("%w: object %d meshes %d+%d of %d",
				ErrDanglingReference, i, o.FirstMesh, o.NumMeshes, len(s.Meshes))
		}
		nextMesh = o.FirstMesh + o.NumMeshes
	}
	if len(s.ObjectStates) != 0 && len(s.ObjectStates) != len(s.Objects) {
		return fmt.Errorf("%w: %d object states for %d objects",
			ErrDanglingReference, len(s.ObjectStates), len(s.Objects))
	}

	for i, m := range s.Materials {
		if !checkRef(m.Reflectance, len(s.Materials)) || !checkRef(m.Bump, len(s.Materials)) ||
			!checkRef(m.Detail, len(s.Materials)) {
			return fmt.Errorf("%w: material %d map reference out of %d materials",
				ErrDanglingReference, i, len(s.Materials))
		}
	}

	for i, m := range s.Meshes {
		if m == nil {
			return fmt.Errorf("%w: mesh %d is nil", ErrDanglingReference, i)
		}
		if !checkRef(m.Parent, len(s.Nodes)) {
			return fmt.Errorf("%w: mesh %d parent %d of %d", ErrDanglingReference, i, m.Parent, len(s.Nodes))
		}
		if err := m.validate(len(s.Materials)); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}

	for i, ss := range s.Subshapes {
		if !spanOK(ss.FirstNode, ss.NumNodes, len(s.Nodes)) || !spanOK(ss.FirstObject, ss.NumObjects, len(s.Objects)) {
			return fmt.Errorf("%w: subshape %d range outside %d nodes / %d objects",
				ErrDanglingReference, i, len(s.Nodes), len(s.Objects))
		}
	}

	for i, dl := range s.DetailLevels {
		if !nameOK(dl.Name) {
			return fmt.Errorf("%w: detail level %d name %d of %d", ErrDanglingReference, i, dl.Name, numNames)
		}
		if dl.Subshape < 0 || int(dl.Subshape) >= len(s.Subshapes) {
			return fmt.Errorf("%w: detail level %d subshape %d of %d",
				ErrDanglingReference, i, dl.Subshape, len(s.Subshapes))
		}
		if dl.ObjectDetail < 0 {
			return fmt.Errorf("%w: detail level %d object detail %d", ErrDanglingReference, i, dl.ObjectDetail)
		}
	}
	return nil
}

// checkNodeCycles walks every node's parent chain.
func (s *Shape) checkNodeCycles() error {
	for i := range s.Nodes {
		n := s.Nodes[i].Parent
		for steps := 0; n != NoIndex; steps++ {
			if steps >= len(s.Nodes) {
				return fmt.Errorf("%w: node %d is part of a parent cycle", ErrDanglingReference, i)
			}
			n = s.Nodes[n].Parent
		}
	}
	return nil
}
