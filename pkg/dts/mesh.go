package dts

import (
	"fmt"
	"strings"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// MeshType identifies how the runtime interprets a mesh.
type MeshType int32

// Mesh types.
const (
	MeshStandard MeshType = 0
	MeshSkin     MeshType = 1
	MeshDecal    MeshType = 2
	MeshSorted   MeshType = 3
	MeshNull     MeshType = 4
)

// String returns a human-readable mesh type name.
func (t MeshType) String() string {
	switch t {
	case MeshStandard:
		return "Standard"
	case MeshSkin:
		return "Skin"
	case MeshDecal:
		return "Decal"
	case MeshSorted:
		return "Sorted"
	case MeshNull:
		return "Null"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// MeshFlags holds per-mesh rendering flags.
type MeshFlags uint32

// Mesh flags.
const (
	Billboard      MeshFlags = 0x80000000
	HasDetail      MeshFlags = 0x40000000
	BillboardZ     MeshFlags = 0x20000000
	EncodedNormals MeshFlags = 0x10000000
)

// meshTags maps object name tags to the mesh flags they enable.
var meshTags = map[string]MeshFlags{
	"billboard":  Billboard,
	"billboardz": Billboard | BillboardZ,
	"enormals":   EncodedNormals,
}

// ParseMeshName splits "name:tag,tag" into the bare object name and the
// mesh flags the tags enable. Unknown tags are ignored.
func ParseMeshName(name string) (string, MeshFlags) {
	base, tags, found := strings.Cut(name, ":")
	if !found {
		return name, 0
	}
	var flags MeshFlags
	for _, tag := range strings.Split(tags, ",") {
		flags |= meshTags[strings.ToLower(strings.TrimSpace(tag))]
	}
	return strings.TrimSpace(base), flags
}

// Mesh is one detail level of an object: vertex data for every frame, the
// primitives drawing it, and the derived bounds used for culling.
type Mesh struct {
	Type      MeshType
	NumFrames int32
	MatFrames int32
	Parent    int32

	Verts    []math.Vec3
	TVerts   []math.Vec2
	Normals  []math.Vec3
	ENormals []uint8

	Primitives []Primitive
	Indices    []uint16
	MIndices   []uint16

	Bounds        Box
	Center        math.Vec3
	Radius        float32
	VertsPerFrame int32
	Flags         MeshFlags

	// Skin data. Never populated: skin weighting is not supported.
	VIndex        []int32
	VBone         []int32
	VWeight       []float32
	NodeIndex     []int32
	NodeTransform [][16]float32
}

// NewMesh returns an empty single-frame mesh of the given type.
func NewMesh(t MeshType) *Mesh {
	return &Mesh{
		Type:      t,
		NumFrames: 1,
		MatFrames: 1,
		Parent:    NoIndex,
	}
}

// SetFrames sets the frame count and derives the per-frame vertex count.
// The vertex list must split evenly into n frames.
func (m *Mesh) SetFrames(n int32) error {
	if n < 1 {
		return fmt.Errorf("%w: %d frames", ErrInvalidGeometry, n)
	}
	if len(m.Verts)%int(n) != 0 {
		return fmt.Errorf("%w: %d vertices do not split into %d frames", ErrInvalidGeometry, len(m.Verts), n)
	}
	m.NumFrames = n
	m.VertsPerFrame = int32(len(m.Verts) / int(n))
	return nil
}

// FrameVerts returns the vertices of frame 0.
func (m *Mesh) FrameVerts() []math.Vec3 {
	n := int(m.VertsPerFrame)
	if n <= 0 || n > len(m.Verts) {
		return m.Verts
	}
	return m.Verts[:n]
}

// CalculateBounds recomputes Bounds over every vertex of every frame.
// An empty mesh ends up with an inverted box.
func (m *Mesh) CalculateBounds() {
	m.Bounds = m.TransformedBounds(math.Vec3{}, math.QuatIdentity())
}

// TransformedBounds returns the bounds of the vertices after rotating by
// rot and translating by trans.
func (m *Mesh) TransformedBounds(trans math.Vec3, rot math.Quat) Box {
	b := EmptyBox()
	for _, v := range m.Verts {
		b = b.Extend(rot.Rotate(v).Add(trans))
	}
	return b
}

// CalculateCenter sets Center to the midpoint of Bounds.
func (m *Mesh) CalculateCenter() {
	m.Center = m.Bounds.Center()
}

// CalculateRadius sets Radius to the largest distance from Center to a
// vertex of frame 0. Call after CalculateCenter.
func (m *Mesh) CalculateRadius() {
	m.Radius = m.RadiusFrom(math.Vec3{}, math.QuatIdentity(), m.Center)
}

// CalculateDerived recomputes bounds, center and radius in order.
func (m *Mesh) CalculateDerived() {
	m.CalculateBounds()
	m.CalculateCenter()
	m.CalculateRadius()
}

// RadiusFrom returns the largest distance from center to a transformed
// vertex of frame 0.
func (m *Mesh) RadiusFrom(trans math.Vec3, rot math.Quat, center math.Vec3) float32 {
	var radius float32
	for _, v := range m.FrameVerts() {
		if d := rot.Rotate(v).Add(trans).Distance(center); d > radius {
			radius = d
		}
	}
	return radius
}

// TubeRadiusFrom is RadiusFrom measured in the XY plane only.
func (m *Mesh) TubeRadiusFrom(trans math.Vec3, rot math.Quat, center math.Vec3) float32 {
	var radius float32
	for _, v := range m.FrameVerts() {
		if d := rot.Rotate(v).Add(trans).Sub(center).LengthXY(); d > radius {
			radius = d
		}
	}
	return radius
}

// PolyCount returns the number of triangles drawn by all primitives.
func (m *Mesh) PolyCount() (int, error) {
	total := 0
	for i, p := range m.Primitives {
		n, err := p.PolyCount()
		if err != nil {
			return 0, fmt.Errorf("primitive %d: %w", i, err)
		}
		total += n
	}
	return total, nil
}

// SetMaterial writes n, truncated to the material mask, into every
// primitive's material bits. Topology and flag bits are unchanged.
func (m *Mesh) SetMaterial(n int32) {
	for i := range m.Primitives {
		m.Primitives[i].SetMaterial(n)
	}
}

// AssignMaterial sets the material index and clears NoMaterial on every
// primitive, binding the mesh to material n.
func (m *Mesh) AssignMaterial(n int32) {
	for i := range m.Primitives {
		m.Primitives[i].SetMaterial(n)
		m.Primitives[i].Type &^= NoMaterial
	}
}

// Translate moves every vertex by d and recomputes the derived attributes.
func (m *Mesh) Translate(d math.Vec3) {
	for i, v := range m.Verts {
		m.Verts[i] = v.Add(d)
	}
	m.CalculateDerived()
}

// Rotate rotates every vertex and normal by q and recomputes the derived
// attributes.
func (m *Mesh) Rotate(q math.Quat) {
	for i, v := range m.Verts {
		m.Verts[i] = q.Rotate(v)
	}
	for i, n := range m.Normals {
		m.Normals[i] = q.Rotate(n)
	}
	if len(m.ENormals) == len(m.Normals) {
		m.ENormals = EncodeNormals(m.Normals)
	}
	m.CalculateDerived()
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Verts = append([]math.Vec3(nil), m.Verts...)
	c.TVerts = append([]math.Vec2(nil), m.TVerts...)
	c.Normals = append([]math.Vec3(nil), m.Normals...)
	c.ENormals = append([]uint8(nil), m.ENormals...)
	c.Primitives = append([]Primitive(nil), m.Primitives...)
	c.Indices = append([]uint16(nil), m.Indices...)
	c.MIndices = append([]uint16(nil), m.MIndices...)
	return &c
}

// validate checks the mesh's internal index ranges and its material
// references against numMaterials.
func (m *Mesh) validate(numMaterials int) error {
	if m.Type == MeshNull {
		return nil
	}
	for i, p := range m.Primitives {
		if !spanOK(p.FirstElement, p.NumElements, len(m.Indices)) {
			return fmt.Errorf("%w: primitive %d covers %d+%d of %d indices",
				ErrDanglingReference, i, p.FirstElement, p.NumElements, len(m.Indices))
		}
		if mat, ok := p.Material(); ok && int(mat) >= numMaterials {
			return fmt.Errorf("%w: primitive %d material %d of %d",
				ErrDanglingReference, i, mat, numMaterials)
		}
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Verts) {
			return fmt.Errorf("%w: index %d references vertex %d of %d",
				ErrDanglingReference, i, idx, len(m.Verts))
		}
	}
	return nil
}
