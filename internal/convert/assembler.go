package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/dtsconv/pkg/dts"
	"github.com/Faultbox/dtsconv/pkg/math"
)

// Names given to the generated collision detail level and object.
const (
	CollisionDetailName = "Collision-1"
	CollisionObjectName = "Col"
)

// AssembleOptions controls the shape-level tables.
type AssembleOptions struct {
	// DetailSizes are the pixel sizes of the visible detail levels. Mesh
	// slot i of every object is drawn at the i-th largest size. Empty
	// means a single level of size 2.
	DetailSizes []int
	// SmallestSize is the smallest pixel size the shape is drawn at.
	SmallestSize int
	// Collision adds a bounding box collision object and detail level.
	Collision bool
}

type pendingObject struct {
	name   string
	meshes []*dts.Mesh
}

// Assembler collects objects and materials and builds a shape from them.
type Assembler struct {
	opts      AssembleOptions
	sizes     []int
	objects   []pendingObject
	materials []dts.Material
	matIndex  map[string]int32
}

// NewAssembler returns an empty assembler.
func NewAssembler(opts AssembleOptions) *Assembler {
	sizes := append([]int(nil), opts.DetailSizes...)
	if len(sizes) == 0 {
		sizes = []int{2}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return &Assembler{
		opts:     opts,
		sizes:    sizes,
		matIndex: make(map[string]int32),
	}
}

// DetailCount returns the number of visible detail levels.
func (a *Assembler) DetailCount() int {
	return len(a.sizes)
}

// Add registers an object with one mesh per detail level, largest first.
// Name tags after a colon are stripped from the stored name.
func (a *Assembler) Add(name string, meshes ...*dts.Mesh) error {
	base, _ := dts.ParseMeshName(name)
	if strings.TrimSpace(base) == "" {
		return fmt.Errorf("%w: object name %q is empty", dts.ErrInvalidGeometry, name)
	}
	if len(meshes) == 0 || len(meshes) > len(a.sizes) {
		return fmt.Errorf("%w: object %q has %d meshes for %d detail levels",
			dts.ErrInvalidGeometry, base, len(meshes), len(a.sizes))
	}
	for i, m := range meshes {
		if m == nil {
			return fmt.Errorf("%w: object %q mesh %d is nil", dts.ErrInvalidGeometry, base, i)
		}
	}
	a.objects = append(a.objects, pendingObject{name: base, meshes: append([]*dts.Mesh(nil), meshes...)})
	return nil
}

// AddMaterial registers a texture, parsing "name:tag,tag" flags, and
// returns its material index. Textures are matched case-insensitively
// and registered once.
func (a *Assembler) AddMaterial(texture string) int32 {
	name, flags := dts.ParseMaterialName(texture)
	key := strings.ToLower(name)
	if idx, ok := a.matIndex[key]; ok {
		return idx
	}
	idx := int32(len(a.materials))
	m := dts.NewMaterial(name, idx)
	m.Flags |= flags
	a.materials = append(a.materials, m)
	a.matIndex[key] = idx
	return idx
}

// Build assembles the shape: one root node per object, contiguous mesh
// ranges in the order objects were added, a single subshape, one detail
// level per size and the optional collision level. Derived bounds are
// computed and every cross reference is validated.
func (a *Assembler) Build() (*dts.Shape, error) {
	if len(a.objects) == 0 {
		return nil, dts.ErrEmptyShape
	}

	s := dts.NewShape()
	for _, obj := range a.objects {
		node := addNode(s, obj.name)
		s.Objects = append(s.Objects, dts.Object{
			Name:       s.AddName(obj.name),
			NumMeshes:  int32(len(obj.meshes)),
			FirstMesh:  int32(len(s.Meshes)),
			Node:       node,
			Sibling:    dts.NoIndex,
			FirstDecal: dts.NoIndex,
		})
		s.ObjectStates = append(s.ObjectStates, dts.ObjectState{Vis: 1})
		s.Meshes = append(s.Meshes, obj.meshes...)
	}
	s.Materials = append([]dts.Material(nil), a.materials...)
	s.CalculateDerived()

	if a.opts.Collision {
		if err := a.addCollision(s); err != nil {
			return nil, err
		}
	}

	s.Subshapes = []dts.Subshape{{
		FirstNode:   0,
		FirstObject: 0,
		FirstDecal:  0,
		NumNodes:    int32(len(s.Nodes)),
		NumObjects:  int32(len(s.Objects)),
		NumDecals:   0,
	}}

	for i, size := range a.sizes {
		if err := addDetail(s, fmt.Sprintf("Detail-%d", size), int32(i), float32(size)); err != nil {
			return nil, err
		}
	}
	if a.opts.Collision {
		if err := addDetail(s, CollisionDetailName, int32(len(a.sizes)), -1); err != nil {
			return nil, err
		}
	}

	s.CalculateDerived()
	s.SetSmallestSize(a.opts.SmallestSize)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func addNode(s *dts.Shape, name string) int32 {
	s.Nodes = append(s.Nodes, dts.Node{
		Name:        s.AddName(name),
		Parent:      dts.NoIndex,
		FirstObject: dts.NoIndex,
		Child:       dts.NoIndex,
		Sibling:     dts.NoIndex,
	})
	s.NodeDefRotations = append(s.NodeDefRotations, math.QuatIdentity())
	s.NodeDefTranslations = append(s.NodeDefTranslations, math.Vec3{})
	return int32(len(s.Nodes) - 1)
}

func addDetail(s *dts.Shape, name string, objectDetail int32, size float32) error {
	polys, err := s.PolyCount(objectDetail)
	if err != nil {
		return fmt.Errorf("detail level %q: %w", name, err)
	}
	s.DetailLevels = append(s.DetailLevels, dts.DetailLevel{
		Name:         s.AddName(name),
		Subshape:     0,
		ObjectDetail: objectDetail,
		Size:         size,
		AvgError:     -1,
		MaxError:     -1,
		PolyCount:    int32(polys),
	})
	return nil
}
