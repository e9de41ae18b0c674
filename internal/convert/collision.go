package convert

import (
	"fmt"

	"github.com/Faultbox/dtsconv/internal/source"
	"github.com/Faultbox/dtsconv/pkg/dts"
)

// boxFaces lists the 12 outward-facing triangles of a box whose corner i
// takes the max bound on X when bit 0 is set, Y for bit 1 and Z for bit 2.
var boxFaces = [][3]int{
	{0, 2, 1}, {1, 2, 3}, // -Z
	{4, 5, 6}, {5, 7, 6}, // +Z
	{0, 1, 4}, {1, 5, 4}, // -Y
	{2, 6, 3}, {3, 6, 7}, // +Y
	{0, 4, 2}, {2, 4, 6}, // -X
	{1, 3, 5}, {3, 7, 5}, // +X
}

// boxObject returns a closed box mesh covering b.
func boxObject(name string, b dts.Box) *source.Mesh {
	center := b.Center()
	verts := make([]source.Vertex, 8)
	for i := range verts {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		verts[i] = source.Vertex{Position: p, Normal: p.Sub(center).Normalize()}
	}
	return &source.Mesh{ID: name, Verts: verts, Tris: boxFaces}
}

// addCollision appends the collision object: a Null mesh for every
// visible detail level followed by a box around the current shape bounds
// drawn only at the collision level.
func (a *Assembler) addCollision(s *dts.Shape) error {
	if s.Bounds.IsEmpty() {
		return fmt.Errorf("%w: no vertices to build a collision box from", dts.ErrInvalidGeometry)
	}
	box, err := BuildMesh(boxObject(CollisionObjectName, s.Bounds), BuildOptions{Scale: 1, Topology: dts.Triangles})
	if err != nil {
		return fmt.Errorf("collision box: %w", err)
	}

	meshes := make([]*dts.Mesh, 0, len(a.sizes)+1)
	for range a.sizes {
		meshes = append(meshes, dts.NewMesh(dts.MeshNull))
	}
	meshes = append(meshes, box)

	node := addNode(s, CollisionObjectName)
	s.Objects = append(s.Objects, dts.Object{
		Name:       s.AddName(CollisionObjectName),
		NumMeshes:  int32(len(meshes)),
		FirstMesh:  int32(len(s.Meshes)),
		Node:       node,
		Sibling:    dts.NoIndex,
		FirstDecal: dts.NoIndex,
	})
	s.ObjectStates = append(s.ObjectStates, dts.ObjectState{Vis: 1})
	s.Meshes = append(s.Meshes, meshes...)
	return nil
}
