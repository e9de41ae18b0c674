package dts

import "fmt"

// Visitor receives the tables of a validated shape in serialization order.
// Returning an error stops the walk.
type Visitor interface {
	VisitNames(names []string) error
	VisitNodes(nodes []Node) error
	VisitObjects(objects []Object) error
	VisitMaterials(materials []Material) error
	BeginMesh(index int, m *Mesh) error
	VisitPrimitives(mesh int, primitives []Primitive) error
	VisitIndices(mesh int, indices []uint16) error
	EndMesh(index int, m *Mesh) error
	VisitSubshapes(subshapes []Subshape) error
	VisitDetailLevels(levels []DetailLevel) error
}

// Walk validates every cross reference of s and then visits its tables:
// string table, nodes, objects, materials, each mesh with its primitive
// and index blocks, subshapes and detail levels. Each table is visited
// exactly once. Nothing is visited when validation fails.
func Walk(s *Shape, v Visitor) error {
	if s == nil {
		return fmt.Errorf("%w: nil shape", ErrEmptyShape)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	var names []string
	if s.Names != nil {
		names = s.Names.Names()
	}
	if err := v.VisitNames(names); err != nil {
		return err
	}
	if err := v.VisitNodes(s.Nodes); err != nil {
		return err
	}
	if err := v.VisitObjects(s.Objects); err != nil {
		return err
	}
	if err := v.VisitMaterials(s.Materials); err != nil {
		return err
	}
	for i, m := range s.Meshes {
		if err := v.BeginMesh(i, m); err != nil {
			return err
		}
		if err := v.VisitPrimitives(i, m.Primitives); err != nil {
			return err
		}
		if err := v.VisitIndices(i, m.Indices); err != nil {
			return err
		}
		if err := v.EndMesh(i, m); err != nil {
			return err
		}
	}
	if err := v.VisitSubshapes(s.Subshapes); err != nil {
		return err
	}
	return v.VisitDetailLevels(s.DetailLevels)
}
