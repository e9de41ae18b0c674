package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// GLTF is a Source over a decoded glTF document.
type GLTF struct {
	doc *gltf.Document
}

// OpenGLTF reads a .gltf or .glb file together with its external buffers.
func OpenGLTF(path string) (*GLTF, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gltf %q: %w", path, err)
	}
	return &GLTF{doc: doc}, nil
}

// DecodeGLTF reads a self-contained glTF document from r.
func DecodeGLTF(r io.Reader) (*GLTF, error) {
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to read gltf: %w", err)
	}
	return &GLTF{doc: doc}, nil
}

// Objects implements Source. Every node of the active scene that has a
// mesh becomes one object; its triangle primitives are merged and placed
// by the node's world transform. Nodes without triangles are skipped.
func (g *GLTF) Objects() ([]Object, error) {
	var objects []Object
	var visit func(id uint32, parent mgl32.Mat4, depth int) error
	visit = func(id uint32, parent mgl32.Mat4, depth int) error {
		if int(id) >= len(g.doc.Nodes) || depth > len(g.doc.Nodes) {
			return fmt.Errorf("gltf node %d out of range or cyclic", id)
		}
		node := g.doc.Nodes[id]
		world := parent.Mul4(localMatrix(node))
		if node.Mesh != nil {
			m, err := g.meshObject(id, node, world)
			if err != nil {
				return err
			}
			if m != nil {
				objects = append(objects, m)
			}
		}
		for _, child := range node.Children {
			if err := visit(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, id := range g.roots() {
		if err := visit(id, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return objects, nil
}

// roots returns the root nodes of the default scene, or every node that
// is nobody's child when the document has no scenes.
func (g *GLTF) roots() []uint32 {
	if len(g.doc.Scenes) > 0 {
		scene := 0
		if g.doc.Scene != nil && int(*g.doc.Scene) < len(g.doc.Scenes) {
			scene = int(*g.doc.Scene)
		}
		return g.doc.Scenes[scene].Nodes
	}

	child := make(map[uint32]bool)
	for _, n := range g.doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range g.doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (g *GLTF) meshObject(id uint32, node *gltf.Node, world mgl32.Mat4) (*Mesh, error) {
	if int(*node.Mesh) >= len(g.doc.Meshes) {
		return nil, fmt.Errorf("gltf node %d references missing mesh %d", id, *node.Mesh)
	}
	mesh := g.doc.Meshes[*node.Mesh]

	name := node.Name
	if name == "" {
		name = mesh.Name
	}
	if name == "" {
		name = fmt.Sprintf("Node%d", id)
	}
	out := &Mesh{ID: name}

	for i, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes["POSITION"]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(g.doc, g.doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q primitive %d positions: %w", name, i, err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes["NORMAL"]; ok {
			if normals, err = modeler.ReadNormal(g.doc, g.doc.Accessors[idx], nil); err != nil {
				return nil, fmt.Errorf("failed to read %q primitive %d normals: %w", name, i, err)
			}
		}
		var uvs [][2]float32
		if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
			if uvs, err = modeler.ReadTextureCoord(g.doc, g.doc.Accessors[idx], nil); err != nil {
				return nil, fmt.Errorf("failed to read %q primitive %d uvs: %w", name, i, err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(g.doc, g.doc.Accessors[*prim.Indices], nil); err != nil {
				return nil, fmt.Errorf("failed to read %q primitive %d indices: %w", name, i, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for j := range indices {
				indices[j] = uint32(j)
			}
		}

		base := len(out.Verts)
		for j, p := range positions {
			v := Vertex{Position: toVec3(mgl32.TransformCoordinate(mgl32.Vec3(p), world))}
			if j < len(normals) {
				if n := mgl32.TransformNormal(mgl32.Vec3(normals[j]), world); n.Len() > 0 {
					v.Normal = toVec3(n.Normalize())
				}
			}
			if j < len(uvs) {
				v.UV = math.Vec2{X: uvs[j][0], Y: uvs[j][1]}
			}
			out.Verts = append(out.Verts, v)
		}
		for j := 0; j+2 < len(indices); j += 3 {
			tri := [3]int{int(indices[j]), int(indices[j+1]), int(indices[j+2])}
			for k := range tri {
				if tri[k] >= len(positions) {
					return nil, fmt.Errorf("%w: %q primitive %d index %d out of %d", ErrMalformed,
						name, i, tri[k], len(positions))
				}
				tri[k] += base
			}
			out.Tris = append(out.Tris, tri)
		}

		if out.TexName == "" && prim.Material != nil {
			out.TexName = g.textureName(*prim.Material)
		}
	}

	if len(out.Tris) == 0 {
		return nil, nil
	}
	fillNormals(out)
	return out, nil
}

// textureName returns the image of a material's base color texture, or
// the material name when it has none.
func (g *GLTF) textureName(material uint32) string {
	if int(material) >= len(g.doc.Materials) {
		return ""
	}
	mat := g.doc.Materials[material]
	if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
		if ti := pbr.BaseColorTexture.Index; int(ti) < len(g.doc.Textures) {
			if src := g.doc.Textures[ti].Source; src != nil && int(*src) < len(g.doc.Images) {
				img := g.doc.Images[*src]
				if img.URI != "" && !strings.HasPrefix(img.URI, "data:") {
					return img.URI
				}
				if img.Name != "" {
					return img.Name
				}
			}
		}
	}
	return mat.Name
}

// localMatrix returns a node's transform, from its matrix when one is set
// and from translation, rotation and scale otherwise.
func localMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := mgl32.Mat4(n.Matrix); m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return m
	}

	rot := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
	if rot.Len() == 0 {
		rot = mgl32.QuatIdent()
	}
	scale := n.Scale
	if scale == [3]float32{} {
		scale = [3]float32{1, 1, 1}
	}
	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	return t.Mul4(rot.Normalize().Mat4()).Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func toVec3(v mgl32.Vec3) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
