package dts

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"
)

// Encoder errors.
var (
	ErrUnsupportedMesh = errors.New("unsupported mesh type")
	ErrNameTooLong     = errors.New("material name longer than 255 bytes")
)

// materialListVersion is written before the trailing material list.
const materialListVersion byte = 1

// Encoder writes shapes in the version 24 binary layout.
type Encoder struct {
	w       io.Writer
	charset *charmap.Charmap

	shape     *Shape
	names     []string
	nodes     []Node
	objects   []Object
	materials []Material
	meshes    []*Mesh
	subshapes []Subshape
	details   []DetailLevel
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithCharset sets the 8-bit character set names are stored in.
func WithCharset(cm *charmap.Charmap) EncoderOption {
	return func(e *Encoder) {
		if cm != nil {
			e.charset = cm
		}
	}
}

// NewEncoder returns an encoder writing to w. Names are stored as
// Windows-1252 unless WithCharset says otherwise.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	e := &Encoder{w: w, charset: charmap.Windows1252}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode validates s and writes it.
func (e *Encoder) Encode(s *Shape) error {
	*e = Encoder{w: e.w, charset: e.charset, shape: s}
	if err := Walk(s, e); err != nil {
		return err
	}

	bw := bufio.NewWriter(e.w)
	st := &stream{}
	if err := e.writeShape(st); err != nil {
		return err
	}
	if err := st.flush(bw, Version); err != nil {
		return err
	}
	// No sequences are exported.
	if err := binary.Write(bw, binary.LittleEndian, int32(0)); err != nil {
		return err
	}
	if err := e.writeMaterials(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// VisitNames implements Visitor.
func (e *Encoder) VisitNames(names []string) error { e.names = names; return nil }

// VisitNodes implements Visitor.
func (e *Encoder) VisitNodes(nodes []Node) error { e.nodes = nodes; return nil }

// VisitObjects implements Visitor.
func (e *Encoder) VisitObjects(objects []Object) error { e.objects = objects; return nil }

// VisitMaterials implements Visitor.
func (e *Encoder) VisitMaterials(materials []Material) error { e.materials = materials; return nil }

// BeginMesh implements Visitor.
func (e *Encoder) BeginMesh(index int, m *Mesh) error {
	switch m.Type {
	case MeshStandard, MeshNull:
	default:
		return fmt.Errorf("%w: mesh %d is %s", ErrUnsupportedMesh, index, m.Type)
	}
	e.meshes = append(e.meshes, m)
	return nil
}

// VisitPrimitives implements Visitor.
func (e *Encoder) VisitPrimitives(mesh int, primitives []Primitive) error {
	for i, p := range primitives {
		if p.FirstElement > 0x7fff || p.NumElements > 0x7fff {
			return fmt.Errorf("%w: mesh %d primitive %d exceeds 16-bit element range",
				ErrInvalidGeometry, mesh, i)
		}
	}
	return nil
}

// VisitIndices implements Visitor.
func (e *Encoder) VisitIndices(mesh int, indices []uint16) error { return nil }

// EndMesh implements Visitor.
func (e *Encoder) EndMesh(index int, m *Mesh) error { return nil }

// VisitSubshapes implements Visitor.
func (e *Encoder) VisitSubshapes(subshapes []Subshape) error { e.subshapes = subshapes; return nil }

// VisitDetailLevels implements Visitor.
func (e *Encoder) VisitDetailLevels(levels []DetailLevel) error { e.details = levels; return nil }

func (e *Encoder) encodeName(name string) ([]byte, error) {
	out, err := e.charset.NewEncoder().String(name)
	if err != nil {
		return nil, fmt.Errorf("encoding name %q as %s: %w", name, e.charset, err)
	}
	return []byte(out), nil
}

func (e *Encoder) writeShape(st *stream) error {
	s := e.shape

	// Header
	st.writeInt(int32(len(e.nodes)))
	st.writeInt(int32(len(e.objects)))
	st.writeInt(0) // decals
	st.writeInt(int32(len(e.subshapes)))
	st.writeInt(0) // IFL materials
	st.writeInt(0) // node rotations
	st.writeInt(0) // node translations
	st.writeInt(0) // uniform scales
	st.writeInt(0) // aligned scales
	st.writeInt(0) // arbitrary scales
	st.writeInt(0) // ground frames
	st.writeInt(int32(len(s.ObjectStates)))
	st.writeInt(0) // decal states
	st.writeInt(0) // triggers
	st.writeInt(int32(len(e.details)))
	st.writeInt(int32(len(e.meshes)))
	st.writeInt(int32(len(e.names)))
	st.writeInt(int32(s.SmallestSize))
	st.writeInt(s.SmallestDetailLevel)
	st.storeCheck()

	// Bounds
	st.writeFloat(s.Radius)
	st.writeFloat(s.TubeRadius)
	st.writePoint(s.Center)
	st.writeBox(s.Bounds)
	st.storeCheck()

	for _, n := range e.nodes {
		st.writeInt(n.Name)
		st.writeInt(n.Parent)
		st.writeInt(n.FirstObject)
		st.writeInt(n.Child)
		st.writeInt(n.Sibling)
	}
	st.storeCheck()

	for _, o := range e.objects {
		st.writeInt(o.Name)
		st.writeInt(o.NumMeshes)
		st.writeInt(o.FirstMesh)
		st.writeInt(o.Node)
		st.writeInt(o.Sibling)
		st.writeInt(o.FirstDecal)
	}
	st.storeCheck()

	st.storeCheck() // decals
	st.storeCheck() // IFL materials

	for _, ss := range e.subshapes {
		st.writeInt(ss.FirstNode)
	}
	for _, ss := range e.subshapes {
		st.writeInt(ss.FirstObject)
	}
	for _, ss := range e.subshapes {
		st.writeInt(ss.FirstDecal)
	}
	st.storeCheck()
	for _, ss := range e.subshapes {
		st.writeInt(ss.NumNodes)
	}
	for _, ss := range e.subshapes {
		st.writeInt(ss.NumObjects)
	}
	for _, ss := range e.subshapes {
		st.writeInt(ss.NumDecals)
	}
	st.storeCheck()

	for i := range e.nodes {
		st.writeQuat(s.NodeDefRotations[i])
		st.writePoint(s.NodeDefTranslations[i])
	}
	st.storeCheck() // animated translations and rotations
	st.storeCheck() // scales
	st.storeCheck() // ground frames

	for _, state := range s.ObjectStates {
		st.writeFloat(state.Vis)
		st.writeInt(state.Frame)
		st.writeInt(state.MatFrame)
	}
	st.storeCheck()
	st.storeCheck() // decal states
	st.storeCheck() // triggers

	for _, dl := range e.details {
		st.writeInt(dl.Name)
		st.writeInt(dl.Subshape)
		st.writeInt(dl.ObjectDetail)
		st.writeFloat(dl.Size)
		st.writeFloat(dl.AvgError)
		st.writeFloat(dl.MaxError)
		st.writeInt(dl.PolyCount)
	}
	st.storeCheck()

	for _, m := range e.meshes {
		writeMesh(st, m)
	}
	st.storeCheck()

	for _, name := range e.names {
		b, err := e.encodeName(name)
		if err != nil {
			return err
		}
		st.writeString(b)
	}
	st.storeCheck()
	return nil
}

func writeMesh(st *stream, m *Mesh) {
	st.writeInt(int32(m.Type))
	if m.Type == MeshNull {
		return
	}
	st.storeCheck()

	st.writeInt(m.NumFrames)
	st.writeInt(m.MatFrames)
	st.writeInt(m.Parent)
	st.writeBox(m.Bounds)
	st.writePoint(m.Center)
	st.writeFloat(m.Radius)

	st.writeInt(int32(len(m.Verts)))
	for _, v := range m.Verts {
		st.writePoint(v)
	}
	st.writeInt(int32(len(m.TVerts)))
	for _, tv := range m.TVerts {
		st.writePoint2(tv)
	}
	for _, n := range m.Normals {
		st.writePoint(n)
	}
	for _, en := range m.ENormals {
		st.writeByte(en)
	}

	st.writeInt(int32(len(m.Primitives)))
	for _, p := range m.Primitives {
		st.writeShort(int16(p.FirstElement))
		st.writeShort(int16(p.NumElements))
		st.writeUint(uint32(p.Type))
	}
	st.writeInt(int32(len(m.Indices)))
	for _, idx := range m.Indices {
		st.writeShort(int16(idx))
	}
	st.writeInt(int32(len(m.MIndices)))
	for _, idx := range m.MIndices {
		st.writeShort(int16(idx))
	}

	st.writeInt(m.VertsPerFrame)
	st.writeUint(uint32(m.Flags))
	st.storeCheck()
}

// writeMaterials writes the material list column by column after the
// buffered shape data.
func (e *Encoder) writeMaterials(w io.Writer) error {
	if _, err := w.Write([]byte{materialListVersion}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(e.materials))); err != nil {
		return err
	}
	for _, m := range e.materials {
		b, err := e.encodeName(m.Name)
		if err != nil {
			return err
		}
		if len(b) > 255 {
			return fmt.Errorf("%w: %q", ErrNameTooLong, m.Name)
		}
		if _, err := w.Write(append([]byte{byte(len(b))}, b...)); err != nil {
			return err
		}
	}

	columns := []func(Material) any{
		func(m Material) any { return uint32(m.Flags) },
		func(m Material) any { return m.Reflectance },
		func(m Material) any { return m.Bump },
		func(m Material) any { return m.Detail },
		func(m Material) any { return m.DetailScale },
		func(m Material) any { return m.Reflection },
	}
	for _, column := range columns {
		for _, m := range e.materials {
			if err := binary.Write(w, binary.LittleEndian, column(m)); err != nil {
				return err
			}
		}
	}
	return nil
}
