package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/encoding/korean"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// RSM limits. Counts above these are treated as corruption.
const (
	rsmNameSize   = 40
	rsmMaxNodes   = 10000
	rsmMaxEntries = 100000
)

type rsmVersion struct{ major, minor uint8 }

func (v rsmVersion) atLeast(major, minor uint8) bool {
	return v.major > major || (v.major == major && v.minor >= minor)
}

type rsmFace struct {
	verts   [3]uint16
	tverts  [3]uint16
	texture uint16
}

type rsmNode struct {
	name, parent string
	textures     []int32

	matrix   [9]float32
	offset   [3]float32
	position [3]float32
	rotAngle float32
	rotAxis  [3]float32
	scale    [3]float32
	rotKey   *[4]float32
	scaleKey *[3]float32

	verts  [][3]float32
	tverts [][2]float32
	faces  []rsmFace
}

type rsmModel struct {
	version  rsmVersion
	textures []string
	nodes    []rsmNode
	byName   map[string]int
}

// OpenRSM reads a Ragnarok Online RSM model.
func OpenRSM(path string) (Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rsm %q: %w", path, err)
	}
	m, err := ReadRSM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadRSM parses a version 1.x RSM model. Every node with faces becomes an
// object placed at its static pose; animation beyond the first key is
// ignored. RSM is Y-down, so positions are mapped to (x, z, -y).
func ReadRSM(data []byte) (Memory, error) {
	model, err := parseRSM(data)
	if err != nil {
		return nil, err
	}

	var out Memory
	for i := range model.nodes {
		n := &model.nodes[i]
		if len(n.faces) == 0 {
			continue
		}
		m, err := model.object(n, model.vertexMatrix(n))
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.name, err)
		}
		fillNormals(m)
		out = append(out, m)
	}
	return out, nil
}

func (model *rsmModel) object(n *rsmNode, world mgl32.Mat4) (*Mesh, error) {
	m := &Mesh{ID: n.name}
	if m.ID == "" {
		m.ID = "Node"
	}

	type key struct{ v, t uint16 }
	seen := make(map[key]int)
	for fi, f := range n.faces {
		var tri [3]int
		for c := 0; c < 3; c++ {
			k := key{f.verts[c], f.tverts[c]}
			if idx, ok := seen[k]; ok {
				tri[c] = idx
				continue
			}
			if int(k.v) >= len(n.verts) || int(k.t) >= len(n.tverts) {
				return nil, fmt.Errorf("%w: face %d references vertex %d/%d of %d/%d", ErrMalformed,
					fi, k.v, k.t, len(n.verts), len(n.tverts))
			}
			p := n.verts[k.v]
			wp := mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, world)
			uv := n.tverts[k.t]
			seen[k] = len(m.Verts)
			tri[c] = len(m.Verts)
			m.Verts = append(m.Verts, Vertex{
				Position: math.Vec3{X: wp[0], Y: wp[2], Z: -wp[1]},
				UV:       math.Vec2{X: uv[0], Y: uv[1]},
			})
		}
		m.Tris = append(m.Tris, tri)
	}
	m.TexName = model.texture(n, n.faces[0].texture)
	return m, nil
}

// texture resolves a face's node-local texture slot to a file name.
func (model *rsmModel) texture(n *rsmNode, slot uint16) string {
	if int(slot) >= len(n.textures) {
		return ""
	}
	id := n.textures[slot]
	if id < 0 || int(id) >= len(model.textures) {
		return ""
	}
	return model.textures[id]
}

// hierarchyMatrix is the transform children inherit: the parent's
// hierarchy, then position, rotation and scale.
func (model *rsmModel) hierarchyMatrix(n *rsmNode, visited map[string]bool) mgl32.Mat4 {
	if visited[n.name] {
		return mgl32.Ident4()
	}
	visited[n.name] = true

	local := mgl32.Translate3D(n.position[0], n.position[1], n.position[2])
	switch {
	case n.rotKey != nil:
		q := mgl32.Quat{W: n.rotKey[3], V: mgl32.Vec3{n.rotKey[0], n.rotKey[1], n.rotKey[2]}}
		local = local.Mul4(q.Normalize().Mat4())
	case n.rotAngle != 0:
		axis := mgl32.Vec3(n.rotAxis)
		if axis.Len() > 1e-6 {
			local = local.Mul4(mgl32.HomogRotate3D(n.rotAngle, axis.Normalize()))
		}
	}
	local = local.Mul4(mgl32.Scale3D(n.scale[0], n.scale[1], n.scale[2]))
	if n.scaleKey != nil {
		local = local.Mul4(mgl32.Scale3D(n.scaleKey[0], n.scaleKey[1], n.scaleKey[2]))
	}

	if n.parent != "" && n.parent != n.name {
		if pi, ok := model.byName[n.parent]; ok {
			return model.hierarchyMatrix(&model.nodes[pi], visited).Mul4(local)
		}
	}
	return local
}

// vertexMatrix adds the node's pivot offset and base matrix, which apply
// to its own vertices only.
func (model *rsmModel) vertexMatrix(n *rsmNode) mgl32.Mat4 {
	m := model.hierarchyMatrix(n, make(map[string]bool))
	m = m.Mul4(mgl32.Translate3D(n.offset[0], n.offset[1], n.offset[2]))
	return m.Mul4(mgl32.Mat3(n.matrix).Mat4())
}

// rsmReader reads little-endian values and keeps the first error.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (p *rsmReader) read(v any) {
	if p.err == nil {
		p.err = binary.Read(p.r, binary.LittleEndian, v)
	}
}

func (p *rsmReader) i32() int32 {
	var v int32
	p.read(&v)
	return v
}

func (p *rsmReader) count(limit int, what string) int {
	n := p.i32()
	if p.err == nil && (n < 0 || int(n) > limit) {
		p.err = fmt.Errorf("%w: %d %s", ErrMalformed, n, what)
	}
	if p.err != nil {
		return 0
	}
	return int(n)
}

func (p *rsmReader) skip(n int) {
	if p.err == nil {
		buf := make([]byte, n)
		p.read(buf)
	}
}

// str reads a fixed-size, zero-padded EUC-KR string.
func (p *rsmReader) str() string {
	var buf [rsmNameSize]byte
	p.read(&buf)
	raw := buf[:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	s, err := korean.EUCKR.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

func parseRSM(data []byte) (*rsmModel, error) {
	if len(data) < 6 || string(data[:4]) != "GRSM" {
		return nil, fmt.Errorf("%w: bad rsm magic", ErrMalformed)
	}
	model := &rsmModel{
		version: rsmVersion{major: data[4], minor: data[5]},
		byName:  make(map[string]int),
	}
	if model.version.major != 1 || model.version.minor < 1 {
		return nil, fmt.Errorf("%w: rsm version %d.%d", ErrUnsupportedFormat, model.version.major, model.version.minor)
	}

	p := &rsmReader{r: bytes.NewReader(data[6:])}
	p.i32() // animation length
	p.i32() // shading
	if model.version.atLeast(1, 4) {
		p.skip(1) // alpha
	}
	p.skip(16)

	model.textures = make([]string, p.count(rsmMaxEntries, "textures"))
	for i := range model.textures {
		model.textures[i] = p.str()
	}
	p.str() // root node name

	model.nodes = make([]rsmNode, p.count(rsmMaxNodes, "nodes"))
	for i := range model.nodes {
		model.parseNode(p, &model.nodes[i])
		if p.err != nil {
			return nil, fmt.Errorf("failed to read rsm node %d: %w", i, p.err)
		}
		if _, dup := model.byName[model.nodes[i].name]; !dup {
			model.byName[model.nodes[i].name] = i
		}
	}
	if p.err != nil {
		return nil, fmt.Errorf("failed to read rsm header: %w", p.err)
	}
	return model, nil
}

func (model *rsmModel) parseNode(p *rsmReader, n *rsmNode) {
	v := model.version

	n.name = p.str()
	n.parent = p.str()
	n.textures = make([]int32, p.count(rsmMaxEntries, "node textures"))
	p.read(n.textures)
	p.read(&n.matrix)
	p.read(&n.offset)
	p.read(&n.position)
	p.read(&n.rotAngle)
	p.read(&n.rotAxis)
	p.read(&n.scale)

	n.verts = make([][3]float32, p.count(rsmMaxEntries, "vertices"))
	p.read(n.verts)

	n.tverts = make([][2]float32, p.count(rsmMaxEntries, "texture vertices"))
	for i := range n.tverts {
		if v.atLeast(1, 2) {
			p.skip(4) // vertex color
		}
		p.read(&n.tverts[i])
	}

	n.faces = make([]rsmFace, p.count(rsmMaxEntries, "faces"))
	for i := range n.faces {
		f := &n.faces[i]
		p.read(&f.verts)
		p.read(&f.tverts)
		p.read(&f.texture)
		p.skip(2) // padding
		p.i32() // two-sided
		if v.atLeast(1, 2) {
			p.i32() // smoothing group
		}
	}

	if !v.atLeast(1, 5) {
		p.skip(16 * p.count(rsmMaxEntries, "position keys"))
	}

	rotKeys := p.count(rsmMaxEntries, "rotation keys")
	for i := 0; i < rotKeys; i++ {
		var key struct {
			Frame int32
			Q     [4]float32
		}
		p.read(&key)
		if i == 0 {
			n.rotKey = &key.Q
		}
	}

	if v.atLeast(1, 5) {
		scaleKeys := p.count(rsmMaxEntries, "scale keys")
		for i := 0; i < scaleKeys; i++ {
			var key struct {
				Frame int32
				S     [3]float32
			}
			p.read(&key)
			if i == 0 {
				n.scaleKey = &key.S
			}
		}
	}
}
