package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// ErrMalformed is returned for geometry files that cannot be parsed.
var ErrMalformed = errors.New("malformed geometry file")

// OpenOBJ reads a Wavefront OBJ file.
func OpenOBJ(path string) (Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open obj %q: %w", path, err)
	}
	defer f.Close()

	objs, err := ReadOBJ(f, baseName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return objs, nil
}

// objKey identifies a unique position/uv/normal combination.
type objKey struct{ v, vt, vn int }

type objReader struct {
	positions []math.Vec3
	uvs       []math.Vec2
	normals   []math.Vec3

	objects []*Mesh
	cur     *Mesh
	index   map[objKey]int
}

// ReadOBJ parses OBJ text. Each "o" or "g" statement starts a new object;
// faces before the first one belong to an object called name. Polygons are
// split into triangle fans. The first "usemtl" of an object becomes its
// texture. Objects without faces are dropped.
func ReadOBJ(r io.Reader, name string) (Memory, error) {
	p := &objReader{}
	p.begin(name)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := p.statement(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read obj: %w", err)
	}

	var out Memory
	for _, m := range p.objects {
		if len(m.Tris) == 0 {
			continue
		}
		fillNormals(m)
		out = append(out, m)
	}
	return out, nil
}

func (p *objReader) begin(name string) {
	if p.cur != nil && len(p.cur.Tris) == 0 {
		p.cur.ID = name
		return
	}
	p.cur = &Mesh{ID: name}
	p.objects = append(p.objects, p.cur)
	p.index = make(map[objKey]int)
}

func (p *objReader) statement(fields []string) error {
	args := fields[1:]
	switch fields[0] {
	case "v":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	case "vt":
		v, err := parseFloats(args, 2)
		if err != nil {
			return err
		}
		p.uvs = append(p.uvs, math.Vec2{X: v[0], Y: v[1]})
	case "vn":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]}.Normalize())
	case "o", "g":
		name := strings.Join(args, " ")
		if name == "" {
			name = "Object"
		}
		p.begin(name)
	case "usemtl":
		if p.cur.TexName == "" {
			p.cur.TexName = strings.Join(args, " ")
		}
	case "f":
		return p.face(args)
	}
	return nil
}

func (p *objReader) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrMalformed, len(args))
	}
	corners := make([]int, len(args))
	for i, arg := range args {
		idx, err := p.vertex(arg)
		if err != nil {
			return err
		}
		corners[i] = idx
	}
	for i := 1; i+1 < len(corners); i++ {
		p.cur.Tris = append(p.cur.Tris, [3]int{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

// vertex resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference to an
// index into the current object's vertex list.
func (p *objReader) vertex(ref string) (int, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: vertex reference %q", ErrMalformed, ref)
	}

	key := objKey{v: -1, vt: -1, vn: -1}
	var err error
	if key.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return 0, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return 0, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return 0, err
		}
	}

	if idx, ok := p.index[key]; ok {
		return idx, nil
	}
	v := Vertex{Position: p.positions[key.v]}
	if key.vt >= 0 {
		v.UV = p.uvs[key.vt]
	}
	if key.vn >= 0 {
		v.Normal = p.normals[key.vn]
	}
	idx := len(p.cur.Verts)
	p.cur.Verts = append(p.cur.Verts, v)
	p.index[key] = idx
	return idx, nil
}

// resolveIndex converts a 1-based or negative relative OBJ index to a
// 0-based index into n elements.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrMalformed, s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("%w: index 0", ErrMalformed)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: index %s out of %d", ErrMalformed, s, n)
	}
	return i, nil
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrMalformed, n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrMalformed, args[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
