package source

import (
	"encoding/binary"
	"fmt"
	"io"
	gomath "math"
	"os"
	"strings"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// maxSTLTriangles bounds the triangle count accepted from a header.
const maxSTLTriangles = 1 << 24

// OpenSTL reads a binary STL file as a single object named after the file.
func OpenSTL(path string) (Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stl %q: %w", path, err)
	}
	defer f.Close()

	m, err := ReadSTL(f, baseName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(m.Tris) == 0 {
		return Memory{}, nil
	}
	return Memory{m}, nil
}

// ReadSTL parses binary STL. Identical positions are merged into one
// vertex whose normal is the average of the facets sharing it.
func ReadSTL(r io.Reader, name string) (*Mesh, error) {
	var header struct {
		Text  [80]byte
		Count uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read stl header: %w", err)
	}
	if header.Count > maxSTLTriangles {
		return nil, fmt.Errorf("%w: stl declares %d triangles", ErrMalformed, header.Count)
	}
	if name == "" {
		name = strings.TrimRight(string(header.Text[:]), " \x00")
	}

	m := &Mesh{ID: name}
	index := make(map[math.Vec3]int)
	buf := make([]byte, 4*3*4+2)
	for i := 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read stl triangle %d: %w", i, err)
		}
		var tri [3]int
		for v := range tri {
			const start = 3 * 4 // facet normal
			p := math.Vec3{
				X: stlFloat(buf[start+12*v:]),
				Y: stlFloat(buf[start+12*v+4:]),
				Z: stlFloat(buf[start+12*v+8:]),
			}
			idx, ok := index[p]
			if !ok {
				idx = len(m.Verts)
				m.Verts = append(m.Verts, Vertex{Position: p})
				index[p] = idx
			}
			tri[v] = idx
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			continue
		}
		m.Tris = append(m.Tris, tri)
	}
	fillNormals(m)
	return m, nil
}

func stlFloat(b []byte) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(b))
}
