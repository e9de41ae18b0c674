// Package source reads polygon geometry from files and memory and exposes
// it as named objects of per-vertex data and triangle faces.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/dtsconv/pkg/math"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported geometry format")

// Vertex is one mesh vertex with its texture coordinate and normal.
type Vertex struct {
	Position math.Vec3
	UV       math.Vec2
	Normal   math.Vec3
}

// Object is one convertible piece of geometry.
type Object interface {
	Name() string
	Vertices() []Vertex
	Faces() [][3]int
}

// Textured is implemented by objects that carry a texture name.
type Textured interface {
	Texture() string
}

// Source enumerates the objects eligible for conversion.
type Source interface {
	Objects() ([]Object, error)
}

// Mesh is a plain in-memory Object.
type Mesh struct {
	ID      string
	Verts   []Vertex
	Tris    [][3]int
	TexName string
}

// Name implements Object.
func (m *Mesh) Name() string { return m.ID }

// Vertices implements Object.
func (m *Mesh) Vertices() []Vertex { return m.Verts }

// Faces implements Object.
func (m *Mesh) Faces() [][3]int { return m.Tris }

// Texture implements Textured.
func (m *Mesh) Texture() string { return m.TexName }

// Memory is a Source over objects already in memory.
type Memory []Object

// Objects implements Source. Nil entries are skipped.
func (m Memory) Objects() ([]Object, error) {
	out := make([]Object, 0, len(m))
	for _, obj := range m {
		if obj != nil {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Open reads a geometry file, choosing the reader by extension. A path of
// the form "archive.grf#entry" reads the entry from a GRF archive.
func Open(path string) (Source, error) {
	if archive, entry, ok := splitArchivePath(path); ok {
		a, err := OpenArchive(archive)
		if err != nil {
			return nil, err
		}
		defer a.Close()
		return a.Open(entry)
	}

	var (
		src Source
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		src, err = OpenGLTF(path)
	case ".obj":
		src, err = OpenOBJ(path)
	case ".stl":
		src, err = OpenSTL(path)
	case ".rsm":
		src, err = OpenRSM(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// decode parses an in-memory file named name. glTF input must be
// self-contained.
func decode(data []byte, name string) (Source, error) {
	var (
		src Source
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gltf", ".glb":
		src, err = DecodeGLTF(bytes.NewReader(data))
	case ".obj":
		src, err = ReadOBJ(bytes.NewReader(data), baseName(name))
	case ".stl":
		var m *Mesh
		if m, err = ReadSTL(bytes.NewReader(data), baseName(name)); err == nil {
			src = Memory{}
			if len(m.Tris) > 0 {
				src = Memory{m}
			}
		}
	case ".rsm":
		src, err = ReadRSM(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return src, nil
}

// baseName returns the file name of path without directory or extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// fillNormals gives every vertex with a zero normal the normalized sum of
// the face normals of the triangles using it.
func fillNormals(m *Mesh) {
	missing := make([]bool, len(m.Verts))
	need := false
	for i, v := range m.Verts {
		if v.Normal == (math.Vec3{}) {
			missing[i] = true
			need = true
		}
	}
	if !need {
		return
	}

	sums := make([]math.Vec3, len(m.Verts))
	for _, f := range m.Tris {
		a, b, c := m.Verts[f[0]].Position, m.Verts[f[1]].Position, m.Verts[f[2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range f {
			sums[i] = sums[i].Add(n)
		}
	}
	for i := range m.Verts {
		if missing[i] {
			m.Verts[i].Normal = sums[i].Normalize()
		}
	}
}
