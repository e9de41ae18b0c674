package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/dtsconv/pkg/math"
)

const quadOBJ = `# unit quad
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 2
o Quad:billboard
usemtl brick.png
f 1/1/1 2/2/1 3/3/1 4/4/1
o Empty
g Tri
usemtl a
usemtl b
f -4 -3 -2
`

func TestReadOBJ(t *testing.T) {
	objs, err := ReadOBJ(strings.NewReader(quadOBJ), "scene")
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objs))
	}

	quad := objs[0].(*Mesh)
	if quad.Name() != "Quad:billboard" {
		t.Errorf("name = %q", quad.Name())
	}
	if quad.Texture() != "brick.png" {
		t.Errorf("texture = %q", quad.Texture())
	}
	if len(quad.Verts) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(quad.Verts))
	}
	wantFaces := [][3]int{{0, 1, 2}, {0, 2, 3}}
	if len(quad.Tris) != 2 || quad.Tris[0] != wantFaces[0] || quad.Tris[1] != wantFaces[1] {
		t.Errorf("faces = %v, want %v", quad.Tris, wantFaces)
	}
	if quad.Verts[2].UV != (math.Vec2{X: 1, Y: 1}) {
		t.Errorf("uv = %v", quad.Verts[2].UV)
	}
	if quad.Verts[0].Normal != (math.Vec3{Z: 1}) {
		t.Errorf("normal = %v, want normalized +Z", quad.Verts[0].Normal)
	}

	tri := objs[1].(*Mesh)
	if tri.Name() != "Tri" {
		t.Errorf("empty object should take the next group name, got %q", tri.Name())
	}
	if tri.Texture() != "a" {
		t.Errorf("texture = %q, want first usemtl", tri.Texture())
	}
	if len(tri.Verts) != 3 || tri.Verts[0].Position != (math.Vec3{}) {
		t.Errorf("relative indices resolved to %v", tri.Verts)
	}
	if tri.Verts[0].Normal.Distance(math.Vec3{Z: 1}) > 1e-6 {
		t.Errorf("generated normal = %v, want +Z", tri.Verts[0].Normal)
	}
}

func TestReadOBJErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"bad number", "v 0 x 0\n"},
		{"missing component", "v 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(tt.input), "x")
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestOpenOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	objs, err := src.Objects()
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}
	if len(objs) != 1 || objs[0].Name() != "crate" {
		t.Fatalf("expected one object named crate, got %v", objs)
	}
}
