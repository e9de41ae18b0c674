// Package convert turns source geometry into DTS shapes.
package convert

import (
	"fmt"

	"github.com/Faultbox/dtsconv/internal/source"
	"github.com/Faultbox/dtsconv/pkg/dts"
	"github.com/Faultbox/dtsconv/pkg/math"
)

// MaxVertices is the largest vertex count a mesh's 16-bit indices can
// address.
const MaxVertices = 1 << 16

// BuildOptions controls how a source object becomes a mesh.
type BuildOptions struct {
	// Scale multiplies every position. Zero means 1.
	Scale float32
	// Topology of the emitted primitive. Zero value is Triangles; use
	// DefaultBuildOptions for the usual Strip.
	Topology dts.PrimitiveType
	// EncodedNormals marks the mesh as drawing with its encoded normals.
	EncodedNormals bool
}

// DefaultBuildOptions returns unscaled Strip output.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Scale: 1, Topology: dts.Strip}
}

// BuildMesh converts one object into a standard single-frame mesh. The
// object is validated before anything is built. Faces are stored with
// reversed winding, and bounds, center and radius are derived from the
// scaled positions.
func BuildMesh(obj source.Object, opts BuildOptions) (*dts.Mesh, error) {
	name := obj.Name()
	verts := obj.Vertices()
	faces := obj.Faces()

	if len(verts) == 0 && len(faces) > 0 {
		return nil, fmt.Errorf("%w: object %q has %d faces and no vertices",
			dts.ErrInvalidGeometry, name, len(faces))
	}
	if len(verts) > MaxVertices {
		return nil, fmt.Errorf("%w: object %q has %d vertices, limit is %d",
			dts.ErrInvalidGeometry, name, len(verts), MaxVertices)
	}
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(verts) {
				return nil, fmt.Errorf("%w: object %q face %d references vertex %d of %d",
					dts.ErrInvalidGeometry, name, i, idx, len(verts))
			}
		}
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	m := dts.NewMesh(dts.MeshStandard)
	m.Verts = make([]math.Vec3, len(verts))
	m.TVerts = make([]math.Vec2, len(verts))
	m.Normals = make([]math.Vec3, len(verts))
	for i, v := range verts {
		m.Verts[i] = v.Position
		if scale != 1 {
			m.Verts[i] = v.Position.Scale(scale)
		}
		m.TVerts[i] = v.UV
		m.Normals[i] = v.Normal
	}
	m.ENormals = dts.EncodeNormals(m.Normals)

	m.Indices = make([]uint16, 0, len(faces)*3)
	for _, f := range faces {
		m.Indices = append(m.Indices, uint16(f[2]), uint16(f[1]), uint16(f[0]))
	}

	prims, err := dts.EncodePrimitives(m.Indices, opts.Topology)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}
	m.Primitives = prims

	_, m.Flags = dts.ParseMeshName(name)
	if opts.EncodedNormals {
		m.Flags |= dts.EncodedNormals
	}

	if err := m.SetFrames(1); err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}
	m.CalculateDerived()
	return m, nil
}
