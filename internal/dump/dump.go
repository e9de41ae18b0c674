// Package dump prints shapes for inspection.
package dump

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/dtsconv/pkg/dts"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// Sdump returns a deep dump of the values.
func Sdump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// Shape writes a deep dump of s. Vertex data is left out unless
// withGeometry is set.
func Shape(w io.Writer, s *dts.Shape, withGeometry bool) error {
	if withGeometry {
		_, err := io.WriteString(w, Sdump(s))
		return err
	}

	stripped := *s
	stripped.Meshes = make([]*dts.Mesh, len(s.Meshes))
	for i, m := range s.Meshes {
		if m == nil {
			continue
		}
		c := *m
		c.Verts, c.TVerts, c.Normals, c.ENormals, c.Indices = nil, nil, nil, nil, nil
		stripped.Meshes[i] = &c
	}
	_, err := io.WriteString(w, Sdump(&stripped))
	return err
}

// Summary writes a table of the shape's objects, detail levels and
// materials.
func Summary(w io.Writer, s *dts.Shape) error {
	name := func(i int32) string {
		if n, ok := s.Names.Name(i); ok {
			return n
		}
		return fmt.Sprintf("#%d", i)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "bounds\t%v .. %v\n", s.Bounds.Min, s.Bounds.Max)
	fmt.Fprintf(tw, "center\t%v\n", s.Center)
	fmt.Fprintf(tw, "radius\t%.4f (tube %.4f)\n", s.Radius, s.TubeRadius)
	fmt.Fprintf(tw, "smallest\t%v px (level %d)\n", s.SmallestSize, s.SmallestDetailLevel)

	fmt.Fprintln(tw, "\nOBJECT\tNODE\tMESHES\tVERTS\tPOLYS")
	for _, obj := range s.Objects {
		verts, polys := 0, 0
		for j := obj.FirstMesh; j < obj.FirstMesh+obj.NumMeshes && int(j) < len(s.Meshes); j++ {
			m := s.Meshes[j]
			verts += len(m.Verts)
			n, err := m.PolyCount()
			if err != nil {
				return err
			}
			polys += n
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", name(obj.Name), name(s.Nodes[obj.Node].Name), obj.NumMeshes, verts, polys)
	}

	fmt.Fprintln(tw, "\nDETAIL\tSIZE\tSLOT\tPOLYS")
	for _, dl := range s.DetailLevels {
		fmt.Fprintf(tw, "%s\t%v\t%d\t%d\n", name(dl.Name), dl.Size, dl.ObjectDetail, dl.PolyCount)
	}

	if len(s.Materials) > 0 {
		fmt.Fprintln(tw, "\nMATERIAL\tFLAGS")
		for _, m := range s.Materials {
			fmt.Fprintf(tw, "%s\t0x%08x\n", m.Name, uint32(m.Flags))
		}
	}
	return tw.Flush()
}
