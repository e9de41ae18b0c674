package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/dtsconv/internal/config"
	"github.com/Faultbox/dtsconv/internal/logger"
	"github.com/Faultbox/dtsconv/internal/source"
	"github.com/Faultbox/dtsconv/pkg/dts"
)

// Options configures Run.
type Options struct {
	Build    BuildOptions
	Assemble AssembleOptions
	// Materials turns object textures into shape materials.
	Materials bool
	// Logger receives progress. Nil uses the global logger.
	Logger *zap.Logger
}

// OptionsFromConfig maps export settings to Run options.
func OptionsFromConfig(cfg config.ExportConfig) Options {
	topology := dts.Strip
	if cfg.Topology == "triangles" {
		topology = dts.Triangles
	}
	return Options{
		Build: BuildOptions{
			Scale:          cfg.Scale,
			Topology:       topology,
			EncodedNormals: cfg.EncodedNormals,
		},
		Assemble: AssembleOptions{
			DetailSizes:  cfg.DetailSizes,
			SmallestSize: cfg.SmallestSize,
			Collision:    cfg.Collision,
		},
		Materials: cfg.Materials,
	}
}

// Run converts every object of src into one shape. Objects are processed
// in source order and the first error stops the conversion. ctx is
// checked before each object.
func Run(ctx context.Context, src source.Source, opts Options) (*dts.Shape, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Named("convert")
	}

	objects, err := src.Objects()
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	log.Debug("source read", zap.Int("objects", len(objects)))

	a := NewAssembler(opts.Assemble)
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mesh, err := BuildMesh(obj, opts.Build)
		if err != nil {
			return nil, err
		}
		if opts.Materials {
			if t, ok := obj.(source.Textured); ok && t.Texture() != "" {
				mesh.AssignMaterial(a.AddMaterial(t.Texture()))
			}
		}

		// Every detail level draws the same geometry.
		meshes := []*dts.Mesh{mesh}
		for len(meshes) < a.DetailCount() {
			meshes = append(meshes, mesh.Clone())
		}
		if err := a.Add(obj.Name(), meshes...); err != nil {
			return nil, err
		}

		polys, err := mesh.PolyCount()
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", obj.Name(), err)
		}
		log.Debug("object converted",
			zap.String("name", obj.Name()),
			zap.Int("vertices", len(mesh.Verts)),
			zap.Int("faces", len(obj.Faces())),
			zap.Int("polys", polys),
			zap.Stringer("topology", opts.Build.Topology),
		)
	}

	shape, err := a.Build()
	if err != nil {
		return nil, err
	}
	log.Info("shape assembled",
		zap.Int("objects", len(shape.Objects)),
		zap.Int("meshes", len(shape.Meshes)),
		zap.Int("materials", len(shape.Materials)),
		zap.Int("detail_levels", len(shape.DetailLevels)),
		zap.Float32("radius", shape.Radius),
	)
	return shape, nil
}
