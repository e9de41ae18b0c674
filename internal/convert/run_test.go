package convert

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/dtsconv/internal/config"
	"github.com/Faultbox/dtsconv/internal/source"
	"github.com/Faultbox/dtsconv/pkg/dts"
)

type failingSource struct{}

func (failingSource) Objects() ([]source.Object, error) {
	return nil, errors.New("disk on fire")
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	tri := unitTriangle("Tri")
	tri.TexName = "rock.png:nomip"
	src := source.Memory{tri, unitTriangle("Plain")}

	opts := Options{
		Build:     DefaultBuildOptions(),
		Assemble:  AssembleOptions{DetailSizes: []int{16, 4}},
		Materials: true,
		Logger:    zap.New(core),
	}
	s, err := Run(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(s.Objects) != 2 || len(s.Meshes) != 4 {
		t.Fatalf("expected 2 objects with 4 meshes, got %d and %d", len(s.Objects), len(s.Meshes))
	}
	if s.Meshes[0] == s.Meshes[1] {
		t.Error("detail meshes should be separate copies")
	}
	if len(s.Materials) != 1 || s.Materials[0].Flags&dts.NoMipMap == 0 {
		t.Errorf("materials = %+v", s.Materials)
	}
	if mat, ok := s.Meshes[1].Primitives[0].Material(); !ok || mat != 0 {
		t.Error("textured object meshes should use material 0")
	}
	if s.Meshes[2].Primitives[0].HasMaterial() {
		t.Error("untextured object should have no material")
	}

	if n := logs.FilterMessage("object converted").Len(); n != 2 {
		t.Errorf("expected 2 per-object log entries, got %d", n)
	}
	if n := logs.FilterMessage("shape assembled").Len(); n != 1 {
		t.Errorf("expected 1 summary log entry, got %d", n)
	}
}

func TestRunWithoutMaterials(t *testing.T) {
	tri := unitTriangle("Tri")
	tri.TexName = "rock.png"
	s, err := Run(context.Background(), source.Memory{tri}, Options{Build: DefaultBuildOptions(), Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(s.Materials) != 0 || s.Meshes[0].Primitives[0].HasMaterial() {
		t.Error("materials exported with Materials disabled")
	}
}

func TestRunErrors(t *testing.T) {
	opts := Options{Build: DefaultBuildOptions(), Logger: zap.NewNop()}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		src  source.Source
		want error
	}{
		{"empty source", context.Background(), source.Memory{}, dts.ErrEmptyShape},
		{"cancelled", cancelled, source.Memory{unitTriangle("Tri")}, context.Canceled},
		{
			"bad face",
			context.Background(),
			source.Memory{unitTriangle("Ok"), &source.Mesh{ID: "Bad", Verts: make([]source.Vertex, 3), Tris: [][3]int{{0, 1, 5}}}},
			dts.ErrInvalidGeometry,
		},
		{"unnamed object", context.Background(), source.Memory{unitTriangle("")}, dts.ErrInvalidGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Run(tt.ctx, tt.src, opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if s != nil {
				t.Error("expected no shape on error")
			}
		})
	}

	if _, err := Run(context.Background(), failingSource{}, opts); err == nil {
		t.Error("expected source error")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Export
	cfg.Topology = "triangles"
	cfg.Scale = 3
	cfg.Collision = true

	opts := OptionsFromConfig(cfg)
	if opts.Build.Topology != dts.Triangles || opts.Build.Scale != 3 {
		t.Errorf("build options = %+v", opts.Build)
	}
	if !opts.Assemble.Collision || len(opts.Assemble.DetailSizes) != 1 {
		t.Errorf("assemble options = %+v", opts.Assemble)
	}
	if !opts.Materials {
		t.Error("materials should follow config")
	}

	if OptionsFromConfig(config.Default().Export).Build.Topology != dts.Strip {
		t.Error("default topology should be Strip")
	}
}
