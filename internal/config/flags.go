package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides bound to a flag set.
type Flags struct {
	fs *pflag.FlagSet

	debug          bool
	logFile        string
	scale          float32
	topology       string
	detailSizes    []int
	smallestSize   int
	collision      bool
	encodedNormals bool
	materials      bool
	charset        string
	compress       bool
}

// BindFlags registers the configuration overrides on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	fs.Float32Var(&f.scale, "scale", 1, "Scale factor applied to positions")
	fs.StringVar(&f.topology, "topology", "strip", "Primitive topology: strip or triangles")
	fs.IntSliceVar(&f.detailSizes, "detail-sizes", nil, "Detail level pixel sizes, one mesh per size")
	fs.IntVar(&f.smallestSize, "smallest-size", 1, "Smallest pixel size the shape is drawn at")
	fs.BoolVar(&f.collision, "collision", false, "Add a bounding box collision object")
	fs.BoolVar(&f.encodedNormals, "enormals", false, "Mark meshes as using encoded normals")
	fs.BoolVar(&f.materials, "materials", true, "Export object textures as materials")
	fs.StringVar(&f.charset, "charset", "windows-1252", "8-bit character set for names")
	fs.BoolVar(&f.compress, "zstd", false, "Compress the output with zstd")
	return f
}

// apply copies every flag the user set onto cfg.
func (f *Flags) apply(cfg *Config) {
	changed := func(name string) bool { return f.fs.Changed(name) }

	if changed("debug") && f.debug {
		cfg.Logging.Level = "debug"
	}
	if changed("log-file") {
		cfg.Logging.LogFile = f.logFile
	}
	if changed("scale") {
		cfg.Export.Scale = f.scale
	}
	if changed("topology") {
		cfg.Export.Topology = f.topology
	}
	if changed("detail-sizes") {
		cfg.Export.DetailSizes = append([]int(nil), f.detailSizes...)
	}
	if changed("smallest-size") {
		cfg.Export.SmallestSize = f.smallestSize
	}
	if changed("collision") {
		cfg.Export.Collision = f.collision
	}
	if changed("enormals") {
		cfg.Export.EncodedNormals = f.encodedNormals
	}
	if changed("materials") {
		cfg.Export.Materials = f.materials
	}
	if changed("charset") {
		cfg.Export.Charset = f.charset
	}
	if changed("zstd") {
		cfg.Export.Compress = f.compress
	}
}
