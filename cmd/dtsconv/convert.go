package main

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/dtsconv/internal/config"
	"github.com/Faultbox/dtsconv/internal/convert"
	"github.com/Faultbox/dtsconv/internal/logger"
	"github.com/Faultbox/dtsconv/internal/source"
	"github.com/Faultbox/dtsconv/pkg/dts"
)

// loadConfig resolves the configuration for cmd and points the logger at
// its error stream.
func loadConfig(cmd *cobra.Command, path string, flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, err
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}

// convertInput reads input and assembles it into a shape.
func convertInput(ctx context.Context, input string, cfg *config.Config) (*dts.Shape, error) {
	src, err := source.Open(input)
	if err != nil {
		return nil, err
	}

	opts := convert.OptionsFromConfig(cfg.Export)
	opts.Logger = logger.Named("convert").With(zap.String("input", input))
	return convert.Run(ctx, src, opts)
}

// defaultOutput names the shape after its input: next to the input file,
// or in the working directory for an archive entry.
func defaultOutput(input string, compress bool) string {
	out := input
	if i := strings.Index(strings.ToLower(input), ".grf"+source.ArchiveSeparator); i >= 0 {
		entry := input[i+len(".grf"+source.ArchiveSeparator):]
		out = path.Base(strings.ReplaceAll(entry, "\\", "/"))
	}
	out = strings.TrimSuffix(out, filepath.Ext(out)) + ".dts"
	if compress {
		out += ".zst"
	}
	return out
}
