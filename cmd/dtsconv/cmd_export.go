package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/dtsconv/internal/config"
	"github.com/Faultbox/dtsconv/internal/convert"
	"github.com/Faultbox/dtsconv/internal/logger"
)

func newExportCmd() *cobra.Command {
	var output, configPath string

	cmd := &cobra.Command{
		Use:   "export <input>",
		Short: "Convert a model file or archive entry to a DTS shape",
		Long: `Convert a glTF, OBJ, STL or RSM model to a DTS shape.

Models inside a GRF archive are addressed as archive.grf#path/in/archive.rsm.
Use -o - to write the shape to stdout.`,
		Args: cobra.ExactArgs(1),
	}
	flags := config.BindFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: input name with .dts)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: search standard locations)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, configPath, flags)
		if err != nil {
			return err
		}
		charset, err := cfg.Export.CharsetMap()
		if err != nil {
			return err
		}

		shape, err := convertInput(cmd.Context(), args[0], cfg)
		if err != nil {
			return err
		}
		opts := convert.WriteOptions{Charset: charset, Compress: cfg.Export.Compress}

		if output == "-" {
			return convert.Write(cmd.OutOrStdout(), shape, opts)
		}
		if output == "" {
			output = defaultOutput(args[0], cfg.Export.Compress)
		}
		if err := writeFile(output, func(w io.Writer) error {
			return convert.Write(w, shape, opts)
		}); err != nil {
			return err
		}

		logger.Info("shape written", zap.String("path", output))
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d objects, %d detail levels, %d materials\n",
			output, len(shape.Objects), len(shape.DetailLevels), len(shape.Materials))
		return nil
	}
	return cmd
}

// writeFile creates path and fills it with write. A failed write removes
// the partial file.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
