package main

import (
	"github.com/spf13/cobra"

	"github.com/Faultbox/dtsconv/internal/config"
	"github.com/Faultbox/dtsconv/internal/dump"
)

func newInspectCmd() *cobra.Command {
	var (
		configPath string
		deep       bool
		geometry   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Convert a model and print the resulting shape without writing it",
		Args:  cobra.ExactArgs(1),
	}
	flags := config.BindFlags(cmd.Flags())
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: search standard locations)")
	cmd.Flags().BoolVar(&deep, "dump", false, "Dump every shape table")
	cmd.Flags().BoolVar(&geometry, "geometry", false, "Include vertex data in --dump output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, configPath, flags)
		if err != nil {
			return err
		}
		shape, err := convertInput(cmd.Context(), args[0], cfg)
		if err != nil {
			return err
		}
		if err := shape.Validate(); err != nil {
			return err
		}

		if deep {
			return dump.Shape(cmd.OutOrStdout(), shape, geometry)
		}
		return dump.Summary(cmd.OutOrStdout(), shape)
	}
	return cmd
}
