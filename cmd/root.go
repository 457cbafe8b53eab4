// Package cmd implements the course-catalog command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/course-catalog/internal/bootstrap"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "course-catalog",
		Short: "Course catalog service and loader",
		Long: `Serves a read-mostly course catalog over HTTP with per-chapter ratings,
and loads course definitions from JSON into the catalog store.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is $CONFIG_PATH or ./config.yml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "course-catalog version %s\n", Version)
		},
	})

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newLoadCommand())
}

func options() bootstrap.Options {
	return bootstrap.Options{
		ConfigPath: cfgFile,
		Debug:      Debug,
		Version:    Version,
	}
}
