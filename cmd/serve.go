package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/course-catalog/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP service",
		Long: `Run the catalog HTTP service. With storage.driver set to memory the
catalog is seeded from loader.file at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Serve(cmd.Context(), options())
		},
	}
}
