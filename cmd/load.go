package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	infracontext "github.com/jonesrussell/course-catalog/infrastructure/context"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/bootstrap"
	"github.com/jonesrussell/course-catalog/internal/config"
	"github.com/jonesrussell/course-catalog/internal/loader"
)

var storeLabels = map[string]string{
	config.DriverMongoDB: "MongoDB",
	config.DriverMemory:  "the in-memory store",
}

type loadFlags struct {
	file     string
	watch    bool
	schedule string
}

func newLoadCommand() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load courses from a JSON file into the catalog store",
		Long: `Load reads a JSON array of courses and upserts each one by name.
Re-running with the same file changes nothing. With --watch the file is
reloaded whenever it changes; with --schedule it is reloaded on a cron
schedule. Both keep running until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.watch && flags.schedule != "" {
				return errors.New("--watch and --schedule are mutually exclusive")
			}
			return runLoad(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "course file to load (default is loader.file)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "reload when the file changes")
	cmd.Flags().StringVar(&flags.schedule, "schedule", "", "reload on a cron schedule, e.g. \"*/15 * * * *\"")

	return cmd
}

func runLoad(ctx context.Context, out io.Writer, flags loadFlags) error {
	if flags.schedule != "" {
		if err := loader.ValidateSchedule(flags.schedule); err != nil {
			return err
		}
	}

	app, err := bootstrap.Setup(ctx, options())
	if err != nil {
		return err
	}
	defer app.Close()

	path := flags.file
	if path == "" {
		path = app.Config.Loader.File
	}
	schedule := flags.schedule
	if schedule == "" && !flags.watch {
		schedule = app.Config.Loader.Schedule
	}

	l := bootstrap.NewLoader(app)
	label := storeLabels[app.Config.Storage.Driver]

	if !flags.watch && schedule == "" {
		loadCtx, cancel := infracontext.WithLoadTimeout(ctx)
		defer cancel()

		report, runErr := l.Run(loadCtx, path)
		if runErr != nil {
			return fmt.Errorf("load %s: %w", path, runErr)
		}
		printReport(out, label, report)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	onReport := func(report *loader.Report, runErr error) {
		if runErr != nil {
			app.Logger.Error("Reload failed", infralogger.String("file", path), infralogger.Error(runErr))
			return
		}
		printReport(out, label, report)
	}

	// Load once up front so the store is current before waiting for changes.
	onReport(l.Run(ctx, path))

	if flags.watch {
		return l.Watch(ctx, path, app.Config.Loader.Debounce, onReport)
	}
	return l.Schedule(ctx, schedule, path, onReport)
}

func printReport(out io.Writer, storeLabel string, report *loader.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Courses", "Inserted", "Matched", "Modified", "Duration"})
	t.AppendRow(table.Row{
		report.File,
		report.Courses,
		report.Result.Inserted,
		report.Result.Matched,
		report.Result.Modified,
		report.Duration.Round(time.Millisecond),
	})
	t.Render()

	fmt.Fprintf(out, "Courses loaded into %s successfully.\n", storeLabel)
	fmt.Fprintln(out, report.SummaryLine())
}
