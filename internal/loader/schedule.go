package loader

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
)

// scheduleParser accepts standard five-field cron expressions and
// descriptors such as @hourly.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether spec is a usable cron expression.
func ValidateSchedule(spec string) error {
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Schedule reloads path on the cron schedule spec until ctx is done.
// A run still in progress when the next one is due causes that one to be skipped.
func (l *Loader) Schedule(ctx context.Context, spec, path string, onReport ReportFunc) error {
	if err := ValidateSchedule(spec); err != nil {
		return err
	}

	cronLog := cronLogger{log: l.logger}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	entryID, err := c.AddFunc(spec, func() {
		report, runErr := l.Run(ctx, path)
		if onReport != nil {
			onReport(report, runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule load: %w", err)
	}

	c.Start()
	l.logger.Info("Course load scheduled",
		infralogger.String("schedule", spec),
		infralogger.String("file", path),
		infralogger.Time("next_run", c.Entry(entryID).Next),
	)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log infralogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, infralogger.Any("details", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, infralogger.Error(err), infralogger.Any("details", keysAndValues))
}
