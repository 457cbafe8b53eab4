// Package loader reads course records from a JSON file and bulk upserts
// them into the course store.
package loader

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	infraevents "github.com/jonesrussell/course-catalog/infrastructure/events"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/events"
	"github.com/jonesrussell/course-catalog/internal/models"
)

// Store is the write side of the course store.
type Store interface {
	EnsureIndexes(ctx context.Context) error
	UpsertCourses(ctx context.Context, courses []models.Course) (models.UpsertResult, error)
}

// Recorder records loader runs.
type Recorder interface {
	RecordLoad(err error, inserted, matched, modified int64, duration time.Duration)
}

// Report summarizes one loader run.
type Report struct {
	File     string
	Courses  int
	Result   models.UpsertResult
	Duration time.Duration
}

// SummaryLine is the one-line outcome printed after a run.
func (r *Report) SummaryLine() string {
	return fmt.Sprintf("Inserted: %d, Modified: %d, Matched: %d",
		r.Result.Inserted, r.Result.Modified, r.Result.Matched)
}

type Loader struct {
	store     Store
	publisher *events.Publisher
	recorder  Recorder
	logger    infralogger.Logger
}

// New creates a loader. publisher and recorder may be nil.
func New(store Store, publisher *events.Publisher, recorder Recorder, log infralogger.Logger) *Loader {
	return &Loader{
		store:     store,
		publisher: publisher,
		recorder:  recorder,
		logger:    log,
	}
}

// Run loads path into the store. The input is fully parsed before the
// store is touched, so a parse error leaves the store unchanged.
func (l *Loader) Run(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	report, err := l.run(ctx, path)
	duration := time.Since(start)

	if l.recorder != nil {
		var res models.UpsertResult
		if report != nil {
			res = report.Result
		}
		l.recorder.RecordLoad(err, res.Inserted, res.Matched, res.Modified, duration)
	}
	if err != nil {
		l.logger.Error("Course load failed",
			infralogger.String("file", path),
			infralogger.Error(err),
		)
		return nil, err
	}

	report.Duration = duration
	l.logger.Info("Courses loaded",
		infralogger.String("file", path),
		infralogger.Int("courses", report.Courses),
		infralogger.Int64("inserted", report.Result.Inserted),
		infralogger.Int64("matched", report.Result.Matched),
		infralogger.Int64("modified", report.Result.Modified),
		infralogger.Duration("duration", duration),
	)
	l.publishLoaded(ctx, report)

	return report, nil
}

func (l *Loader) run(ctx context.Context, path string) (*Report, error) {
	courses, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	if indexErr := l.store.EnsureIndexes(ctx); indexErr != nil {
		return nil, apperrors.WrapWithContext(indexErr, "ensure indexes")
	}

	result, err := l.store.UpsertCourses(ctx, courses)
	if err != nil {
		return nil, apperrors.WrapWithContext(err, "upsert courses")
	}

	return &Report{
		File:    path,
		Courses: len(courses),
		Result:  result,
	}, nil
}

// publishLoaded emits COURSES_LOADED. Broker failures do not fail the run.
func (l *Loader) publishLoaded(ctx context.Context, report *Report) {
	err := l.publisher.Publish(ctx, infraevents.CatalogEvent{
		EventType: infraevents.CoursesLoaded,
		Payload: infraevents.CoursesLoadedPayload{
			File:     report.File,
			Courses:  report.Courses,
			Inserted: report.Result.Inserted,
			Matched:  report.Result.Matched,
			Modified: report.Result.Modified,
		},
	})
	if err != nil {
		l.logger.Warn("Failed to publish load event", infralogger.Error(err))
	}
}
