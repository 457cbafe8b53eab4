package loader_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	infraevents "github.com/jonesrussell/course-catalog/infrastructure/events"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/events"
	"github.com/jonesrussell/course-catalog/internal/loader"
	"github.com/jonesrussell/course-catalog/internal/models"
	"github.com/jonesrussell/course-catalog/internal/repository"
	"github.com/jonesrussell/course-catalog/internal/telemetry"
)

const testdataFile = "testdata/courses.json"

type mockStore struct {
	mock.Mock
}

func (m *mockStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) UpsertCourses(ctx context.Context, courses []models.Course) (models.UpsertResult, error) {
	args := m.Called(ctx, courses)
	return args.Get(0).(models.UpsertResult), args.Error(1)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoader_Run_Idempotent(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryCourseRepository()
	l := loader.New(store, nil, nil, infralogger.NewNop())

	first, err := l.Run(context.Background(), testdataFile)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Courses)
	assert.Equal(t, models.UpsertResult{Inserted: 3}, first.Result)
	assert.Equal(t, "Inserted: 3, Modified: 0, Matched: 0", first.SummaryLine())

	second, err := l.Run(context.Background(), testdataFile)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertResult{Matched: 3}, second.Result)

	courses, err := store.ListCourses(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}

func TestLoader_Run_LoadThenRate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := repository.NewMemoryCourseRepository()
	l := loader.New(store, nil, nil, infralogger.NewNop())

	_, err := l.Run(ctx, testdataFile)
	require.NoError(t, err)

	courses, err := store.ListCourses(ctx, models.CourseFilter{Domain: "cs"})
	require.NoError(t, err)

	var intro *models.Course
	for i := range courses {
		if courses[i].Name == "Intro" {
			intro = &courses[i]
		}
	}
	require.NotNil(t, intro)
	require.Len(t, intro.Chapters, 1)

	_, err = store.RateChapter(ctx, intro.ID, intro.Chapters[0].ID, models.PolarityPositive)
	require.NoError(t, err)

	got, err := store.GetCourse(ctx, intro.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Ratings{Positive: 1, Negative: 0}, got.Chapters[0].Ratings)
}

func TestLoader_Run_ParseErrorLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "courses.json")
	writeFile(t, path, `[{"name":"Intro"}]`)

	store := &mockStore{}
	reg := prometheus.NewRegistry()
	tel := telemetry.NewProviderWithRegistry(reg)
	l := loader.New(store, nil, tel, infralogger.NewNop())

	report, err := l.Run(context.Background(), path)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, apperrors.Is(err, apperrors.KindParse))

	store.AssertNotCalled(t, "EnsureIndexes", mock.Anything)
	store.AssertNotCalled(t, "UpsertCourses", mock.Anything, mock.Anything)
	assert.InDelta(t, 1, testutil.ToFloat64(tel.Metrics.LoadRuns.WithLabelValues(telemetry.LoadResultFailure)), 0)
}

func TestLoader_Run_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("EnsureIndexes", mock.Anything).Return(nil)
	store.On("UpsertCourses", mock.Anything, mock.Anything).
		Return(models.UpsertResult{}, apperrors.StoreUnavailable("upsert courses", errors.New("connection refused")))

	l := loader.New(store, nil, nil, infralogger.NewNop())

	_, err := l.Run(context.Background(), testdataFile)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindStoreUnavailable))
	store.AssertExpectations(t)
}

func TestLoader_Run_IndexFailure(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("EnsureIndexes", mock.Anything).Return(errors.New("index build failed"))

	l := loader.New(store, nil, nil, infralogger.NewNop())

	_, err := l.Run(context.Background(), testdataFile)
	require.Error(t, err)
	store.AssertNotCalled(t, "UpsertCourses", mock.Anything, mock.Anything)
}

func TestLoader_Run_RecordsMetricsAndPublishes(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	tel := telemetry.NewProviderWithRegistry(reg)
	pub := events.NewPublisher(client, infralogger.NewNop())
	l := loader.New(repository.NewMemoryCourseRepository(), pub, tel, infralogger.NewNop())

	_, err := l.Run(context.Background(), testdataFile)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(tel.Metrics.LoadRuns.WithLabelValues(telemetry.LoadResultSuccess)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(tel.Metrics.LoadDocuments.WithLabelValues("inserted")), 0)

	msgs, err := client.XRange(context.Background(), infraevents.StreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)

	var ev struct {
		EventType infraevents.EventType            `json:"event_type"`
		Payload   infraevents.CoursesLoadedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.Equal(t, infraevents.CoursesLoaded, ev.EventType)
	assert.Equal(t, 3, ev.Payload.Courses)
	assert.Equal(t, int64(3), ev.Payload.Inserted)
}

func TestLoader_Run_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := events.NewPublisher(client, infralogger.NewNop())
	l := loader.New(repository.NewMemoryCourseRepository(), pub, nil, infralogger.NewNop())

	report, err := l.Run(context.Background(), testdataFile)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Result.Inserted)
}

func TestLoader_Watch_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "courses.json")
	writeFile(t, path, `[]`)

	store := repository.NewMemoryCourseRepository()
	l := loader.New(store, nil, nil, infralogger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		reports []*loader.Report
	)
	done := make(chan error, 1)
	go func() {
		done <- l.Watch(ctx, path, 20*time.Millisecond, func(r *loader.Report, err error) {
			if err != nil {
				return
			}
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		})
	}()

	// The watcher starts asynchronously, so keep rewriting until it sees a change.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`[{"name":"Intro","date":1700000000,"domain":["cs"]}]`), 0o600)
		mu.Lock()
		defer mu.Unlock()
		return len(reports) > 0
	}, 5*time.Second, 100*time.Millisecond)

	courses, err := store.ListCourses(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Intro", courses[0].Name)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	require.NoError(t, loader.ValidateSchedule("*/5 * * * *"))
	require.NoError(t, loader.ValidateSchedule("@hourly"))
	require.Error(t, loader.ValidateSchedule("every tuesday"))
	require.Error(t, loader.ValidateSchedule("0 0 * * * *"))
}

func TestLoader_Schedule_StopsOnCancel(t *testing.T) {
	t.Parallel()

	l := loader.New(repository.NewMemoryCourseRepository(), nil, nil, infralogger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Schedule(ctx, "@hourly", testdataFile, nil))
}

func TestLoader_Schedule_RejectsInvalidExpression(t *testing.T) {
	t.Parallel()

	l := loader.New(repository.NewMemoryCourseRepository(), nil, nil, infralogger.NewNop())
	require.Error(t, l.Schedule(context.Background(), "not a schedule", testdataFile, nil))
}
