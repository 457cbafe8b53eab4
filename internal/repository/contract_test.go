package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	"github.com/jonesrussell/course-catalog/internal/models"
	"github.com/jonesrussell/course-catalog/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// courseStore is the behavior shared by the MongoDB and memory repositories.
type courseStore interface {
	EnsureIndexes(ctx context.Context) error
	UpsertCourses(ctx context.Context, courses []models.Course) (models.UpsertResult, error)
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	RateChapter(ctx context.Context, courseID, chapterID string, polarity models.Polarity) (models.Ratings, error)
}

var (
	_ courseStore = (*repository.CourseRepository)(nil)
	_ courseStore = (*repository.MemoryCourseRepository)(nil)
)

func fixtureCourses() []models.Course {
	return []models.Course{
		{
			Name:        "Intro",
			Date:        time.Unix(1700000000, 0).UTC(),
			Description: "Introduction to computing",
			Domain:      []string{"cs"},
			Chapters: []models.Chapter{
				{ID: "intro-1", Name: "Ch1", Text: "..."},
				{ID: "intro-2", Name: "Ch2", Text: "...", Ratings: models.Ratings{Positive: 1}},
			},
		},
		{
			Name:        "Algebra",
			Date:        time.Unix(1600000000, 0).UTC(),
			Description: "Groups and rings",
			Domain:      []string{"mathematics"},
			Chapters: []models.Chapter{
				{ID: "alg-1", Name: "Groups", Text: "...", Ratings: models.Ratings{Positive: 4}},
			},
		},
		{
			Name:        "Cryptography",
			Date:        time.Unix(1650000000, 500_000_000).UTC(),
			Description: "Ciphers",
			Domain:      []string{"cs", "mathematics"},
			Chapters:    []models.Chapter{},
		},
	}
}

func loadFixtures(t *testing.T, store courseStore) map[string]string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.EnsureIndexes(ctx))
	res, err := store.UpsertCourses(ctx, fixtureCourses())
	require.NoError(t, err)
	require.Equal(t, models.UpsertResult{Inserted: 3}, res)

	all, err := store.ListCourses(ctx, models.CourseFilter{Sort: models.SortAlphabetical})
	require.NoError(t, err)

	ids := make(map[string]string, len(all))
	for _, c := range all {
		ids[c.Name] = c.ID
	}
	return ids
}

func names(courses []models.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Name)
	}
	return out
}

func runCourseStoreContract(t *testing.T, newStore func(t *testing.T) courseStore) {
	t.Helper()

	t.Run("upsert is idempotent", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)

		res, err := store.UpsertCourses(context.Background(), fixtureCourses())
		require.NoError(t, err)
		assert.Equal(t, models.UpsertResult{Matched: 3}, res)

		all, err := store.ListCourses(context.Background(), models.CourseFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		for _, c := range all {
			assert.Equal(t, ids[c.Name], c.ID)
		}
	})

	t.Run("upsert replaces changed fields in place", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)

		changed := fixtureCourses()[:1]
		changed[0].Description = "Revised"
		res, err := store.UpsertCourses(context.Background(), changed)
		require.NoError(t, err)
		assert.Equal(t, models.UpsertResult{Matched: 1, Modified: 1}, res)

		got, err := store.GetCourse(context.Background(), ids["Intro"])
		require.NoError(t, err)
		assert.Equal(t, "Revised", got.Description)
	})

	t.Run("upsert keeps a supplied id on insert", func(t *testing.T) {
		store := newStore(t)
		course := fixtureCourses()[0]
		course.ID = "6553f1c0a1b2c3d4e5f60718"

		res, err := store.UpsertCourses(context.Background(), []models.Course{course})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Inserted)

		got, err := store.GetCourse(context.Background(), course.ID)
		require.NoError(t, err)
		assert.Equal(t, "Intro", got.Name)
	})

	t.Run("get course round trips fields", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)

		got, err := store.GetCourse(context.Background(), ids["Cryptography"])
		require.NoError(t, err)
		assert.Equal(t, ids["Cryptography"], got.ID)
		assert.Equal(t, []string{"cs", "mathematics"}, got.Domain)
		assert.True(t, got.Date.Equal(time.Unix(1650000000, 500_000_000)))
		assert.Empty(t, got.Chapters)

		intro, err := store.GetCourse(context.Background(), ids["Intro"])
		require.NoError(t, err)
		require.Len(t, intro.Chapters, 2)
		assert.Equal(t, "intro-1", intro.Chapters[0].ID)
		assert.Equal(t, models.Ratings{}, intro.Chapters[0].Ratings)
	})

	t.Run("unknown and malformed course ids are not found", func(t *testing.T) {
		store := newStore(t)
		loadFixtures(t, store)

		for _, id := range []string{"6553f1c0a1b2c3d4e5f60799", "not-an-object-id", ""} {
			_, err := store.GetCourse(context.Background(), id)
			require.Error(t, err, id)
			assert.True(t, apperrors.Is(err, apperrors.KindNotFound), id)
			assert.Equal(t, repository.MsgCourseNotFound, apperrors.Message(err, ""))
		}
	})

	t.Run("sort modes", func(t *testing.T) {
		store := newStore(t)
		loadFixtures(t, store)
		ctx := context.Background()

		alpha, err := store.ListCourses(ctx, models.CourseFilter{Sort: models.SortAlphabetical})
		require.NoError(t, err)
		assert.Equal(t, []string{"Algebra", "Cryptography", "Intro"}, names(alpha))

		byDate, err := store.ListCourses(ctx, models.CourseFilter{Sort: models.SortDate})
		require.NoError(t, err)
		assert.Equal(t, []string{"Intro", "Cryptography", "Algebra"}, names(byDate))

		byRating, err := store.ListCourses(ctx, models.CourseFilter{Sort: models.SortRating})
		require.NoError(t, err)
		assert.Equal(t, []string{"Algebra", "Intro", "Cryptography"}, names(byRating))
	})

	t.Run("domain filter", func(t *testing.T) {
		store := newStore(t)
		loadFixtures(t, store)
		ctx := context.Background()

		cs, err := store.ListCourses(ctx, models.CourseFilter{Sort: models.SortAlphabetical, Domain: "cs"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Cryptography", "Intro"}, names(cs))

		none, err := store.ListCourses(ctx, models.CourseFilter{Domain: "c"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("rate chapter increments one counter", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)
		ctx := context.Background()

		r, err := store.RateChapter(ctx, ids["Intro"], "intro-1", models.PolarityPositive)
		require.NoError(t, err)
		assert.Equal(t, models.Ratings{Positive: 1}, r)

		r, err = store.RateChapter(ctx, ids["Intro"], "intro-1", models.PolarityPositive)
		require.NoError(t, err)
		assert.Equal(t, models.Ratings{Positive: 2}, r)

		r, err = store.RateChapter(ctx, ids["Intro"], "intro-1", models.PolarityNegative)
		require.NoError(t, err)
		assert.Equal(t, models.Ratings{Positive: 2, Negative: 1}, r)

		course, err := store.GetCourse(ctx, ids["Intro"])
		require.NoError(t, err)
		assert.Equal(t, models.Ratings{Positive: 2, Negative: 1}, course.Chapters[0].Ratings)
		assert.Equal(t, models.Ratings{Positive: 1}, course.Chapters[1].Ratings)
	})

	t.Run("rate unknown chapter or course", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)
		ctx := context.Background()

		before, err := store.GetCourse(ctx, ids["Intro"])
		require.NoError(t, err)

		_, err = store.RateChapter(ctx, ids["Intro"], "nope", models.PolarityPositive)
		require.Error(t, err)
		assert.Equal(t, repository.MsgChapterNotFound, apperrors.Message(err, ""))

		_, err = store.RateChapter(ctx, "6553f1c0a1b2c3d4e5f60799", "intro-1", models.PolarityPositive)
		require.Error(t, err)
		assert.Equal(t, repository.MsgCourseNotFound, apperrors.Message(err, ""))

		after, err := store.GetCourse(ctx, ids["Intro"])
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("concurrent ratings are not lost", func(t *testing.T) {
		store := newStore(t)
		ids := loadFixtures(t, store)
		ctx := context.Background()

		const raters = 20
		var wg sync.WaitGroup
		for range raters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.RateChapter(ctx, ids["Algebra"], "alg-1", models.PolarityNegative)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		course, err := store.GetCourse(ctx, ids["Algebra"])
		require.NoError(t, err)
		assert.Equal(t, models.Ratings{Positive: 4, Negative: raters}, course.Chapters[0].Ratings)
	})
}
