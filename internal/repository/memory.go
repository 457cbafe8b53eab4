package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	"github.com/jonesrussell/course-catalog/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryCourseRepository is an in-process course store with the same
// observable behavior as CourseRepository: hex ObjectID course IDs, name
// uniqueness, millisecond dates and unchanged documents not counted as
// modified. It backs the memory storage driver and the handler tests.
type MemoryCourseRepository struct {
	mu      sync.RWMutex
	courses map[string]*models.Course
	byName  map[string]string
}

func NewMemoryCourseRepository() *MemoryCourseRepository {
	return &MemoryCourseRepository{
		courses: make(map[string]*models.Course),
		byName:  make(map[string]string),
	}
}

// EnsureIndexes is a no-op; name uniqueness is enforced by the name map.
func (r *MemoryCourseRepository) EnsureIndexes(context.Context) error {
	return nil
}

// Ping always succeeds.
func (r *MemoryCourseRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryCourseRepository) UpsertCourses(_ context.Context, courses []models.Course) (models.UpsertResult, error) {
	for i := range courses {
		if courses[i].ID == "" {
			continue
		}
		if _, err := bson.ObjectIDFromHex(courses[i].ID); err != nil {
			return models.UpsertResult{}, apperrors.WrapWithContextf(err, "course %q: invalid id %q", courses[i].Name, courses[i].ID)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result models.UpsertResult
	for i := range courses {
		incoming := normalizeStored(courses[i])

		if id, ok := r.byName[incoming.Name]; ok {
			result.Matched++
			existing := r.courses[id]
			incoming.ID = id
			if !sameContent(existing, &incoming) {
				result.Modified++
				r.courses[id] = &incoming
			}
			continue
		}

		if incoming.ID == "" {
			incoming.ID = bson.NewObjectID().Hex()
		}
		if _, taken := r.courses[incoming.ID]; taken {
			return result, fmt.Errorf("course %q: duplicate id %q", incoming.Name, incoming.ID)
		}
		r.courses[incoming.ID] = &incoming
		r.byName[incoming.Name] = incoming.ID
		result.Inserted++
	}

	return result, nil
}

func (r *MemoryCourseRepository) ListCourses(_ context.Context, filter models.CourseFilter) ([]models.Course, error) {
	r.mu.RLock()
	out := make([]models.Course, 0, len(r.courses))
	for _, c := range r.courses {
		if filter.Domain != "" && !c.HasDomain(filter.Domain) {
			continue
		}
		out = append(out, c.Clone())
	}
	r.mu.RUnlock()

	byName := func(a, b models.Course) int { return cmp.Compare(a.Name, b.Name) }

	switch filter.Sort {
	case models.SortDate:
		slices.SortFunc(out, func(a, b models.Course) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return byName(a, b)
		})
	case models.SortRating:
		slices.SortFunc(out, func(a, b models.Course) int {
			if c := cmp.Compare(b.PositiveRatings(), a.PositiveRatings()); c != 0 {
				return c
			}
			return byName(a, b)
		})
	default:
		slices.SortFunc(out, byName)
	}

	return out, nil
}

func (r *MemoryCourseRepository) GetCourse(_ context.Context, id string) (*models.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, errCourseNotFound()
	}
	clone := c.Clone()
	return &clone, nil
}

func (r *MemoryCourseRepository) RateChapter(
	_ context.Context,
	courseID, chapterID string,
	polarity models.Polarity,
) (models.Ratings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[courseID]
	if !ok {
		return models.Ratings{}, errCourseNotFound()
	}
	ch, ok := c.Chapter(chapterID)
	if !ok {
		return models.Ratings{}, errChapterNotFound()
	}

	ch.Ratings = ch.Ratings.Increment(polarity)
	return ch.Ratings, nil
}

// normalizeStored applies the conversions a round trip through MongoDB
// would: UTC millisecond dates and non-nil sequences.
func normalizeStored(c models.Course) models.Course {
	out := c.Clone()
	out.Date = out.Date.UTC().Truncate(time.Millisecond)
	if out.Domain == nil {
		out.Domain = []string{}
	}
	if out.Chapters == nil {
		out.Chapters = []models.Chapter{}
	}
	return out
}

func sameContent(a, b *models.Course) bool {
	return a.Name == b.Name &&
		a.Date.Equal(b.Date) &&
		a.Description == b.Description &&
		slices.Equal(a.Domain, b.Domain) &&
		slices.Equal(a.Chapters, b.Chapters)
}
