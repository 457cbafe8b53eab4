// Package handlers implements the catalog HTTP endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	infragin "github.com/jonesrussell/course-catalog/infrastructure/gin"
	infraevents "github.com/jonesrussell/course-catalog/infrastructure/events"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/events"
	"github.com/jonesrussell/course-catalog/internal/models"
)

const (
	msgRatingUpdated    = "Rating updated successfully"
	msgChapterNotFound  = "Chapter not found"
	msgInternalError    = "Internal server error"
	msgStoreUnavailable = "Course store unavailable"
)

// CourseStore is the storage the handlers read and rate through.
type CourseStore interface {
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	RateChapter(ctx context.Context, courseID, chapterID string, polarity models.Polarity) (models.Ratings, error)
}

// RatingRecorder counts persisted ratings.
type RatingRecorder interface {
	RecordRating(polarity string)
}

type CourseHandler struct {
	store     CourseStore
	publisher *events.Publisher
	recorder  RatingRecorder
	logger    infralogger.Logger
}

// NewCourseHandler creates the course handler. publisher and recorder may be nil.
func NewCourseHandler(
	store CourseStore,
	publisher *events.Publisher,
	recorder RatingRecorder,
	log infralogger.Logger,
) *CourseHandler {
	return &CourseHandler{
		store:     store,
		publisher: publisher,
		recorder:  recorder,
		logger:    log,
	}
}

// ListCourses handles GET /courses/?sort=&domain=.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	sort := models.SortAlphabetical
	if raw, present := c.GetQuery("sort"); present {
		parsed, err := models.ParseSortMode(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		sort = parsed
	}

	courses, err := h.store.ListCourses(c.Request.Context(), models.CourseFilter{
		Sort:   sort,
		Domain: c.Query("domain"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCourse handles GET /courses/:course_id/.
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.store.GetCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ListChapters handles GET /courses/:course_id/chapters/.
func (h *CourseHandler) ListChapters(c *gin.Context) {
	course, err := h.store.GetCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	chapters := course.Chapters
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	c.JSON(http.StatusOK, chapters)
}

// GetChapter handles GET /courses/:course_id/chapters/:chapter_id/.
func (h *CourseHandler) GetChapter(c *gin.Context) {
	course, err := h.store.GetCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	chapter, ok := course.Chapter(c.Param("chapter_id"))
	if !ok {
		h.respondError(c, apperrors.NotFound(msgChapterNotFound))
		return
	}

	c.JSON(http.StatusOK, chapter)
}

// RateChapter handles POST /courses/:course_id/chapters/:chapter_id/rate/?positive=bool.
func (h *CourseHandler) RateChapter(c *gin.Context) {
	raw, present := c.GetQuery("positive")
	if !present {
		h.respondError(c, apperrors.Validation("query parameter positive is required"))
		return
	}
	positive, ok := models.ParseBool(raw)
	if !ok {
		h.respondError(c, apperrors.Validation("query parameter positive must be a boolean"))
		return
	}

	courseID := c.Param("course_id")
	chapterID := c.Param("chapter_id")
	polarity := models.PolarityOf(positive)

	ratings, err := h.store.RateChapter(c.Request.Context(), courseID, chapterID, polarity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordRating(string(polarity))
	}
	h.publisher.PublishAsync(infraevents.CatalogEvent{
		EventType: infraevents.ChapterRated,
		CourseID:  courseID,
		Payload: infraevents.ChapterRatedPayload{
			ChapterID: chapterID,
			Polarity:  string(polarity),
			Positive:  ratings.Positive,
			Negative:  ratings.Negative,
		},
	})

	h.log(c).Info("Chapter rated",
		infralogger.String("course_id", courseID),
		infralogger.String("chapter_id", chapterID),
		infralogger.String("polarity", string(polarity)),
	)

	c.JSON(http.StatusOK, gin.H{"message": msgRatingUpdated})
}

// respondError writes the uniform {"detail": ...} error body.
func (h *CourseHandler) respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	log := h.log(c)

	var detail string
	switch {
	case status == http.StatusServiceUnavailable:
		detail = msgStoreUnavailable
		log.Error("Course store unavailable", infralogger.Error(err))
	case status >= http.StatusInternalServerError:
		detail = msgInternalError
		log.Error("Request failed", infralogger.Error(err))
	default:
		detail = apperrors.Message(err, msgInternalError)
		log.Debug("Request rejected",
			infralogger.Int("status", status),
			infralogger.String("detail", detail),
		)
	}

	c.JSON(status, gin.H{"detail": detail})
}

// log tags the handler logger with the request ID, when one was assigned.
func (h *CourseHandler) log(c *gin.Context) infralogger.Logger {
	if id := c.GetString(infragin.RequestIDKey); id != "" {
		return h.logger.With(infralogger.String(infragin.RequestIDKey, id))
	}
	return h.logger
}
