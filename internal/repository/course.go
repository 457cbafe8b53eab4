package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	infralogger "github.com/jonesrussell/course-catalog/infrastructure/logger"
	"github.com/jonesrussell/course-catalog/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jonesrussell/course-catalog/internal/repository"

// ratingSortField is a transient aggregation field, projected away before decoding.
const ratingSortField = "_positive_total"

// CourseRepository stores courses in a MongoDB collection.
type CourseRepository struct {
	collection *mongo.Collection
	logger     infralogger.Logger
	tracer     trace.Tracer
}

func NewCourseRepository(collection *mongo.Collection, log infralogger.Logger) *CourseRepository {
	return &CourseRepository{
		collection: collection,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
}

//nolint:spancheck // callers end the span via finishSpan
func (r *CourseRepository) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "CourseRepository."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs,
			attribute.String("db.system", "mongodb"),
			attribute.String("db.collection.name", r.collection.Name()),
		)...),
	)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EnsureIndexes creates the name (unique), date and domain indexes.
// Creating an index that already exists is a no-op.
func (r *CourseRepository) EnsureIndexes(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, "EnsureIndexes")
	defer func() { finishSpan(span, err) }()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "domain", Value: 1}}},
	}

	names, createErr := r.collection.Indexes().CreateMany(ctx, indexes)
	if createErr != nil {
		return storeError("create indexes", createErr)
	}

	r.logger.Debug("Indexes ensured", infralogger.Strings("indexes", names))
	return nil
}

// UpsertCourses submits one upsert per course, keyed by name, as a single
// ordered bulk write. A course ID, when present, is applied only on insert.
func (r *CourseRepository) UpsertCourses(ctx context.Context, courses []models.Course) (result models.UpsertResult, err error) {
	ctx, span := r.startSpan(ctx, "UpsertCourses", attribute.Int("catalog.courses", len(courses)))
	defer func() { finishSpan(span, err) }()

	if len(courses) == 0 {
		return models.UpsertResult{}, nil
	}

	writes := make([]mongo.WriteModel, 0, len(courses))
	for i := range courses {
		update := bson.D{{Key: "$set", Value: courseFields(&courses[i])}}

		if courses[i].ID != "" {
			oid, parseErr := bson.ObjectIDFromHex(courses[i].ID)
			if parseErr != nil {
				return models.UpsertResult{}, apperrors.WrapWithContextf(parseErr, "course %q: invalid id %q", courses[i].Name, courses[i].ID)
			}
			update = append(update, bson.E{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: oid}}})
		}

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "name", Value: courses[i].Name}}).
			SetUpdate(update).
			SetUpsert(true))
	}

	res, writeErr := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if writeErr != nil {
		return models.UpsertResult{}, storeError("bulk upsert courses", writeErr)
	}

	result = models.UpsertResult{
		Inserted: res.UpsertedCount,
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
	}
	span.SetAttributes(
		attribute.Int64("catalog.inserted", result.Inserted),
		attribute.Int64("catalog.matched", result.Matched),
		attribute.Int64("catalog.modified", result.Modified),
	)
	return result, nil
}

// ListCourses returns the courses matching filter in the requested order.
func (r *CourseRepository) ListCourses(ctx context.Context, filter models.CourseFilter) (courses []models.Course, err error) {
	ctx, span := r.startSpan(ctx, "ListCourses",
		attribute.String("catalog.sort", string(filter.Sort)),
		attribute.String("catalog.domain", filter.Domain),
	)
	defer func() { finishSpan(span, err) }()

	match := bson.D{}
	if filter.Domain != "" {
		match = bson.D{{Key: "domain", Value: filter.Domain}}
	}

	var cursor *mongo.Cursor
	var findErr error

	switch filter.Sort {
	case models.SortRating:
		cursor, findErr = r.collection.Aggregate(ctx, ratingPipeline(match))
	case models.SortDate:
		cursor, findErr = r.collection.Find(ctx, match, options.Find().SetSort(bson.D{
			{Key: "date", Value: -1},
			{Key: "name", Value: 1},
		}))
	default:
		cursor, findErr = r.collection.Find(ctx, match, options.Find().SetSort(bson.D{
			{Key: "name", Value: 1},
		}))
	}
	if findErr != nil {
		return nil, storeError("list courses", findErr)
	}

	var docs []courseDocument
	if allErr := cursor.All(ctx, &docs); allErr != nil {
		return nil, storeError("decode courses", allErr)
	}

	courses = make([]models.Course, 0, len(docs))
	for i := range docs {
		courses = append(courses, docs[i].toModel())
	}
	return courses, nil
}

// ratingPipeline orders courses by the sum of their chapters' positive
// votes, highest first, ties broken by name.
func ratingPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.D{
			{Key: ratingSortField, Value: bson.D{{Key: "$sum", Value: "$chapters.ratings.positive"}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: ratingSortField, Value: -1},
			{Key: "name", Value: 1},
		}}},
		{{Key: "$project", Value: bson.D{{Key: ratingSortField, Value: 0}}}},
	}
}

// GetCourse returns the course with the given hex ID. IDs that are not
// valid ObjectIDs cannot exist and report not found.
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (course *models.Course, err error) {
	ctx, span := r.startSpan(ctx, "GetCourse", attribute.String("catalog.course_id", id))
	defer func() { finishSpan(span, err) }()

	oid, parseErr := bson.ObjectIDFromHex(id)
	if parseErr != nil {
		return nil, errCourseNotFound()
	}

	var doc courseDocument
	if findErr := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); findErr != nil {
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, errCourseNotFound()
		}
		return nil, storeError("get course", findErr)
	}

	c := doc.toModel()
	return &c, nil
}

// RateChapter atomically increments one rating counter of a chapter and
// returns the counters after the increment. The other counter is
// incremented by zero so both keys always exist.
func (r *CourseRepository) RateChapter(
	ctx context.Context,
	courseID, chapterID string,
	polarity models.Polarity,
) (ratings models.Ratings, err error) {
	ctx, span := r.startSpan(ctx, "RateChapter",
		attribute.String("catalog.course_id", courseID),
		attribute.String("catalog.chapter_id", chapterID),
		attribute.String("catalog.polarity", string(polarity)),
	)
	defer func() { finishSpan(span, err) }()

	oid, parseErr := bson.ObjectIDFromHex(courseID)
	if parseErr != nil {
		return models.Ratings{}, errCourseNotFound()
	}

	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "chapters._id", Value: chapterID},
	}
	update := bson.D{{Key: "$inc", Value: bson.D{
		{Key: "chapters.$.ratings." + string(polarity), Value: 1},
		{Key: "chapters.$.ratings." + string(polarity.Other()), Value: 0},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc courseDocument
	updateErr := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if updateErr != nil {
		if errors.Is(updateErr, mongo.ErrNoDocuments) {
			return models.Ratings{}, r.missingRatingTarget(ctx, oid)
		}
		return models.Ratings{}, storeError("rate chapter", updateErr)
	}

	for i := range doc.Chapters {
		if doc.Chapters[i].ID == chapterID {
			ch := doc.Chapters[i].toModel()
			return ch.Ratings, nil
		}
	}
	// The filter matched the chapter, so it is in the returned document.
	return models.Ratings{}, fmt.Errorf("rate chapter: chapter %q missing from updated course", chapterID)
}

// missingRatingTarget tells a missing course from a missing chapter after a
// rating update matched nothing.
func (r *CourseRepository) missingRatingTarget(ctx context.Context, oid bson.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}}, options.Count().SetLimit(1))
	if err != nil {
		return storeError("count courses", err)
	}
	if n == 0 {
		return errCourseNotFound()
	}
	return errChapterNotFound()
}

// Ping checks the store connection through the collection's client.
func (r *CourseRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}
