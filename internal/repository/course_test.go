package repository_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/course-catalog/internal/models"
	"github.com/jonesrussell/course-catalog/internal/repository"
	"github.com/jonesrussell/course-catalog/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCourseRepository(t *testing.T) {
	runCourseStoreContract(t, func(t *testing.T) courseStore {
		return repository.NewCourseRepository(testhelpers.StartMongo(t), testhelpers.NewTestLogger())
	})
}

func TestCourseRepository_Indexes(t *testing.T) {
	coll := testhelpers.StartMongo(t)
	repo := repository.NewCourseRepository(coll, testhelpers.NewTestLogger())
	ctx := context.Background()

	require.NoError(t, repo.EnsureIndexes(ctx))
	require.NoError(t, repo.EnsureIndexes(ctx))

	cursor, err := coll.Indexes().List(ctx)
	require.NoError(t, err)
	var specs []bson.M
	require.NoError(t, cursor.All(ctx, &specs))

	byName := make(map[string]bson.M, len(specs))
	for _, s := range specs {
		byName[s["name"].(string)] = s
	}
	require.Contains(t, byName, "name_1")
	require.Contains(t, byName, "date_-1")
	require.Contains(t, byName, "domain_1")
	assert.Equal(t, true, byName["name_1"]["unique"])
}

func TestCourseRepository_StoresNativeObjectIDs(t *testing.T) {
	coll := testhelpers.StartMongo(t)
	repo := repository.NewCourseRepository(coll, testhelpers.NewTestLogger())
	ctx := context.Background()

	_, err := repo.UpsertCourses(ctx, fixtureCourses()[:1])
	require.NoError(t, err)

	var raw struct {
		ID       any `bson:"_id"`
		Chapters []struct {
			ID      string           `bson:"_id"`
			Ratings map[string]int64 `bson:"ratings"`
		} `bson:"chapters"`
	}
	require.NoError(t, coll.FindOne(ctx, bson.D{{Key: "name", Value: "Intro"}}).Decode(&raw))
	assert.IsType(t, bson.ObjectID{}, raw.ID)
	require.Len(t, raw.Chapters, 2)
	assert.Equal(t, "intro-1", raw.Chapters[0].ID)
	assert.Equal(t, map[string]int64{"positive": 0, "negative": 0}, raw.Chapters[0].Ratings)
}

func TestCourseRepository_RatingAddsMissingKeys(t *testing.T) {
	coll := testhelpers.StartMongo(t)
	repo := repository.NewCourseRepository(coll, testhelpers.NewTestLogger())
	ctx := context.Background()

	oid := bson.NewObjectID()
	_, err := coll.InsertOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Legacy"},
		{Key: "chapters", Value: bson.A{bson.D{
			{Key: "_id", Value: "legacy-1"},
			{Key: "name", Value: "Unrated"},
			{Key: "text", Value: "..."},
		}}},
	})
	require.NoError(t, err)

	r, err := repo.RateChapter(ctx, oid.Hex(), "legacy-1", models.PolarityNegative)
	require.NoError(t, err)
	assert.Equal(t, models.Ratings{Negative: 1}, r)

	var raw struct {
		Chapters []struct {
			Ratings map[string]int64 `bson:"ratings"`
		} `bson:"chapters"`
	}
	require.NoError(t, coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&raw))
	require.Len(t, raw.Chapters, 1)
	assert.Equal(t, map[string]int64{"positive": 0, "negative": 1}, raw.Chapters[0].Ratings)
}
