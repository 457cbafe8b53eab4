package repository

import (
	"time"

	"github.com/jonesrussell/course-catalog/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// courseDocument is the stored shape of a course. The ObjectID never leaves
// this package; callers see its hex form.
type courseDocument struct {
	ID          bson.ObjectID     `bson:"_id,omitempty"`
	Name        string            `bson:"name"`
	Date        time.Time         `bson:"date"`
	Description string            `bson:"description"`
	Domain      []string          `bson:"domain"`
	Chapters    []chapterDocument `bson:"chapters"`
}

type chapterDocument struct {
	ID      string          `bson:"_id"`
	Name    string          `bson:"name"`
	Text    string          `bson:"text"`
	Ratings ratingsDocument `bson:"ratings"`
}

type ratingsDocument struct {
	Positive int64 `bson:"positive"`
	Negative int64 `bson:"negative"`
}

func (d *courseDocument) toModel() models.Course {
	course := models.Course{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Date:        d.Date.UTC(),
		Description: d.Description,
		Domain:      d.Domain,
		Chapters:    make([]models.Chapter, 0, len(d.Chapters)),
	}
	if course.Domain == nil {
		course.Domain = []string{}
	}
	for _, ch := range d.Chapters {
		course.Chapters = append(course.Chapters, ch.toModel())
	}
	return course
}

func (d *chapterDocument) toModel() models.Chapter {
	return models.Chapter{
		ID:   d.ID,
		Name: d.Name,
		Text: d.Text,
		Ratings: models.Ratings{
			Positive: d.Ratings.Positive,
			Negative: d.Ratings.Negative,
		},
	}
}

// courseFields returns the top-level fields replaced by every load.
func courseFields(c *models.Course) bson.D {
	chapters := make(bson.A, 0, len(c.Chapters))
	for _, ch := range c.Chapters {
		chapters = append(chapters, bson.D{
			{Key: "_id", Value: ch.ID},
			{Key: "name", Value: ch.Name},
			{Key: "text", Value: ch.Text},
			{Key: "ratings", Value: bson.D{
				{Key: "positive", Value: ch.Ratings.Positive},
				{Key: "negative", Value: ch.Ratings.Negative},
			}},
		})
	}

	domain := c.Domain
	if domain == nil {
		domain = []string{}
	}

	return bson.D{
		{Key: "name", Value: c.Name},
		{Key: "date", Value: c.Date.UTC()},
		{Key: "description", Value: c.Description},
		{Key: "domain", Value: domain},
		{Key: "chapters", Value: chapters},
	}
}
