package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	"github.com/jonesrussell/course-catalog/internal/models"
)

// chapterNamespace seeds the name-based UUIDs given to chapters without an
// identifier, so unchanged input always yields the same chapter IDs.
var chapterNamespace = uuid.MustParse("9b1f6c52-3c1e-4b8e-9f1a-6d2f0c7e4a10")

// record is one course object of the input file.
type record struct {
	ID          objectRef       `json:"_id"`
	Name        string          `json:"name"`
	Date        json.Number     `json:"date"`
	Description string          `json:"description"`
	Domain      []string        `json:"domain"`
	Chapters    []chapterRecord `json:"chapters"`
}

type chapterRecord struct {
	ID      objectRef      `json:"_id"`
	Name    string         `json:"name"`
	Text    string         `json:"text"`
	Ratings *ratingsRecord `json:"ratings"`
}

type ratingsRecord struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
}

// objectRef is an identifier in any of the shapes exports carry: a string,
// a number, or extended JSON {"$oid": "..."}. Null and absent are unset.
type objectRef struct {
	value string
	set   bool
}

func (r *objectRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = objectRef{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = objectRef{value: s, set: true}
	case '{':
		var ext struct {
			OID *string `json:"$oid"`
		}
		if err := json.Unmarshal(data, &ext); err != nil {
			return err
		}
		if ext.OID == nil {
			return fmt.Errorf("unsupported identifier object %s", data)
		}
		*r = objectRef{value: *ext.OID, set: true}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported identifier %s", data)
		}
		*r = objectRef{value: n.String(), set: true}
	}
	return nil
}

// ReadFile parses and normalizes an input file. Any failure is a Parse
// error and nothing is returned.
func ReadFile(path string) ([]models.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Parse("read input "+path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of course records and normalizes it.
func Parse(data []byte) ([]models.Course, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.Parse("decode input", err)
	}
	return normalize(records)
}

// normalize converts epoch dates to UTC timestamps, identifiers to strings,
// and fills defaults. Chapters without an identifier get one derived from
// the course name and chapter position.
func normalize(records []record) ([]models.Course, error) {
	courses := make([]models.Course, 0, len(records))

	for i := range records {
		rec := &records[i]
		if rec.Name == "" {
			return nil, apperrors.Parse(fmt.Sprintf("record %d: name is required", i), nil)
		}

		date, err := epochToTime(rec.Date)
		if err != nil {
			return nil, apperrors.Parse(fmt.Sprintf("record %d (%s): invalid date", i, rec.Name), err)
		}

		course := models.Course{
			Name:        rec.Name,
			Date:        date,
			Description: rec.Description,
			Domain:      rec.Domain,
			Chapters:    make([]models.Chapter, 0, len(rec.Chapters)),
		}
		if course.Domain == nil {
			course.Domain = []string{}
		}

		if rec.ID.set {
			if _, oidErr := bson.ObjectIDFromHex(rec.ID.value); oidErr != nil {
				return nil, apperrors.Parse(fmt.Sprintf("record %d (%s): _id %q is not an ObjectID", i, rec.Name, rec.ID.value), oidErr)
			}
			course.ID = rec.ID.value
		}

		seen := make(map[string]struct{}, len(rec.Chapters))
		for j, ch := range rec.Chapters {
			chapter, chErr := normalizeChapter(rec.Name, j, ch)
			if chErr != nil {
				return nil, apperrors.Parse(fmt.Sprintf("record %d (%s): chapter %d", i, rec.Name, j), chErr)
			}
			if _, dup := seen[chapter.ID]; dup {
				return nil, apperrors.Parse(
					fmt.Sprintf("record %d (%s): duplicate chapter id %q", i, rec.Name, chapter.ID), nil)
			}
			seen[chapter.ID] = struct{}{}
			course.Chapters = append(course.Chapters, chapter)
		}

		courses = append(courses, course)
	}

	return courses, nil
}

func normalizeChapter(courseName string, index int, ch chapterRecord) (models.Chapter, error) {
	chapter := models.Chapter{
		ID:   ch.ID.value,
		Name: ch.Name,
		Text: ch.Text,
	}
	if !ch.ID.set || ch.ID.value == "" {
		chapter.ID = uuid.NewSHA1(chapterNamespace, []byte(courseName+"/"+strconv.Itoa(index))).String()
	}
	if ch.Ratings != nil {
		if ch.Ratings.Positive < 0 || ch.Ratings.Negative < 0 {
			return models.Chapter{}, errors.New("ratings must be non-negative")
		}
		chapter.Ratings = models.Ratings{Positive: ch.Ratings.Positive, Negative: ch.Ratings.Negative}
	}
	return chapter, nil
}

// Dates must fall in years 1 through 9999.
var (
	minEpoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxEpoch = time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC).Unix() - 1
)

// epochToTime converts integer or fractional epoch seconds to UTC.
func epochToTime(n json.Number) (time.Time, error) {
	if n == "" {
		return time.Time{}, errors.New("date is required")
	}
	if secs, err := n.Int64(); err == nil {
		if secs < minEpoch || secs > maxEpoch {
			return time.Time{}, fmt.Errorf("date %s out of range", n)
		}
		return time.Unix(secs, 0).UTC(), nil
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || f < float64(minEpoch) || f >= float64(maxEpoch+1) {
		return time.Time{}, fmt.Errorf("date %s out of range", n)
	}
	secs, frac := math.Modf(f)
	return time.Unix(int64(secs), int64(math.Round(frac*1e9))).UTC(), nil
}
