package models

import (
	"strings"
	"time"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
)

// Course is a catalog entry with its ordered chapters.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Domain      []string  `json:"domain"`
	Chapters    []Chapter `json:"chapters"`
}

// Chapter is a unit of a course. ID is unique within its course.
type Chapter struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Text    string  `json:"text"`
	Ratings Ratings `json:"ratings"`
}

// Ratings holds the chapter vote counters.
type Ratings struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
}

// Chapter returns the chapter with the given ID.
func (c *Course) Chapter(id string) (*Chapter, bool) {
	for i := range c.Chapters {
		if c.Chapters[i].ID == id {
			return &c.Chapters[i], true
		}
	}
	return nil, false
}

// HasDomain reports whether tag is one of the course's domain tags.
func (c *Course) HasDomain(tag string) bool {
	for _, d := range c.Domain {
		if d == tag {
			return true
		}
	}
	return false
}

// PositiveRatings is the sum of positive votes over all chapters.
// Courses are ordered by it in SortRating mode.
func (c *Course) PositiveRatings() int64 {
	var total int64
	for _, ch := range c.Chapters {
		total += ch.Ratings.Positive
	}
	return total
}

// Clone returns a deep copy.
func (c *Course) Clone() Course {
	out := *c
	if c.Domain != nil {
		out.Domain = append([]string(nil), c.Domain...)
	}
	if c.Chapters != nil {
		out.Chapters = append([]Chapter(nil), c.Chapters...)
	}
	return out
}

// SortMode selects the course listing order.
type SortMode string

const (
	// SortAlphabetical orders by name ascending.
	SortAlphabetical SortMode = "alphabetical"
	// SortDate orders by date descending, ties by name.
	SortDate SortMode = "date"
	// SortRating orders by PositiveRatings descending, ties by name.
	SortRating SortMode = "rating"
)

// ParseSortMode validates a sort query value. An empty value is rejected;
// callers use SortAlphabetical when the parameter is absent.
func ParseSortMode(s string) (SortMode, error) {
	switch mode := SortMode(s); mode {
	case SortAlphabetical, SortDate, SortRating:
		return mode, nil
	default:
		return "", apperrors.Validation("sort must be one of: alphabetical, date, rating")
	}
}

// CourseFilter narrows and orders a course listing.
type CourseFilter struct {
	Sort SortMode
	// Domain, when set, keeps only courses tagged with it.
	Domain string
}

// Polarity is the counter a rating increments.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// PolarityOf maps the rate endpoint's boolean to a Polarity.
func PolarityOf(positive bool) Polarity {
	if positive {
		return PolarityPositive
	}
	return PolarityNegative
}

// Other returns the opposite counter.
func (p Polarity) Other() Polarity {
	if p == PolarityPositive {
		return PolarityNegative
	}
	return PolarityPositive
}

// Increment returns r with the p counter raised by one.
func (r Ratings) Increment(p Polarity) Ratings {
	if p == PolarityPositive {
		r.Positive++
	} else {
		r.Negative++
	}
	return r
}

// ParseBool accepts the boolean spellings clients send in query strings.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}

// UpsertResult reports the outcome of a bulk course upsert.
type UpsertResult struct {
	Inserted int64 `json:"inserted"`
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}
