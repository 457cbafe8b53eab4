// Package events defines the catalog event envelope published to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream catalog events are appended to.
const StreamName = "catalog-events"

// EventType represents the type of catalog event.
type EventType string

const (
	// ChapterRated is emitted after a rating increment is persisted.
	ChapterRated EventType = "CHAPTER_RATED"
	// CoursesLoaded is emitted after a loader bulk upsert completes.
	CoursesLoaded EventType = "COURSES_LOADED"
)

// CatalogEvent is the envelope for all catalog events.
type CatalogEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	CourseID  string    `json:"course_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ChapterRatedPayload contains data for CHAPTER_RATED events.
// Positive and Negative are the counters after the increment.
type ChapterRatedPayload struct {
	ChapterID string `json:"chapter_id"`
	Polarity  string `json:"polarity"`
	Positive  int64  `json:"positive"`
	Negative  int64  `json:"negative"`
}

// CoursesLoadedPayload contains data for COURSES_LOADED events.
type CoursesLoadedPayload struct {
	File     string `json:"file"`
	Courses  int    `json:"courses"`
	Inserted int64  `json:"inserted"`
	Matched  int64  `json:"matched"`
	Modified int64  `json:"modified"`
}
