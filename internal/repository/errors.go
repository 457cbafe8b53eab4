package repository

import (
	"context"
	"errors"

	apperrors "github.com/jonesrussell/course-catalog/infrastructure/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Client-facing not-found messages.
const (
	MsgCourseNotFound  = "Course not found"
	MsgChapterNotFound = "Chapter not found"
)

func errCourseNotFound() error {
	return apperrors.NotFound(MsgCourseNotFound)
}

func errChapterNotFound() error {
	return apperrors.NotFound(MsgChapterNotFound)
}

// storeError classifies a driver error. Transport failures become
// StoreUnavailable; anything else is wrapped as an internal error.
func storeError(op string, err error) error {
	switch {
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded):
		return apperrors.StoreUnavailable(op, err)
	default:
		return apperrors.WrapWithContext(err, op)
	}
}
