package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/PrayerWall/models"
)

// ErrNotFound is returned when no record exists for the given id. Both
// backends return it so callers never need to know which one is live.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Store is the record store behind every handler and the live comment feed.
// Two implementations exist: a Postgres-backed one and an in-memory fallback
// used when the database is unreachable at startup. The choice is made once
// in main and never revisited for the life of the process.
//
// Ids are plain strings in both backends; list operations sort newest first.
type Store interface {
	CreateComment(ctx context.Context, in models.CommentCreate) (models.Comment, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	// ListComments returns comments newest first. A limit <= 0 means no limit.
	ListComments(ctx context.Context, limit int) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) (models.Comment, error)

	CreatePrayerRequest(ctx context.Context, in models.PrayerRequestCreate) (models.PrayerRequest, error)
	GetPrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error)
	ListPrayerRequests(ctx context.Context) ([]models.PrayerRequest, error)
	UpdatePrayerRequest(ctx context.Context, id string, patch models.PrayerRequestUpdate) (models.PrayerRequest, error)
	DeletePrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error)
	DeleteAllPrayerRequests(ctx context.Context) (int64, error)
	CountPrayerRequests(ctx context.Context) (int64, error)

	// Durable reports whether records survive a process restart.
	Durable() bool
}

// validateComment enforces the invariants shared by both backends. The
// payload must already be normalized.
func validateComment(in models.CommentCreate) error {
	if in.Text == "" {
		return &ValidationError{Field: "text", Reason: "comment text is required"}
	}
	if len(in.Text) > models.MaxCommentLength {
		return &ValidationError{Field: "text", Reason: fmt.Sprintf("comment text exceeds maximum length of %d characters", models.MaxCommentLength)}
	}
	return nil
}

func validatePrayerRequestText(request string) error {
	if request == "" {
		return &ValidationError{Field: "request", Reason: "prayer request text is required"}
	}
	return nil
}

func validateStatus(s models.Status) error {
	if !models.ValidStatus(s) {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
	}
	return nil
}
