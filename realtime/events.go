package realtime

import (
	"encoding/json"

	"github.com/PrayerWall/models"
)

// Wire event names. Server-to-client events mirror what the admin dashboard
// and the live wall listen for; "new-comment" is also the one client-to-
// server event.
const (
	EventInitialComments      = "initial-comments"
	EventNewComment           = "new-comment"
	EventCommentDeleted       = "comment-deleted"
	EventPrayerRequestUpdated = "prayer-request-updated"
)

// Change types carried inside a prayer-request-updated event.
const (
	ChangeAdded      = "added"
	ChangeUpdated    = "updated"
	ChangeDeleted    = "deleted"
	ChangeDeletedAll = "deleted-all"
)

// Event is a server-to-client frame.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientEvent is a client-to-server frame. Data stays raw until the event
// name tells us what shape to expect.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PrayerRequestChange is the payload of a prayer-request-updated event.
type PrayerRequestChange struct {
	Type      string                `json:"type"`
	Request   *models.PrayerRequest `json:"request,omitempty"`
	RequestID string                `json:"requestId,omitempty"`
	Count     int64                 `json:"count,omitempty"`
}

func InitialComments(comments []models.Comment) Event {
	if comments == nil {
		comments = []models.Comment{}
	}
	return Event{Event: EventInitialComments, Data: comments}
}

func NewComment(comment models.Comment) Event {
	return Event{Event: EventNewComment, Data: comment}
}

func CommentDeleted(id string) Event {
	return Event{Event: EventCommentDeleted, Data: map[string]string{"commentId": id}}
}

func PrayerRequestAdded(request models.PrayerRequest) Event {
	return Event{Event: EventPrayerRequestUpdated, Data: PrayerRequestChange{Type: ChangeAdded, Request: &request}}
}

func PrayerRequestUpdated(request models.PrayerRequest) Event {
	return Event{Event: EventPrayerRequestUpdated, Data: PrayerRequestChange{Type: ChangeUpdated, Request: &request}}
}

func PrayerRequestDeleted(id string) Event {
	return Event{Event: EventPrayerRequestUpdated, Data: PrayerRequestChange{Type: ChangeDeleted, RequestID: id}}
}

func PrayerRequestsCleared(count int64) Event {
	return Event{Event: EventPrayerRequestUpdated, Data: PrayerRequestChange{Type: ChangeDeletedAll, Count: count}}
}
