package models

import (
	"strings"
	"time"
)

// DefaultAuthor is substituted whenever a submission omits the author name.
const DefaultAuthor = "Anonymous"

// MaxCommentLength caps comment text length in characters.
const MaxCommentLength = 500

// LiveFeedLimit bounds the comment snapshot replayed to a newly connected
// live viewer. The admin listing is unbounded.
const LiveFeedLimit = 50

// Comment is a live-wall comment. Comments are immutable after creation;
// admins may delete them but never edit them.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CommentCreate is the submission payload, arriving over the push channel
// as a "new-comment" event.
type CommentCreate struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Normalize trims the payload and applies the anonymous-author default.
func (c *CommentCreate) Normalize() {
	c.Author = strings.TrimSpace(c.Author)
	if c.Author == "" {
		c.Author = DefaultAuthor
	}
	c.Text = strings.TrimSpace(c.Text)
}
