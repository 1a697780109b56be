package models

import (
	"strings"
	"time"
)

// Status is the moderation state of a prayer request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusAnswered   Status = "answered"
	StatusArchived   Status = "archived"
)

// ValidStatus reports whether s is one of the four allowed states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAnswered, StatusArchived:
		return true
	}
	return false
}

// PrayerRequest is a submitted prayer request. Public visitors create them;
// only admins may read the full list, update or delete.
type PrayerRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Request     string    `json:"request"`
	IsAnonymous bool      `json:"isAnonymous"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PrayerRequestCreate is the public submission payload. Status is always
// forced to pending regardless of anything the client sends.
type PrayerRequestCreate struct {
	Name        string `json:"name"`
	Request     string `json:"request"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// Normalize applies the anonymity rule: an anonymous submission discards the
// supplied name entirely, and a missing name falls back to the default.
func (p *PrayerRequestCreate) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Request = strings.TrimSpace(p.Request)
	if p.IsAnonymous || p.Name == "" {
		p.Name = DefaultAuthor
	}
}

// PrayerRequestUpdate is the admin patch payload. Nil means the field was
// omitted and keeps its prior value; a present empty string is an explicit
// value and is applied (validation still rejects an empty request text).
type PrayerRequestUpdate struct {
	Name        *string `json:"name"`
	Request     *string `json:"request"`
	Status      *Status `json:"status"`
	IsAnonymous *bool   `json:"isAnonymous"`
}

// Apply patches pr in place and returns the result. It does not touch
// timestamps; the store owns those.
func (u PrayerRequestUpdate) Apply(pr PrayerRequest) PrayerRequest {
	if u.Name != nil {
		pr.Name = strings.TrimSpace(*u.Name)
	}
	if u.Request != nil {
		pr.Request = strings.TrimSpace(*u.Request)
	}
	if u.Status != nil {
		pr.Status = *u.Status
	}
	if u.IsAnonymous != nil {
		pr.IsAnonymous = *u.IsAnonymous
	}
	if pr.IsAnonymous || pr.Name == "" {
		pr.Name = DefaultAuthor
	}
	return pr
}
