package models

import (
	"time"

	"github.com/google/uuid"
)

// WebinarStatus is the lifecycle state of a webinar.
type WebinarStatus string

const (
	WebinarStatusUpcoming  WebinarStatus = "upcoming"
	WebinarStatusLive      WebinarStatus = "live"
	WebinarStatusCompleted WebinarStatus = "completed"
	WebinarStatusCancelled WebinarStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s WebinarStatus) Valid() bool {
	switch s {
	case WebinarStatusUpcoming, WebinarStatusLive, WebinarStatusCompleted, WebinarStatusCancelled:
		return true
	}
	return false
}

// Webinar is a scheduled online session. CurrentAttendees only moves through the
// registration manager.
type Webinar struct {
	ID                   uuid.UUID     `json:"id"`
	Slug                 string        `json:"slug"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Category             string        `json:"category,omitempty"`
	SpeakerName          string        `json:"speakerName,omitempty"`
	SpeakerTitle         string        `json:"speakerTitle,omitempty"`
	SpeakerBio           string        `json:"speakerBio,omitempty"`
	SpeakerImageURL      string        `json:"speakerImageUrl,omitempty"`
	ScheduledDate        time.Time     `json:"scheduledDate"`
	DurationMinutes      int           `json:"duration"`
	Status               WebinarStatus `json:"status"`
	RegistrationRequired bool          `json:"registrationRequired"`
	MaxAttendees         *int          `json:"maxAttendees"`
	CurrentAttendees     int           `json:"currentAttendees"`
	IsPublic             bool          `json:"isPublic"`
	MeetingURL           string        `json:"meetingUrl,omitempty"`
	ThumbnailURL         string        `json:"thumbnailUrl,omitempty"`
	Tags                 []string      `json:"tags"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// IsFull reports whether the attendee ceiling has been reached.
func (w *Webinar) IsFull() bool {
	return w.MaxAttendees != nil && w.CurrentAttendees >= *w.MaxAttendees
}

// WebinarFilter narrows the public webinar listing.
type WebinarFilter struct {
	Status     WebinarStatus
	Category   string
	Search     string
	PublicOnly bool
	Limit      int
	Offset     int
}

// WebinarDetail is a webinar with the attachments the caller may see.
type WebinarDetail struct {
	Webinar
	Resources    []WebinarResource  `json:"resources"`
	Recordings   []WebinarRecording `json:"recordings"`
	IsRegistered bool               `json:"isRegistered"`
}
