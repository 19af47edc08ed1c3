package models

import (
	"time"

	"github.com/google/uuid"
)

// WebinarRegistration binds a user to a webinar. (WebinarID, UserID) is unique.
type WebinarRegistration struct {
	ID           uuid.UUID `json:"id"`
	WebinarID    uuid.UUID `json:"webinarId"`
	UserID       uuid.UUID `json:"userId"`
	RegisteredAt time.Time `json:"registeredAt"`
	Attended     bool      `json:"attended"`
}

// RegistrationView is a registration joined with the webinar it belongs to, for "my webinars".
type RegistrationView struct {
	WebinarRegistration
	WebinarSlug   string        `json:"webinarSlug"`
	WebinarTitle  string        `json:"webinarTitle"`
	ScheduledDate time.Time     `json:"scheduledDate"`
	Status        WebinarStatus `json:"status"`
}

// RegistrantView is a registration joined with the registrant, for admin attendee lists.
type RegistrantView struct {
	WebinarRegistration
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
