package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactStatus tracks admin handling of an inbound message.
type ContactStatus string

const (
	ContactStatusNew       ContactStatus = "new"
	ContactStatusRead      ContactStatus = "read"
	ContactStatusResponded ContactStatus = "responded"
	ContactStatusClosed    ContactStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusNew, ContactStatusRead, ContactStatusResponded, ContactStatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move a message from s to next.
// new→read→responded/closed, new→closed and responded→closed are allowed; setting the
// current status again is a no-op and also allowed.
func (s ContactStatus) CanTransitionTo(next ContactStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ContactStatusNew:
		return next == ContactStatusRead || next == ContactStatusClosed
	case ContactStatusRead:
		return next == ContactStatusResponded || next == ContactStatusClosed
	case ContactStatusResponded:
		return next == ContactStatusClosed
	case ContactStatusClosed:
		return false
	}
	return false
}

// ContactForm is an inbound message from the public contact page.
type ContactForm struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Organization string        `json:"organization,omitempty"`
	Subject      string        `json:"subject"`
	Message      string        `json:"message"`
	InquiryType  string        `json:"inquiryType,omitempty"`
	Status       ContactStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
