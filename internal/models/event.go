package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is an in-person or hybrid event (field days, exhibitions, trainings).
type Event struct {
	ID              uuid.UUID  `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location,omitempty"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	EventType       string     `json:"eventType,omitempty"`
	RegistrationURL string     `json:"registrationUrl,omitempty"`
	ImageURL        string     `json:"imageUrl,omitempty"`
	IsPublic        bool       `json:"isPublic"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
