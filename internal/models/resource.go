package models

import (
	"time"

	"github.com/google/uuid"
)

// WebinarResource is a downloadable file attached to a webinar.
type WebinarResource struct {
	ID            uuid.UUID `json:"id"`
	WebinarID     uuid.UUID `json:"webinarId"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	FileURL       string    `json:"fileUrl,omitempty"`
	FileType      string    `json:"fileType,omitempty"`
	FileSize      int64     `json:"fileSize"`
	RequiresAuth  bool      `json:"requiresAuth"`
	DownloadCount int       `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// WebinarRecording is a viewable recording of a webinar.
type WebinarRecording struct {
	ID              uuid.UUID `json:"id"`
	WebinarID       uuid.UUID `json:"webinarId"`
	Title           string    `json:"title"`
	VideoURL        string    `json:"videoUrl,omitempty"`
	DurationMinutes int       `json:"duration"`
	RequiresAuth    bool      `json:"requiresAuth"`
	ViewCount       int       `json:"viewCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LibraryResource is an item of the site-wide resource library (guides, reports, toolkits).
type LibraryResource struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	FileURL       string    `json:"fileUrl,omitempty"`
	FileType      string    `json:"fileType,omitempty"`
	RequiresAuth  bool      `json:"requiresAuth"`
	DownloadCount int       `json:"downloadCount"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Redacted returns a copy without the file location, for listings shown to anonymous callers.
func (r WebinarResource) Redacted() WebinarResource {
	r.FileURL = ""
	return r
}

// Redacted returns a copy without the video location.
func (r WebinarRecording) Redacted() WebinarRecording {
	r.VideoURL = ""
	return r
}
