package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types sent by the platform.
const (
	EmailTypeVerification             = "email_verification"
	EmailTypePasswordReset            = "password_reset"
	EmailTypeAdminPasswordReset       = "admin_password_reset"
	EmailTypeRegistrationConfirmation = "webinar_registration"
	EmailTypeContactAcknowledgement   = "contact_acknowledgement"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records one outbound email attempt.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EmailType      string     `json:"emailType"`
	RecipientEmail string     `json:"recipientEmail"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
