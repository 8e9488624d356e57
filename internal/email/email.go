// Package email sends booking notification emails.
//
// It defines a Notifier interface with an SMTP implementation that works
// with Mailhog in development (no authentication) and any standard SMTP
// server in production.
package email

import (
	"context"

	"github.com/calebross/stagebook/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Notifier sends the notification emails for one accepted booking.
type Notifier interface {
	// NotifyBooking sends the admin notification (with the uploaded file
	// attached, when present) and, if the submission carries a contact email
	// address, a client confirmation without attachment.
	//
	// A failed admin send fails the whole operation and the client send is
	// not attempted. A failed client send is reported in the result but does
	// not return an error: the admin copy is the operational record.
	NotifyBooking(ctx context.Context, rec *domain.BookingRecord, file *domain.FileUpload) (NotifyResult, error)
}

// NotifyResult reports the per-recipient outcome of a notify operation.
type NotifyResult struct {
	AdminSent  bool
	ClientSent bool
	ClientErr  error // Set when the client send was attempted and failed
}

// =============================================================================
// Message Types
// =============================================================================

// Message represents a single outgoing email.
type Message struct {
	To         string
	ReplyTo    string // Optional; defaults to the sender address when empty
	Subject    string
	HTMLBody   string
	TextBody   string
	Attachment *Attachment // Optional
}

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// =============================================================================
// Configuration
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Sender email address
	FromName string // Sender display name
}

// Fixed subject lines for the two booking notification messages.
const (
	AdminSubject  = "New booking request received"
	ClientSubject = "We received your booking request"
)

const (
	// DefaultFromEmail is the default sender address.
	DefaultFromEmail = "noreply@stagebook.io"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Stagebook"
)
