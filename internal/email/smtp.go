package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/calebross/stagebook/internal/domain"
	"github.com/calebross/stagebook/internal/metrics"
	"github.com/calebross/stagebook/internal/render"
)

// =============================================================================
// SMTP Notifier Implementation
// =============================================================================

// SMTPNotifier sends booking notifications via SMTP.
//
// Messages are built as multipart/alternative (text + HTML); when a file was
// uploaded with the booking, the admin message is wrapped in multipart/mixed
// with the file as a base64 part.
type SMTPNotifier struct {
	config     SMTPConfig
	adminEmail string
	logger     *slog.Logger

	// sendFn is smtp.SendMail in production; tests substitute it to capture
	// outgoing messages without a live server.
	sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a new SMTP-based notifier.
//
// adminEmail is the fixed recipient of the operational notification for
// every accepted booking.
func NewSMTPNotifier(config SMTPConfig, adminEmail string, logger *slog.Logger) *SMTPNotifier {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	return &SMTPNotifier{
		config:     config,
		adminEmail: adminEmail,
		logger:     logger,
		sendFn:     smtp.SendMail,
	}
}

// =============================================================================
// Notifier Interface Implementation
// =============================================================================

// NotifyBooking sends the admin notification and, when a contact email is
// present, the client confirmation.
func (n *SMTPNotifier) NotifyBooking(ctx context.Context, rec *domain.BookingRecord, file *domain.FileUpload) (NotifyResult, error) {
	var result NotifyResult

	adminOut := render.Render(rec, render.AudienceAdmin)

	// Reply-To points at the submitter so the admin can answer directly.
	replyTo := rec.Fields.ContactEmail()
	if replyTo == "" {
		replyTo = n.config.From
	}

	adminMsg := Message{
		To:       n.adminEmail,
		ReplyTo:  replyTo,
		Subject:  AdminSubject,
		HTMLBody: adminOut.HTML,
		TextBody: adminOut.Text,
	}
	if file != nil {
		adminMsg.Attachment = &Attachment{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Data:        file.Data,
		}
	}

	if err := n.send(ctx, adminMsg); err != nil {
		metrics.EmailsSent.WithLabelValues("admin", "error").Inc()
		return result, fmt.Errorf("admin notification failed: %w", err)
	}
	result.AdminSent = true
	metrics.EmailsSent.WithLabelValues("admin", "ok").Inc()

	clientAddr := rec.Fields.ContactEmail()
	if clientAddr == "" {
		return result, nil
	}

	clientOut := render.Render(rec, render.AudienceClient)
	clientMsg := Message{
		To:       clientAddr,
		Subject:  ClientSubject,
		HTMLBody: clientOut.HTML,
		TextBody: clientOut.Text,
	}

	if err := n.send(ctx, clientMsg); err != nil {
		// The booking is already recorded and the admin copy delivered;
		// a failed confirmation is reported but not fatal.
		result.ClientErr = err
		metrics.EmailsSent.WithLabelValues("client", "error").Inc()
		n.logger.Warn("client confirmation failed",
			"to", clientAddr,
			"error", err,
		)
		return result, nil
	}
	result.ClientSent = true
	metrics.EmailsSent.WithLabelValues("client", "ok").Inc()

	return result, nil
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends a single message via SMTP.
func (n *SMTPNotifier) send(ctx context.Context, msg Message) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	raw := n.buildMessage(msg)
	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)

	// Auth only when credentials are configured (not needed for Mailhog).
	var auth smtp.Auth
	if n.config.Username != "" && n.config.Password != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	if err := n.sendFn(addr, auth, n.config.From, []string{msg.To}, raw); err != nil {
		n.logger.Error("failed to send email",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("email sent",
		"to", msg.To,
		"subject", msg.Subject,
		"attachment", msg.Attachment != nil,
	)

	return nil
}

const (
	mixedBoundary = "===============STAGEBOOK_MIXED==============="
	altBoundary   = "===============STAGEBOOK_ALT==============="
)

// buildMessage constructs the raw RFC 822 message with headers.
func (n *SMTPNotifier) buildMessage(msg Message) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", n.config.FromName, n.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	if msg.ReplyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", msg.ReplyTo))
	}
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.Attachment == nil {
		writeAlternative(&buf, msg, altBoundary)
		return buf.Bytes()
	}

	// With an attachment the body becomes multipart/mixed: the alternative
	// part first, then the file.
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	writeAlternative(&buf, msg, altBoundary)

	buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	buf.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", msg.Attachment.ContentType, msg.Attachment.Filename))
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", msg.Attachment.Filename))
	buf.WriteString("\r\n")
	writeBase64(&buf, msg.Attachment.Data)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))

	return buf.Bytes()
}

// writeAlternative writes the multipart/alternative text + HTML body.
func writeAlternative(buf *bytes.Buffer, msg Message, boundary string) {
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
}

// writeBase64 encodes data in base64 wrapped at 76 columns per RFC 2045.
func writeBase64(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	const lineLen = 76
	for len(encoded) > lineLen {
		buf.WriteString(encoded[:lineLen])
		buf.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	buf.WriteString(encoded)
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ Notifier = (*SMTPNotifier)(nil)
