package email

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/smtp"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/calebross/stagebook/internal/domain"
)

// sentMail captures one call to the notifier's send function.
type sentMail struct {
	to  []string
	msg []byte
}

func testNotifier(t *testing.T, sent *[]sentMail, failFor map[string]error) *SMTPNotifier {
	t.Helper()

	n := NewSMTPNotifier(SMTPConfig{
		Host:     "localhost",
		Port:     1025,
		From:     "noreply@stagebook.io",
		FromName: "Stagebook",
	}, "bookings@stagebook.io", slog.New(slog.NewTextHandler(os.Stderr, nil)))

	n.sendFn = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if err, ok := failFor[to[0]]; ok {
			return err
		}
		*sent = append(*sent, sentMail{to: to, msg: msg})
		return nil
	}

	return n
}

func testRecord() *domain.BookingRecord {
	return &domain.BookingRecord{
		ID: "rec-1",
		Fields: domain.Submission{
			"contact_name":         {"Jane"},
			"contact_email":        {"jane@x.com"},
			"general_project-type": {"Editorial"},
		},
		CreatedAt: time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestNotifyBooking_SendsAdminAndClient(t *testing.T) {
	var sent []sentMail
	n := testNotifier(t, &sent, nil)

	result, err := n.NotifyBooking(context.Background(), testRecord(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AdminSent || !result.ClientSent {
		t.Fatalf("expected both sends, got %+v", result)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sent))
	}

	adminMsg := string(sent[0].msg)
	if sent[0].to[0] != "bookings@stagebook.io" {
		t.Errorf("admin message went to %q", sent[0].to[0])
	}
	if !strings.Contains(adminMsg, "Subject: "+AdminSubject) {
		t.Errorf("admin message missing subject: %s", adminMsg)
	}
	if !strings.Contains(adminMsg, "Reply-To: jane@x.com") {
		t.Errorf("admin message missing reply-to header: %s", adminMsg)
	}
	if !strings.Contains(adminMsg, "Name: Jane") {
		t.Errorf("admin text body missing contact field: %s", adminMsg)
	}
	if !strings.Contains(adminMsg, "Project type: Editorial") {
		t.Errorf("admin text body missing project field: %s", adminMsg)
	}

	clientMsg := string(sent[1].msg)
	if sent[1].to[0] != "jane@x.com" {
		t.Errorf("client message went to %q", sent[1].to[0])
	}
	if !strings.Contains(clientMsg, "Subject: "+ClientSubject) {
		t.Errorf("client message missing subject: %s", clientMsg)
	}
	if strings.Contains(clientMsg, "Content-Disposition: attachment") {
		t.Error("client message must not carry an attachment")
	}
}

func TestNotifyBooking_NoClientEmail(t *testing.T) {
	var sent []sentMail
	n := testNotifier(t, &sent, nil)

	rec := testRecord()
	delete(rec.Fields, "contact_email")

	result, err := n.NotifyBooking(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AdminSent || result.ClientSent {
		t.Fatalf("expected admin-only send, got %+v", result)
	}
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}

	// Without a submitter address, Reply-To falls back to the sender.
	if !strings.Contains(string(sent[0].msg), "Reply-To: noreply@stagebook.io") {
		t.Errorf("expected sender fallback reply-to: %s", sent[0].msg)
	}
}

func TestNotifyBooking_AttachesUploadedFile(t *testing.T) {
	var sent []sentMail
	n := testNotifier(t, &sent, nil)

	data := []byte("%PDF-1.4 fake pdf payload")
	upload := &domain.FileUpload{
		FileMetadata: domain.FileMetadata{
			Filename:    "brief.pdf",
			ContentType: "application/pdf",
			Size:        int64(len(data)),
		},
		Data: data,
	}

	_, err := n.NotifyBooking(context.Background(), testRecord(), upload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	adminMsg := string(sent[0].msg)
	if !strings.Contains(adminMsg, "multipart/mixed") {
		t.Errorf("admin message should be multipart/mixed: %s", adminMsg)
	}
	if !strings.Contains(adminMsg, `Content-Disposition: attachment; filename="brief.pdf"`) {
		t.Errorf("admin message missing attachment header: %s", adminMsg)
	}
	if !strings.Contains(adminMsg, base64.StdEncoding.EncodeToString(data)) {
		t.Errorf("admin message missing base64 payload: %s", adminMsg)
	}

	// Only the admin copy carries the file
	clientMsg := string(sent[1].msg)
	if strings.Contains(clientMsg, "multipart/mixed") {
		t.Error("client message must not be multipart/mixed")
	}
}

func TestNotifyBooking_AdminFailureSkipsClient(t *testing.T) {
	var sent []sentMail
	n := testNotifier(t, &sent, map[string]error{
		"bookings@stagebook.io": errors.New("connection refused"),
	})

	result, err := n.NotifyBooking(context.Background(), testRecord(), nil)
	if err == nil {
		t.Fatal("expected error when admin send fails")
	}
	if result.AdminSent || result.ClientSent {
		t.Fatalf("expected no successful sends, got %+v", result)
	}
	if len(sent) != 0 {
		t.Fatalf("client send should not be attempted, got %d messages", len(sent))
	}
}

func TestNotifyBooking_ClientFailureIsNotFatal(t *testing.T) {
	var sent []sentMail
	n := testNotifier(t, &sent, map[string]error{
		"jane@x.com": errors.New("mailbox full"),
	})

	result, err := n.NotifyBooking(context.Background(), testRecord(), nil)
	if err != nil {
		t.Fatalf("client failure must not fail the operation: %v", err)
	}
	if !result.AdminSent {
		t.Error("admin send should have succeeded")
	}
	if result.ClientSent {
		t.Error("client send should be reported as failed")
	}
	if result.ClientErr == nil {
		t.Error("client error should be reported in the result")
	}
}

func TestBuildMessage_AlternativeBody(t *testing.T) {
	n := testNotifier(t, &[]sentMail{}, nil)

	raw := string(n.buildMessage(Message{
		To:       "a@b.c",
		Subject:  "Hello",
		HTMLBody: "<p>hi</p>",
		TextBody: "hi",
	}))

	if !strings.Contains(raw, "From: Stagebook <noreply@stagebook.io>") {
		t.Errorf("missing from header: %s", raw)
	}
	if !strings.Contains(raw, "multipart/alternative") {
		t.Errorf("expected multipart/alternative body: %s", raw)
	}
	if !strings.Contains(raw, "Content-Type: text/plain; charset=utf-8") {
		t.Errorf("missing text part: %s", raw)
	}
	if !strings.Contains(raw, "Content-Type: text/html; charset=utf-8") {
		t.Errorf("missing html part: %s", raw)
	}
	if strings.Contains(raw, "Reply-To:") {
		t.Errorf("reply-to should be omitted when unset: %s", raw)
	}
}
