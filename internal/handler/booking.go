// Package handler contains the HTTP handlers for the booking service.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/calebross/stagebook/internal/domain"
	"github.com/calebross/stagebook/internal/email"
	"github.com/calebross/stagebook/internal/metrics"
	"github.com/calebross/stagebook/internal/store"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// FileFieldName is the multipart field carrying the optional upload.
	FileFieldName = "booking_file"

	// DefaultMaxUploadBytes caps uploads at 10 MB.
	DefaultMaxUploadBytes = 10 << 20

	// multipartMemory is how much of a parsed form is held in memory before
	// spilling to temp files.
	multipartMemory = 16 << 20
)

// Uploads are restricted to PDF documents.
const allowedContentType = "application/pdf"

// =============================================================================
// Booking Handler
// =============================================================================

// BookingHandler serves the booking intake and listing endpoints.
type BookingHandler struct {
	store          store.Store
	notifier       email.Notifier
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewBookingHandler creates a BookingHandler. maxUploadBytes <= 0 selects
// the default limit.
func NewBookingHandler(st store.Store, notifier email.Notifier, logger *slog.Logger, maxUploadBytes int64) *BookingHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &BookingHandler{
		store:          st,
		notifier:       notifier,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers the booking routes on the mux. The listing
// endpoint goes behind the supplied token-auth middleware.
func (h *BookingHandler) RegisterRoutes(mux *http.ServeMux, requireToken func(http.Handler) http.Handler) {
	mux.Handle("POST /submit-booking", http.HandlerFunc(h.Submit))
	mux.Handle("GET /bookings", requireToken(http.HandlerFunc(h.List)))
	mux.HandleFunc("GET /ping", h.Ping)
}

// =============================================================================
// POST /submit-booking
// =============================================================================

// Submit accepts a booking submission, persists it, and triggers the
// notification emails.
//
// Request flow: validate and accept the upload, build the record, store it,
// notify, respond. A storage failure fails the request; a notification
// failure after a successful store is logged, and the client still receives
// the success response, because the booking is already recorded.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		ErrorResponse(w, r, h.logger, domain.Unavailable("booking.submit", "Service is starting up, please retry"))
		return
	}

	sub, upload, err := h.parseSubmission(w, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rec := &domain.BookingRecord{Fields: sub}
	if upload != nil {
		meta := upload.FileMetadata
		rec.File = &meta
	}

	id, err := h.store.Put(r.Context(), rec)
	if err != nil {
		ErrorResponse(w, r, h.logger, storeError(err, "booking.submit", "Failed to save booking"))
		return
	}
	metrics.BookingsReceived.Inc()

	// Email is best-effort once the record is persisted: the submitter must
	// not see a failure page for a booking that was in fact recorded.
	result, err := h.notifier.NotifyBooking(r.Context(), rec, upload)
	if err != nil {
		h.logger.Error("admin notification failed",
			"booking_id", id,
			"error", err,
		)
	} else if result.ClientErr != nil {
		h.logger.Warn("client confirmation failed",
			"booking_id", id,
			"error", result.ClientErr,
		)
	}

	h.logger.Info("booking accepted",
		"booking_id", id,
		"has_file", rec.HasFile(),
		"admin_notified", result.AdminSent,
		"client_notified", result.ClientSent,
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Booking request received",
		"id":      id,
	})
}

// storeError converts a storage failure into a domain error. A backend that
// lost its connection after the readiness check maps to 503 rather than 500.
func storeError(err error, op, message string) error {
	if store.IsNotReady(err) {
		return domain.Unavailable(op, "Service is starting up, please retry")
	}
	return domain.Internal(err, op, message)
}

// parseSubmission extracts the submission fields and optional upload from a
// multipart or JSON request body. All returned errors carry the EINVALID
// code and surface as 400.
func (h *BookingHandler) parseSubmission(w http.ResponseWriter, r *http.Request) (domain.Submission, *domain.FileUpload, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		return h.parseMultipart(w, r)
	}
	return h.parseJSON(r)
}

// parseMultipart handles a multipart/form-data submission with an optional
// single file part. Size and type violations reject the request before any
// storage or email work happens.
func (h *BookingHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (domain.Submission, *domain.FileUpload, error) {
	// Hard cap on the whole request body; the per-file check below gives a
	// cleaner message for oversized attachments.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.BookingsRejected.WithLabelValues("too_large").Inc()
			return nil, nil, domain.Invalid("booking.submit", "Uploaded file exceeds the 10 MB limit")
		}
		return nil, nil, domain.Invalid("booking.submit", "Malformed form data")
	}

	sub := make(domain.Submission, len(r.MultipartForm.Value))
	for key, values := range r.MultipartForm.Value {
		sub[key] = domain.FieldValue(values)
	}

	headers := r.MultipartForm.File[FileFieldName]
	if len(headers) == 0 {
		return sub, nil, nil
	}

	header := headers[0]
	if header.Size > h.maxUploadBytes {
		metrics.BookingsRejected.WithLabelValues("too_large").Inc()
		return nil, nil, domain.Invalid("booking.submit", "Uploaded file exceeds the 10 MB limit")
	}
	declaredType := header.Header.Get("Content-Type")
	if !isPDF(header.Filename, declaredType) {
		metrics.BookingsRejected.WithLabelValues("bad_type").Inc()
		return nil, nil, domain.Invalid("booking.submit", "Only PDF attachments are accepted")
	}
	if declaredType == "" {
		declaredType = allowedContentType
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, domain.Invalid("booking.submit", "Could not read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, domain.Invalid("booking.submit", "Could not read uploaded file")
	}

	upload := &domain.FileUpload{
		FileMetadata: domain.FileMetadata{
			Filename:    filepath.Base(header.Filename),
			ContentType: declaredType,
			Size:        int64(len(data)),
		},
		Data: data,
	}

	return sub, upload, nil
}

// parseJSON handles an application/json submission. JSON bodies carry no
// file.
func (h *BookingHandler) parseJSON(r *http.Request) (domain.Submission, *domain.FileUpload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, multipartMemory))
	if err != nil {
		return nil, nil, domain.Invalid("booking.submit", "Could not read request body")
	}

	var sub domain.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, nil, domain.Invalid("booking.submit", "Request body must be a JSON object of form fields")
	}

	return sub, nil, nil
}

// isPDF accepts a file by declared content type, falling back to the
// extension when the browser sent a generic type.
func isPDF(filename, contentType string) bool {
	if contentType != "" && contentType != "application/octet-stream" {
		declared, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			return declared == allowedContentType
		}
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// =============================================================================
// GET /bookings
// =============================================================================

// List returns every stored booking record. The token-auth middleware runs
// before this handler, so the store is only touched for authorized callers.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		ErrorResponse(w, r, h.logger, domain.Unavailable("booking.list", "Service is starting up, please retry"))
		return
	}

	records, err := h.store.ListAll(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, storeError(err, "booking.list", "Failed to load bookings"))
		return
	}

	if records == nil {
		records = []domain.BookingRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// =============================================================================
// GET /ping
// =============================================================================

// Ping is the unauthenticated liveness check.
func (h *BookingHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}
