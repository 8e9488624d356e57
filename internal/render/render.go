package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/calebross/stagebook/internal/domain"
)

// =============================================================================
// Audience
// =============================================================================

// Audience selects the copy wrapped around the rendered submission: the
// admin variant is a new-booking notice, the client variant greets the
// submitter and acknowledges receipt.
type Audience string

const (
	AudienceAdmin  Audience = "admin"
	AudienceClient Audience = "client"
)

// =============================================================================
// Output
// =============================================================================

// Output holds the two representations of a rendered booking.
type Output struct {
	HTML string
	Text string
}

// =============================================================================
// Renderer
// =============================================================================

// Render produces the HTML and plain-text rendering of a booking record for
// the given audience. The server-assigned timestamp is injected as a Meta
// field so it appears alongside any client-supplied one.
func Render(rec *domain.BookingRecord, audience Audience) Output {
	sections := Classify(renderableFields(rec))

	return Output{
		HTML: renderHTML(rec, sections, audience),
		Text: renderText(sections),
	}
}

// renderableFields copies the record's fields and adds the server timestamp
// under its Meta key. The copy keeps Render free of side effects on the
// record.
func renderableFields(rec *domain.BookingRecord) domain.Submission {
	fields := make(domain.Submission, len(rec.Fields)+1)
	for key, value := range rec.Fields {
		fields[key] = value
	}
	if !rec.CreatedAt.IsZero() {
		fields[createdAtKey] = domain.FieldValue{rec.CreatedAt.UTC().Format(time.RFC3339)}
	}
	return fields
}

// =============================================================================
// Plain Text
// =============================================================================

// renderText emits one upper-case section header per non-empty group,
// followed by a "Label: value" line per field, with a blank line between
// sections. A submission with no renderable fields produces an empty body.
func renderText(sections []Section) string {
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(section.Group.String()))
		b.WriteString("\n")
		for _, field := range section.Fields {
			b.WriteString(field.Label)
			b.WriteString(": ")
			b.WriteString(field.Value)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// =============================================================================
// HTML
// =============================================================================

// renderHTML wraps the grouped tables in audience-specific copy. All labels
// and values pass through html.EscapeString so user-supplied content can
// never inject markup.
func renderHTML(rec *domain.BookingRecord, sections []Section, audience Audience) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<body>\n")
	writeIntro(&b, rec, audience)

	for _, section := range sections {
		fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(section.Group.String()))
		b.WriteString("<table cellpadding=\"4\" cellspacing=\"0\">\n")
		for _, field := range section.Fields {
			fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>\n",
				html.EscapeString(field.Label),
				html.EscapeString(field.Value),
			)
		}
		b.WriteString("</table>\n")
	}

	writeOutro(&b, audience)
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

func writeIntro(b *strings.Builder, rec *domain.BookingRecord, audience Audience) {
	if audience == AudienceClient {
		greeting := "Hi there,"
		if name := rec.Fields.ContactName(); name != "" {
			greeting = fmt.Sprintf("Hi %s,", html.EscapeString(name))
		}
		fmt.Fprintf(b, "<p>%s</p>\n", greeting)
		b.WriteString("<p>Thanks for your booking request. We received the details below and will be in touch shortly.</p>\n")
		return
	}
	b.WriteString("<p>A new booking request has been submitted. Details are below.</p>\n")
}

func writeOutro(b *strings.Builder, audience Audience) {
	if audience == AudienceClient {
		b.WriteString("<p>Best regards,<br>The Stagebook Team</p>\n")
	}
}
