// Package extractor turns fetched IMAP messages into typed metadata records
// and persists their PDF attachments.
package extractor

import (
	"bufio"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"

	"github.com/pwalczyk/mailvault/internal/models"
)

var (
	// ErrMissingUID marks a message without a transport-level identifier.
	// UIDs drive the watermark, so this is not skippable.
	ErrMissingUID = errors.New("message has no uid")

	// ErrMissingEnvelope marks a message the server returned without envelope
	// data; the message is skipped, the batch continues.
	ErrMissingEnvelope = errors.New("message has no envelope")
)

// dateFallbackLayout is the secondary format tried when RFC 2822 parsing
// fails, e.g. "Wed Mar 05 10:30:00 CET 2024".
const dateFallbackLayout = "Mon Jan 02 15:04:05 MST 2006"

// EmailRecordFromMessage extracts the typed metadata record from a fetched
// message. The returned record is complete and immutable.
func EmailRecordFromMessage(msg *imap.Message) (models.EmailRecord, error) {
	if msg == nil || msg.Uid == 0 {
		return models.EmailRecord{}, ErrMissingUID
	}
	if msg.Envelope == nil {
		return models.EmailRecord{}, errors.Wrapf(ErrMissingEnvelope, "uid %d", msg.Uid)
	}

	date := msg.Envelope.Date
	guessed := false
	if date.IsZero() {
		// go-imap leaves the envelope date zero when the server's date string
		// defeats its parser; retry on the raw header before giving up
		date, guessed = ParseDate(rawDateHeader(msg))
	}

	return models.EmailRecord{
		UID:         msg.Uid,
		Subject:     DecodeSubject(msg.Envelope.Subject),
		Senders:     SendersFromEnvelope(msg.Envelope),
		Date:        date.UTC(),
		DateGuessed: guessed,
	}, nil
}

// ParseDate parses a Date header value. RFC 2822 first, then a fixed
// full-timezone-name layout; when both fail it returns the current UTC time
// with guessed=true so the pipeline never blocks on unparseable input.
func ParseDate(raw string) (time.Time, bool) {
	if raw != "" {
		if date, err := mail.ParseDate(raw); err == nil {
			return date.UTC(), false
		}
		if date, err := time.Parse(dateFallbackLayout, raw); err == nil {
			return date.UTC(), false
		}
	}
	return time.Now().UTC(), true
}

// DecodeSubject strips MIME encoded-word boilerplate from a subject line.
// This is a deliberately lossy approximation, not a general RFC 2047 decoder:
// quoted-printable escapes are decoded leniently, the "=?UTF-8?Q?" / "?= "
// markers are dropped and underscores become spaces (Q-encoding encodes
// spaces as underscores).
func DecodeSubject(raw string) string {
	subject := decodeQuotedPrintableLenient(raw)
	subject = strings.ReplaceAll(subject, "=?UTF-8?Q?", "")
	subject = strings.ReplaceAll(subject, "?= ", "")
	subject = strings.ReplaceAll(subject, "_", " ")
	return subject
}

// decodeQuotedPrintableLenient decodes =XX escapes and soft line breaks,
// copying anything malformed through verbatim instead of failing.
func decodeQuotedPrintableLenient(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '=' {
			b.WriteByte(c)
			continue
		}
		if i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n' {
			i += 2 // soft line break
			continue
		}
		if i+1 < len(s) && s[i+1] == '\n' {
			i++
			continue
		}
		if i+2 < len(s) {
			hi, okHi := fromHex(s[i+1])
			lo, okLo := fromHex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// SendersFromEnvelope normalizes every From address to local@host. Malformed
// addresses degrade to empty segments; a message is never rejected here.
func SendersFromEnvelope(envelope *imap.Envelope) []string {
	senders := make([]string, 0, len(envelope.From))
	for _, address := range envelope.From {
		senders = append(senders, address.MailboxName+"@"+address.HostName)
	}
	return senders
}

// rawDateHeader digs the raw Date header value out of a fetched header
// section, when the fetch requested one.
func rawDateHeader(msg *imap.Message) string {
	for section, literal := range msg.Body {
		if section == nil || literal == nil || section.Specifier != imap.HeaderSpecifier {
			continue
		}
		header, err := textproto.NewReader(bufio.NewReader(literal)).ReadMIMEHeader()
		if err != nil && len(header) == 0 {
			continue
		}
		if date := header.Get("Date"); date != "" {
			return date
		}
	}
	return ""
}
