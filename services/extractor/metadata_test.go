package extractor

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSubject_PlainASCIIPassesThrough(t *testing.T) {
	assert.Equal(t, "Invoice 03/2024", DecodeSubject("Invoice 03/2024"))
	assert.Equal(t, "", DecodeSubject(""))
}

func TestDecodeSubject_UnderscoresBecomeSpaces(t *testing.T) {
	assert.Equal(t, "Invoice 03 2024", DecodeSubject("Invoice_03_2024"))
}

func TestDecodeSubject_StripsEncodedWordMarkers(t *testing.T) {
	assert.Equal(t, "Faktura 01", DecodeSubject("=?UTF-8?Q?Faktura=5F01?= "))
	// the "?= " strip swallows the following space, a documented quirk of the
	// lossy decoder
	assert.Equal(t, "Monthly balancereport", DecodeSubject("=?UTF-8?Q?Monthly_balance?= report"))
}

func TestDecodeSubject_DecodesQuotedPrintableEscapes(t *testing.T) {
	// =C5=82 is the UTF-8 encoding of "ł"
	assert.Equal(t, "złoty", DecodeSubject("z=C5=82oty"))
	// malformed escapes are copied through verbatim
	assert.Equal(t, "50=x off", DecodeSubject("50=x off"))
}

func TestParseDate_RFC2822(t *testing.T) {
	date, guessed := ParseDate("Tue, 05 Mar 2024 10:30:00 +0100")
	assert.False(t, guessed)
	assert.Equal(t, time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC), date)
}

func TestParseDate_FallbackLayout(t *testing.T) {
	date, guessed := ParseDate("Tue Mar 05 10:30:00 UTC 2024")
	assert.False(t, guessed)
	assert.Equal(t, 2024, date.Year())
	assert.Equal(t, time.March, date.Month())
	assert.Equal(t, 5, date.Day())
	assert.Equal(t, 10, date.Hour())
}

func TestParseDate_FallsBackToNow(t *testing.T) {
	for _, raw := range []string{"", "not a date", "32 Foo 2024"} {
		before := time.Now().UTC()
		date, guessed := ParseDate(raw)
		after := time.Now().UTC()

		assert.True(t, guessed, "input %q", raw)
		assert.False(t, date.Before(before.Add(-time.Second)), "input %q", raw)
		assert.False(t, date.After(after.Add(time.Second)), "input %q", raw)
	}
}

func TestSendersFromEnvelope(t *testing.T) {
	envelope := &imap.Envelope{
		From: []*imap.Address{
			{MailboxName: "billing", HostName: "vendor.com"},
			{MailboxName: "", HostName: "vendor.com"},
			{MailboxName: "orphan", HostName: ""},
		},
	}
	assert.Equal(t, []string{"billing@vendor.com", "@vendor.com", "orphan@"}, SendersFromEnvelope(envelope))
}

func TestEmailRecordFromMessage(t *testing.T) {
	msg := &imap.Message{
		Uid: 42,
		Envelope: &imap.Envelope{
			Subject: "Faktura_01",
			Date:    time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC),
			From:    []*imap.Address{{MailboxName: "billing", HostName: "vendor.com"}},
		},
	}

	record, err := EmailRecordFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), record.UID)
	assert.Equal(t, "Faktura 01", record.Subject)
	assert.Equal(t, []string{"billing@vendor.com"}, record.Senders)
	assert.True(t, record.Date.Equal(msg.Envelope.Date))
	assert.False(t, record.DateGuessed)
}

func TestEmailRecordFromMessage_MissingUID(t *testing.T) {
	_, err := EmailRecordFromMessage(&imap.Message{Envelope: &imap.Envelope{}})
	assert.ErrorIs(t, err, ErrMissingUID)

	_, err = EmailRecordFromMessage(nil)
	assert.ErrorIs(t, err, ErrMissingUID)
}

func TestEmailRecordFromMessage_MissingEnvelope(t *testing.T) {
	_, err := EmailRecordFromMessage(&imap.Message{Uid: 42})
	assert.True(t, errors.Is(err, ErrMissingEnvelope))
}

func TestEmailRecordFromMessage_UnparseableDateFallsBackToNow(t *testing.T) {
	msg := &imap.Message{
		Uid:      42,
		Envelope: &imap.Envelope{Subject: "Invoice"},
	}

	before := time.Now().UTC()
	record, err := EmailRecordFromMessage(msg)
	require.NoError(t, err)

	assert.True(t, record.DateGuessed)
	assert.False(t, record.Date.Before(before.Add(-time.Second)))
}

func TestEmailRecordFromMessage_RetriesRawDateHeader(t *testing.T) {
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    []string{"Date"},
		},
		Peek: true,
	}
	msg := &imap.Message{
		Uid:      42,
		Envelope: &imap.Envelope{Subject: "Invoice"},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString("Date: Tue Mar 05 10:30:00 UTC 2024\r\n\r\n"),
		},
	}

	record, err := EmailRecordFromMessage(msg)
	require.NoError(t, err)
	assert.False(t, record.DateGuessed)
	assert.Equal(t, 2024, record.Date.Year())
	assert.Equal(t, time.March, record.Date.Month())
	assert.Equal(t, 5, record.Date.Day())
}
