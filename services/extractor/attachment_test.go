package extractor

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwalczyk/mailvault/internal/logger"
	"github.com/pwalczyk/mailvault/internal/models"
)

type fakeBodySource struct {
	bodies map[uint32][]byte
	err    error
}

func (f *fakeBodySource) FetchSince(ctx context.Context, lowUID uint32) ([]*imap.Message, error) {
	return nil, nil
}

func (f *fakeBodySource) FetchBody(ctx context.Context, uid uint32) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[uid]
	if !ok {
		return nil, errors.Errorf("no body for uid %d", uid)
	}
	return body, nil
}

func (f *fakeBodySource) Logout() error { return nil }

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func pdfMessage(name string) []byte {
	var b strings.Builder
	b.WriteString("From: billing@vendor.com\r\n")
	b.WriteString("To: me@example.com\r\n")
	b.WriteString("Subject: Invoice\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"outer\"\r\n\r\n")
	b.WriteString("--outer\r\n")
	b.WriteString("Content-Type: text/plain\r\n\r\n")
	b.WriteString("see attached\r\n")
	b.WriteString("--outer\r\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("Content-Type: application/pdf; name=%q\r\n", name))
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", name))
	} else {
		b.WriteString("Content-Type: application/pdf\r\n")
		b.WriteString("Content-Disposition: attachment\r\n")
	}
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString(pdfBytes))
	b.WriteString("\r\n--outer--\r\n")
	return []byte(b.String())
}

func nestedMixedMessage(name string) []byte {
	var b strings.Builder
	b.WriteString("From: billing@vendor.com\r\n")
	b.WriteString("Subject: Invoice bundle\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"outer\"\r\n\r\n")
	b.WriteString("--outer\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=\"inner\"\r\n\r\n")
	b.WriteString("--inner\r\n")
	b.WriteString("Content-Type: text/plain\r\n\r\nbundle\r\n")
	b.WriteString("--inner\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: application/pdf; name=%q\r\n", name))
	b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", name))
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString(pdfBytes))
	b.WriteString("\r\n--inner--\r\n")
	b.WriteString("--outer--\r\n")
	return []byte(b.String())
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func staticResolver(dir string) DestinationResolver {
	return func(subject string) string { return dir }
}

func testRecord(uid uint32) models.EmailRecord {
	return models.EmailRecord{
		UID:     uid,
		Subject: "Invoice",
		Senders: []string{"billing@vendor.com"},
		Date:    time.Now().UTC(),
	}
}

func TestSaveAttachments_WritesPDFVerbatim(t *testing.T) {
	dir := t.TempDir()
	source := &fakeBodySource{bodies: map[uint32][]byte{42: pdfMessage("invoice_01.pdf")}}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(42)}, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "invoice_01.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, written)
}

func TestSaveAttachments_SynthesizesFilename(t *testing.T) {
	dir := t.TempDir()
	source := &fakeBodySource{bodies: map[uint32][]byte{42: pdfMessage("")}}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(42)}, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "attachment_42_unnamed.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, written)
}

func TestSaveAttachments_FindsPDFInsideMixedChild(t *testing.T) {
	dir := t.TempDir()
	source := &fakeBodySource{bodies: map[uint32][]byte{7: nestedMixedMessage("bundle.pdf")}}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(7)}, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "bundle.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, written)
}

func TestSaveAttachments_CreatesDestinationDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2024", "2024_03")
	source := &fakeBodySource{bodies: map[uint32][]byte{42: pdfMessage("invoice_01.pdf")}}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(42)}, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "invoice_01.pdf"))
	require.NoError(t, err)
}

func TestSaveAttachments_SkipsUnparseableMessage(t *testing.T) {
	dir := t.TempDir()
	source := &fakeBodySource{bodies: map[uint32][]byte{
		41: {}, // unreadable MIME content
		42: pdfMessage("invoice_01.pdf"),
	}}

	records := []models.EmailRecord{testRecord(41), testRecord(42)}
	err := SaveAttachments(context.Background(), records, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	// the good message was still processed
	_, err = os.Stat(filepath.Join(dir, "invoice_01.pdf"))
	require.NoError(t, err)
}

func TestSaveAttachments_FetchFailureAborts(t *testing.T) {
	source := &fakeBodySource{err: errors.New("connection reset")}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(42)}, source, staticResolver(t.TempDir()), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uid 42")
}

func TestSaveAttachments_IgnoresNonPDFParts(t *testing.T) {
	dir := t.TempDir()
	body := []byte("From: a@b.c\r\nSubject: hi\r\nContent-Type: multipart/mixed; boundary=\"x\"\r\n\r\n" +
		"--x\r\nContent-Type: text/plain\r\n\r\nhello\r\n--x--\r\n")
	source := &fakeBodySource{bodies: map[uint32][]byte{42: body}}

	err := SaveAttachments(context.Background(), []models.EmailRecord{testRecord(42)}, source, staticResolver(dir), testLogger())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
