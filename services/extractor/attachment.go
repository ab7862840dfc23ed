package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/logger"
	"github.com/pwalczyk/mailvault/internal/models"
)

const (
	pdfContentType   = "application/pdf"
	mixedContentType = "multipart/mixed"
)

// SaveAttachments re-fetches each record's full body and writes every PDF
// part to the directory the resolver picks for its subject. Bodies are
// fetched lazily per message to bound memory.
//
// The MIME walk is capped at two levels: the immediate children of the root,
// plus the children of any multipart/mixed child. Deeper nesting is out of
// scope by design.
//
// A message whose MIME content does not parse is skipped with a warning;
// fetch and file-system failures abort the run.
func SaveAttachments(ctx context.Context, records []models.EmailRecord, source interfaces.MailSource, resolve DestinationResolver, log logger.Logger) error {
	for _, record := range records {
		body, err := source.FetchBody(ctx, record.UID)
		if err != nil {
			return errors.Wrapf(err, "failed to fetch body for uid %d", record.UID)
		}

		envelope, err := enmime.ReadEnvelope(bytes.NewReader(body))
		if err != nil {
			log.Warnf("Skipping uid %d: unparseable MIME content: %v", record.UID, err)
			continue
		}
		if envelope.Root == nil {
			continue
		}

		for part := envelope.Root.FirstChild; part != nil; part = part.NextSibling {
			switch part.ContentType {
			case pdfContentType:
				if err := savePDFPart(record, part, resolve); err != nil {
					return err
				}
			case mixedContentType:
				for sub := part.FirstChild; sub != nil; sub = sub.NextSibling {
					if sub.ContentType == pdfContentType {
						if err := savePDFPart(record, sub, resolve); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

func savePDFPart(record models.EmailRecord, part *enmime.Part, resolve DestinationResolver) error {
	filename := part.FileName
	if filename == "" {
		filename = fmt.Sprintf("attachment_%d_unnamed.pdf", record.UID)
	}

	destination := resolve(record.Subject)
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create save location %s", destination)
	}

	path := filepath.Join(destination, filename)
	if err := os.WriteFile(path, part.Content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write attachment %s", path)
	}
	return nil
}
