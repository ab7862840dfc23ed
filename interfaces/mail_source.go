package interfaces

import (
	"context"

	"github.com/emersion/go-imap"
)

// MailSource abstracts one authenticated connection to a remote mailbox.
// FetchSince returns envelope-level data for every message with UID >= lowUID
// in the inbox; FetchBody returns the raw RFC822 bytes of a single message.
type MailSource interface {
	FetchSince(ctx context.Context, lowUID uint32) ([]*imap.Message, error)
	FetchBody(ctx context.Context, uid uint32) ([]byte, error)
	Logout() error
}
