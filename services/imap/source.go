package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"

	"github.com/pwalczyk/mailvault/config"
	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/logger"
)

const (
	inboxFolder    = "INBOX"
	connectTimeout = 30 * time.Second
)

// Source is a single authenticated IMAP connection scoped to one account.
// It implements interfaces.MailSource. Not safe for concurrent use; the
// sync loop processes mailboxes one at a time.
type Source struct {
	account config.MailboxAccount
	client  *client.Client
	log     logger.Logger
}

// Connect dials the account's server over TLS, logs in and selects the
// inbox read-only. The caller owns the connection and must Logout.
func Connect(account config.MailboxAccount, log logger.Logger) (*Source, error) {
	serverAddr := fmt.Sprintf("%s:%d", account.Server, account.Port)

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: connectTimeout,
	}
	tlsConfig := &tls.Config{
		ServerName: account.Server,
	}

	c, err := client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}

	c.Timeout = connectTimeout
	if err := c.Login(account.Username, account.Password); err != nil {
		c.Logout()
		return nil, errors.Wrapf(err, "failed to login as %s", account.Username)
	}
	c.Timeout = 0

	if _, err := c.Select(inboxFolder, true); err != nil {
		c.Logout()
		return nil, errors.Wrapf(err, "failed to select %s", inboxFolder)
	}

	log.Debugf("[%s] Connected to %s", account.Name, serverAddr)

	return &Source{account: account, client: c, log: log}, nil
}

// FetchSince fetches envelope data for every inbox message with UID >= lowUID.
// Servers clamp the open-ended range lowUID:* to the highest existing UID, so
// when nothing new arrived the response contains the last already-seen message;
// those are filtered out here rather than pushed onto the caller.
func (s *Source) FetchSince(ctx context.Context, lowUID uint32) ([]*imap.Message, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(lowUID, 0)

	items := []imap.FetchItem{
		imap.FetchUid,
		imap.FetchEnvelope,
		dateHeaderSection().FetchItem(),
	}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	result, err := collectAbove(ctx, messages, lowUID)
	if err != nil {
		return nil, err
	}

	if err := <-done; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch messages since uid %d", lowUID)
	}
	return result, nil
}

// collectAbove drains the fetch channel, dropping messages below lowUID.
// Cancellation interrupts the receive loop; a drain goroutine is left behind
// so the fetch goroutine never blocks on an abandoned channel.
func collectAbove(ctx context.Context, messages <-chan *imap.Message, lowUID uint32) ([]*imap.Message, error) {
	var result []*imap.Message
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return result, nil
			}
			if msg.Uid < lowUID {
				continue
			}
			result = append(result, msg)
		case <-ctx.Done():
			go func() {
				for range messages {
				}
			}()
			return nil, ctx.Err()
		}
	}
}

// FetchBody fetches the raw RFC822 content of a single message by UID.
func (s *Source) FetchBody(ctx context.Context, uid uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var body []byte
	for {
		var msg *imap.Message
		var ok bool
		select {
		case msg, ok = <-messages:
		case <-ctx.Done():
			go func() {
				for range messages {
				}
			}()
			return nil, ctx.Err()
		}
		if !ok {
			break
		}

		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		data, err := io.ReadAll(literal)
		if err != nil {
			go func() {
				for range messages {
				}
			}()
			return nil, errors.Wrapf(err, "failed to read body of uid %d", uid)
		}
		body = data
	}

	if err := <-done; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch body of uid %d", uid)
	}

	if body == nil {
		return nil, errors.Errorf("message with uid %d has no body", uid)
	}
	return body, nil
}

// Logout closes the connection, waiting at most a few seconds for the
// server's goodbye.
func (s *Source) Logout() error {
	s.client.Timeout = 5 * time.Second
	return s.client.Logout()
}

// dateHeaderSection is the BODY.PEEK[HEADER.FIELDS (Date)] fetch section.
// The raw Date header backs the fallback parser when a server hands out an
// envelope with a zero date.
func dateHeaderSection() *imap.BodySectionName {
	return &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    []string{"Date"},
		},
		Peek: true,
	}
}

var _ interfaces.MailSource = (*Source)(nil)
