package sync

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/pwalczyk/mailvault/config"
	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/datemath"
	"github.com/pwalczyk/mailvault/internal/logger"
	"github.com/pwalczyk/mailvault/internal/models"
	"github.com/pwalczyk/mailvault/internal/repository"
	"github.com/pwalczyk/mailvault/internal/utils"
	"github.com/pwalczyk/mailvault/services/extractor"
	"github.com/pwalczyk/mailvault/services/filter"
)

// SourceFactory opens an authenticated connection for one account. Injected so
// tests can substitute a fake source.
type SourceFactory func(account config.MailboxAccount) (interfaces.MailSource, error)

// RulesProvider yields the filter rules for one sync run. Evaluated fresh on
// every run so a long-lived watch process tracks the calendar: a timeframe
// captured once at startup would keep a post-month-boundary run filtering
// against the old month.
type RulesProvider func() filter.Rules

// Service runs the incremental sync pipeline: fetch new messages above the
// stored watermark, filter them, save their PDF attachments and commit the
// month snapshots plus the advanced watermark.
type Service struct {
	log        logger.Logger
	repos      *repository.Repositories
	openSource SourceFactory
	rules      RulesProvider
	resolve    extractor.DestinationResolver
}

func NewService(log logger.Logger, repos *repository.Repositories, openSource SourceFactory, rules RulesProvider, resolve extractor.DestinationResolver) *Service {
	return &Service{
		log:        log,
		repos:      repos,
		openSource: openSource,
		rules:      rules,
		resolve:    resolve,
	}
}

// SyncAll processes the accounts sequentially. A failed mailbox is logged and
// skipped; the remaining mailboxes still run. The returned error names every
// failed mailbox so the caller can exit non-zero.
func (s *Service) SyncAll(ctx context.Context, accounts []config.MailboxAccount) error {
	var failed []string
	for _, account := range accounts {
		if err := s.SyncMailbox(ctx, account); err != nil {
			s.log.Errorf("Sync failed for mailbox %s: %v", account.Name, err)
			failed = append(failed, account.Name)
			continue
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("sync failed for mailboxes: %s", strings.Join(failed, ", "))
	}
	return nil
}

// SyncMailbox syncs a single account. No store writes happen until the whole
// pipeline for the mailbox succeeds; the watermark is committed last so a
// partial failure re-fetches instead of losing messages.
func (s *Service) SyncMailbox(ctx context.Context, account config.MailboxAccount) error {
	rules := s.rules()

	low, err := s.fetchFloor(ctx, account)
	if err != nil {
		return err
	}

	source, err := s.openSource(account)
	if err != nil {
		return errors.Wrapf(err, "failed to connect mailbox %s", account.Name)
	}
	defer func() {
		if err := source.Logout(); err != nil {
			s.log.Warnf("[%s] Logout failed: %v", account.Name, err)
		}
	}()

	s.log.Infof("[%s] Fetching messages with uid >= %d", account.Name, low)
	messages, err := source.FetchSince(ctx, low)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch mailbox %s", account.Name)
	}
	if len(messages) == 0 {
		s.log.Infof("[%s] No new messages", account.Name)
		return nil
	}

	var latestUID uint32
	records := make([]models.EmailRecord, 0, len(messages))
	for _, msg := range messages {
		if msg != nil && msg.Uid > latestUID {
			latestUID = msg.Uid
		}
		record, err := extractor.EmailRecordFromMessage(msg)
		if err != nil {
			if errors.Is(err, extractor.ErrMissingEnvelope) {
				s.log.Warnf("[%s] Skipping message: %v", account.Name, err)
				continue
			}
			return errors.Wrapf(err, "failed to extract message in mailbox %s", account.Name)
		}
		if rules.Matches(record) {
			records = append(records, record)
		}
	}
	s.log.Infof("[%s] Fetched %d messages, %d in scope", account.Name, len(messages), len(records))

	if err := extractor.SaveAttachments(ctx, records, source, s.resolve, s.log); err != nil {
		return errors.Wrapf(err, "failed to save attachments for mailbox %s", account.Name)
	}

	if err := s.commitSnapshots(ctx, account.Name, records); err != nil {
		return err
	}

	if err := s.repos.Watermarks.UpsertWatermark(ctx, account.Name, latestUID, utils.Now()); err != nil {
		return errors.Wrapf(err, "failed to store watermark for mailbox %s", account.Name)
	}
	s.log.Infof("[%s] Watermark advanced to %d", account.Name, latestUID)
	return nil
}

// fetchFloor returns the lowest UID the next fetch should include: one past
// the stored watermark, or the account's configured start when the mailbox has
// never been synced.
func (s *Service) fetchFloor(ctx context.Context, account config.MailboxAccount) (uint32, error) {
	watermark, err := s.repos.Watermarks.GetWatermark(ctx, account.Name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to load watermark for mailbox %s", account.Name)
	}

	low := account.StartUID
	if low == 0 {
		low = 1
	}
	if watermark != nil && watermark.LatestUID+1 > low {
		low = watermark.LatestUID + 1
	}
	return low, nil
}

// commitSnapshots groups the records by calendar month and merges each group
// into the stored (mailbox, month) snapshot. Existing records win on UID
// collision, so re-syncing a month never rewrites history.
func (s *Service) commitSnapshots(ctx context.Context, mailbox string, records []models.EmailRecord) error {
	byMonth := make(map[string]models.EmailRecordList)
	for _, record := range records {
		month := datemath.MonthKey(record.Date)
		byMonth[month] = append(byMonth[month], record)
	}

	for month, items := range byMonth {
		existing, err := s.repos.Snapshots.GetSnapshot(ctx, mailbox, month)
		if err != nil {
			return errors.Wrapf(err, "failed to load snapshot %s/%s", mailbox, month)
		}

		base := models.EmailRecordList{}
		if existing != nil {
			base = existing.Items
		}
		merged := base.MergeByUID(items)
		if err := s.repos.Snapshots.UpsertSnapshot(ctx, mailbox, month, merged, utils.Now()); err != nil {
			return errors.Wrapf(err, "failed to store snapshot %s/%s", mailbox, month)
		}
		s.log.Infof("[%s] Snapshot %s now holds %d records", mailbox, month, len(merged))
	}
	return nil
}
