package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pwalczyk/mailvault/config"
	"github.com/pwalczyk/mailvault/internal/datemath"
)

// DestinationResolver maps a message subject to the directory its PDF
// attachments are written into.
type DestinationResolver func(subject string) string

// Locations routes attachments between the regular invoice tree and the
// monthly balance summary tree. Balance reports arrive early in the month and
// describe the previous one, hence the previous-month folder.
type Locations struct {
	invoiceRoot    string
	balanceRoot    string
	balanceSubject string
	now            func() time.Time
}

func NewLocations(cfg *config.StorageConfig) *Locations {
	return &Locations{
		invoiceRoot:    cfg.InvoiceRoot,
		balanceRoot:    cfg.BalanceRoot,
		balanceSubject: cfg.BalanceSubject,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Resolve implements DestinationResolver.
func (l *Locations) Resolve(subject string) string {
	if l.balanceSubject != "" && l.balanceRoot != "" && strings.Contains(subject, l.balanceSubject) {
		return l.BalanceDir()
	}
	return l.InvoiceDir()
}

// InvoiceDir returns <invoiceRoot>/<YYYY>/<YYYY_MM> for the current month.
func (l *Locations) InvoiceDir() string {
	now := l.now()
	year := fmt.Sprintf("%d", now.Year())
	return filepath.Join(l.invoiceRoot, year, datemath.MonthKey(now))
}

// BalanceDir returns <balanceRoot>/<YYYY>/<MM> for the previous month.
func (l *Locations) BalanceDir() string {
	month, year := datemath.PreviousMonthParts(l.now())
	return filepath.Join(l.balanceRoot, year, month)
}

// MonthDir returns the invoice directory for an explicit YYYY_MM key.
func (l *Locations) MonthDir(monthKey string) string {
	year := strings.SplitN(monthKey, "_", 2)[0]
	return filepath.Join(l.invoiceRoot, year, monthKey)
}
