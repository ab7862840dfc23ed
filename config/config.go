package config

import (
	"strings"

	"github.com/pwalczyk/mailvault/internal/logger"
)

type AppConfig struct {
	// six-field cron spec, default: every day at 08:00
	CronScheduleSync string `env:"CRON_SCHEDULE_SYNC" envDefault:"0 0 8 * * *"`
	Logger           *logger.Config
}

type DatabaseConfig struct {
	Host            string `env:"MAILVAULT_POSTGRES_HOST,required"`
	Port            string `env:"MAILVAULT_POSTGRES_PORT,required"`
	User            string `env:"MAILVAULT_POSTGRES_USER,required"`
	DBName          string `env:"MAILVAULT_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILVAULT_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILVAULT_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILVAULT_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILVAULT_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILVAULT_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILVAULT_POSTGRES_SSL_MODE" envDefault:"disable"`
}

type SyncConfig struct {
	// comma-separated mailbox display names; each name also keys the
	// per-mailbox IMAP_*_<NAME> credential variables
	MailboxNames    string `env:"SYNC_MAILBOXES,required"`
	ObservedSenders string `env:"OBSERVED_SENDERS"`
}

// AllowedSenders splits OBSERVED_SENDERS into normalized sender addresses.
// Entries may be quoted in the env file; quotes and whitespace are stripped.
func (c *SyncConfig) AllowedSenders() []string {
	if strings.TrimSpace(c.ObservedSenders) == "" {
		return nil
	}
	parts := strings.Split(c.ObservedSenders, ",")
	senders := make([]string, 0, len(parts))
	for _, part := range parts {
		sender := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"`))
		if sender != "" {
			senders = append(senders, sender)
		}
	}
	return senders
}

func (c *SyncConfig) Names() []string {
	parts := strings.Split(c.MailboxNames, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

type StorageConfig struct {
	InvoiceRoot    string `env:"ROOT_SAVE_LOCATION_PATH,required"`
	BalanceRoot    string `env:"ROOT_MONTHLY_SUMMARY_BALANCE"`
	BalanceSubject string `env:"MONTHLY_BALANCE_SUBJECT"`
}

type SMTPConfig struct {
	Server   string `env:"SMTP_TARGET_SERVER"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"FROM_EMAIL"`
	To       string `env:"TARGET_EMAIL"`
	Subject  string `env:"SEND_SUBJECT" envDefault:"Invoices"`
	Body     string `env:"SEND_BODY" envDefault:"Please find attached the invoices for the last month."`
}

// MailboxAccount identifies one source mailbox. Built from environment
// variables once at startup; immutable for the run's lifetime.
type MailboxAccount struct {
	Name     string
	Server   string
	Port     int
	Username string
	Password string
	// StartUID is the fetch floor used before any watermark exists (default 1)
	StartUID uint32
}
