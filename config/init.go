package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/pwalczyk/mailvault/internal/logger"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	DatabaseConfig *DatabaseConfig
	SyncConfig     *SyncConfig
	StorageConfig  *StorageConfig
	SMTPConfig     *SMTPConfig
	Mailboxes      []MailboxAccount
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		DatabaseConfig: &DatabaseConfig{},
		SyncConfig:     &SyncConfig{},
		StorageConfig:  &StorageConfig{},
		SMTPConfig:     &SMTPConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, fmt.Errorf("error loading mailvault config: %w", err)
	}
	config.AppConfig.Logger = config.Logger

	config.Mailboxes, err = loadMailboxAccounts(config.SyncConfig)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// loadMailboxAccounts builds one account per SYNC_MAILBOXES entry from
// IMAP_*_<NAME> variables. IMAP_SERVER and IMAP_PORT act as shared defaults
// so several accounts on the same provider need only credentials.
func loadMailboxAccounts(syncConfig *SyncConfig) ([]MailboxAccount, error) {
	accounts := make([]MailboxAccount, 0, len(syncConfig.Names()))
	for _, name := range syncConfig.Names() {
		key := strings.ToUpper(name)

		server := envOr("IMAP_SERVER_"+key, os.Getenv("IMAP_SERVER"))
		if server == "" {
			return nil, fmt.Errorf("IMAP_SERVER_%s (or IMAP_SERVER) must be set", key)
		}

		portStr := envOr("IMAP_PORT_"+key, envOr("IMAP_PORT", "993"))
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid IMAP port for mailbox %s: %w", name, err)
		}

		username := os.Getenv("IMAP_USERNAME_" + key)
		if username == "" {
			return nil, fmt.Errorf("IMAP_USERNAME_%s must be set", key)
		}
		password := os.Getenv("IMAP_PASSWORD_" + key)
		if password == "" {
			return nil, fmt.Errorf("IMAP_PASSWORD_%s must be set", key)
		}

		var startUID uint32 = 1
		if raw := os.Getenv("IMAP_START_UID_" + key); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid IMAP_START_UID_%s: %w", key, err)
			}
			startUID = uint32(parsed)
		}

		accounts = append(accounts, MailboxAccount{
			Name:     name,
			Server:   server,
			Port:     port,
			Username: username,
			Password: password,
			StartUID: startUID,
		})
	}
	return accounts, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
