package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncConfig_AllowedSenders(t *testing.T) {
	cfg := &SyncConfig{ObservedSenders: `"billing@vendor.com", accounting@other.com ,`}
	assert.Equal(t, []string{"billing@vendor.com", "accounting@other.com"}, cfg.AllowedSenders())

	assert.Nil(t, (&SyncConfig{}).AllowedSenders())
	assert.Nil(t, (&SyncConfig{ObservedSenders: "  "}).AllowedSenders())
}

func TestSyncConfig_Names(t *testing.T) {
	cfg := &SyncConfig{MailboxNames: "company, personal ,,"}
	assert.Equal(t, []string{"company", "personal"}, cfg.Names())
}

func TestLoadMailboxAccounts(t *testing.T) {
	t.Setenv("IMAP_SERVER", "imap.example.com")
	t.Setenv("IMAP_USERNAME_COMPANY", "me@company.com")
	t.Setenv("IMAP_PASSWORD_COMPANY", "secret")
	t.Setenv("IMAP_SERVER_PERSONAL", "imap.other.com")
	t.Setenv("IMAP_PORT_PERSONAL", "1993")
	t.Setenv("IMAP_USERNAME_PERSONAL", "me@other.com")
	t.Setenv("IMAP_PASSWORD_PERSONAL", "hunter2")
	t.Setenv("IMAP_START_UID_PERSONAL", "500")

	accounts, err := loadMailboxAccounts(&SyncConfig{MailboxNames: "company,personal"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, MailboxAccount{
		Name:     "company",
		Server:   "imap.example.com",
		Port:     993,
		Username: "me@company.com",
		Password: "secret",
		StartUID: 1,
	}, accounts[0])

	assert.Equal(t, MailboxAccount{
		Name:     "personal",
		Server:   "imap.other.com",
		Port:     1993,
		Username: "me@other.com",
		Password: "hunter2",
		StartUID: 500,
	}, accounts[1])
}

func TestLoadMailboxAccounts_MissingCredentials(t *testing.T) {
	t.Setenv("IMAP_SERVER", "imap.example.com")

	_, err := loadMailboxAccounts(&SyncConfig{MailboxNames: "company"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAP_USERNAME_COMPANY")
}

func TestLoadMailboxAccounts_MissingServer(t *testing.T) {
	t.Setenv("IMAP_USERNAME_COMPANY", "me@company.com")
	t.Setenv("IMAP_PASSWORD_COMPANY", "secret")

	_, err := loadMailboxAccounts(&SyncConfig{MailboxNames: "company"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAP_SERVER_COMPANY")
}
