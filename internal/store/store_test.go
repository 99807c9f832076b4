package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigee-127/a127/internal/config"
	"github.com/apigee-127/a127/internal/feedback"
)

func newTestStore(t *testing.T) (*Store, *feedback.Buffer) {
	t.Helper()
	dir := t.TempDir()
	fb := &feedback.Buffer{}
	cfg := &config.Config{
		Account:  config.Account{File: filepath.Join(dir, "accounts")},
		Services: config.Services{File: filepath.Join(dir, "services")},
	}
	return New(cfg, fb), fb
}

func TestReadAccountsMissingFile(t *testing.T) {
	s, fb := newTestStore(t)

	accounts := s.ReadAccounts()
	require.NotNil(t, accounts)
	assert.Empty(t, accounts.Accounts)
	assert.Empty(t, accounts.Selected)
	assert.Empty(t, fb.Lines(), "a first run should not warn")
}

func TestReadAccountsCorruptFile(t *testing.T) {
	s, fb := newTestStore(t)
	require.NoError(t, os.WriteFile(s.accountFile, []byte("{not json"), 0o600))

	accounts := s.ReadAccounts()
	require.NotNil(t, accounts)
	assert.Empty(t, accounts.Accounts)
	assert.True(t, fb.Contains("corrupt"))
}

func TestAccountsRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	accounts := s.ReadAccounts()
	accounts.Accounts["prod"] = Fields{ProviderKey: "apigee", "organization": "acme"}
	accounts.Selected = "prod"
	require.NoError(t, s.WriteAccounts(accounts))

	got := s.ReadAccounts()
	assert.Equal(t, "prod", got.Selected)
	assert.Equal(t, "apigee", got.Accounts["prod"].Provider())
	assert.Equal(t, "acme", got.Accounts["prod"]["organization"])
}

func TestAccountFileMode(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.WriteAccounts(&AccountStore{Accounts: map[string]Fields{}}))

	info, err := os.Stat(s.accountFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestServicesRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	services := s.ReadServices()
	assert.Empty(t, services)

	services["cache"] = Service{
		Metadata: ServiceMetadata{Account: "prod", Type: "RemoteProxy"},
		Data:     map[string]any{"apigeeProxyKey": "abc123"},
	}
	require.NoError(t, s.WriteServices(services))

	got := s.ReadServices()
	require.Contains(t, got, "cache")
	assert.Equal(t, "prod", got["cache"].Metadata.Account)
	assert.Equal(t, "RemoteProxy", got["cache"].Metadata.Type)
	assert.Equal(t, "abc123", got["cache"].Data["apigeeProxyKey"])
}

func TestReadServicesCorruptFile(t *testing.T) {
	s, fb := newTestStore(t)
	require.NoError(t, os.WriteFile(s.servicesFile, []byte("[]"), 0o600))

	assert.Empty(t, s.ReadServices())
	assert.True(t, fb.Contains("corrupt"))
}

func TestFieldsClone(t *testing.T) {
	f := Fields{"a": "1"}
	c := f.Clone()
	c["a"] = "2"
	assert.Equal(t, "1", f["a"])
}
