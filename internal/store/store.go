// Package store persists the accounts and services documents as single
// JSON files under the a127 home directory. Reads are first-run tolerant:
// a missing file yields an empty document, and a corrupt file yields an
// empty document plus a warning. Writes replace the whole file; there is
// no cross-process locking, concurrent CLI invocations race and the last
// writer wins.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apigee-127/a127/internal/config"
	"github.com/apigee-127/a127/internal/feedback"
)

// Fields holds the flat field set of one account: the provider-declared
// fields plus any user-added custom fields. The "provider" key is set at
// creation and immutable afterward.
type Fields map[string]string

// ProviderKey is the reserved account field naming the owning provider.
const ProviderKey = "provider"

func (f Fields) Provider() string { return f[ProviderKey] }

// Clone returns an independent copy of the field set.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// AccountStore is the root accounts document.
type AccountStore struct {
	Selected string            `json:"selected,omitempty"`
	Accounts map[string]Fields `json:"accounts"`
}

// Service is a named binding of a provider-managed resource to an account.
type Service struct {
	Metadata ServiceMetadata `json:"metadata"`
	Data     map[string]any  `json:"data"`
}

type ServiceMetadata struct {
	Account string `json:"account"`
	Type    string `json:"type"`
}

// Store reads and writes the two documents.
type Store struct {
	accountFile  string
	servicesFile string
	fb           feedback.Emitter
}

func New(cfg *config.Config, fb feedback.Emitter) *Store {
	return &Store{
		accountFile:  cfg.Account.File,
		servicesFile: cfg.Services.File,
		fb:           fb,
	}
}

// ReadAccounts never fails: absent and unreadable files both produce an
// empty store, with a warning when the file exists but cannot be parsed.
func (s *Store) ReadAccounts() *AccountStore {
	out := &AccountStore{Accounts: map[string]Fields{}}
	data, err := os.ReadFile(s.accountFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.fb.Warnf("could not read %s: %v", s.accountFile, err)
		}
		return out
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.fb.Warnf("account file %s is corrupt, treating as empty: %v", s.accountFile, err)
		return &AccountStore{Accounts: map[string]Fields{}}
	}
	if out.Accounts == nil {
		out.Accounts = map[string]Fields{}
	}
	return out
}

func (s *Store) WriteAccounts(accounts *AccountStore) error {
	return s.write(s.accountFile, accounts)
}

// ReadServices has the same tolerance contract as ReadAccounts.
func (s *Store) ReadServices() map[string]Service {
	out := map[string]Service{}
	data, err := os.ReadFile(s.servicesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.fb.Warnf("could not read %s: %v", s.servicesFile, err)
		}
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		s.fb.Warnf("services file %s is corrupt, treating as empty: %v", s.servicesFile, err)
		return map[string]Service{}
	}
	return out
}

func (s *Store) WriteServices(services map[string]Service) error {
	return s.write(s.servicesFile, services)
}

func (s *Store) write(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
