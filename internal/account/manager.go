// Package account implements the account lifecycle: CRUD and selection
// over the persisted account store, interactive creation through a
// provider, and dispatch of deploy/service operations to the owning
// provider.
package account

import (
	"errors"
	"fmt"
	"sort"

	"github.com/apigee-127/a127/internal/browser"
	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/prompt"
	"github.com/apigee-127/a127/internal/provider"
	"github.com/apigee-127/a127/internal/store"
)

// ErrProviderImmutable is returned for any attempt to change an
// account's provider after creation.
var ErrProviderImmutable = errors.New("Provider is immutable")

// createAccountAttempts bounds the verify/reprompt cycle on
// authentication failures during account creation.
const createAccountAttempts = 3

// selectedMarker suffixes the selected account's name in listings.
const selectedMarker = " +"

// Options carries the cross-cutting command flags into manager
// operations.
type Options struct {
	// Account overrides the selected account by name.
	Account string
	// Provider names the provider for create.
	Provider string
	// Debug enables verbose provider output and retains deployment files.
	Debug bool
}

// Manager orchestrates account operations over the store, the prompt
// collaborator, and the provider registry.
type Manager struct {
	store   *store.Store
	prompt  prompt.Prompter
	browser browser.Opener
	fb      feedback.Emitter
}

func NewManager(st *store.Store, pr prompt.Prompter, br browser.Opener, fb feedback.Emitter) *Manager {
	return &Manager{store: st, prompt: pr, browser: br, fb: fb}
}

// List returns the account names with the selected one marked. Names are
// sorted: the JSON document does not preserve insertion order across a
// Go map round-trip, so a deterministic order is used instead.
func (m *Manager) List() []string {
	accounts := m.store.ReadAccounts()
	names := make([]string, 0, len(accounts.Accounts))
	for name := range accounts.Accounts {
		if name == accounts.Selected {
			name += selectedMarker
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Providers lists the registered provider names.
func (m *Manager) Providers() []string {
	return provider.Names()
}

// Select makes the named account the default. With no name (explicit or
// from options) or an unknown name, the user chooses among the existing
// accounts.
func (m *Manager) Select(name string, opts Options) (provider.Account, error) {
	accounts := m.store.ReadAccounts()
	if name == "" {
		name = opts.Account
	}
	if _, ok := accounts.Accounts[name]; !ok {
		existing := accountNames(accounts)
		if len(existing) == 0 {
			return provider.Account{}, errors.New("no accounts found")
		}
		chosen, err := m.prompt.ChooseOne("Account?", existing)
		if err != nil {
			return provider.Account{}, err
		}
		if _, ok := accounts.Accounts[chosen]; !ok {
			return provider.Account{}, fmt.Errorf("account %q not found", name)
		}
		name = chosen
	}
	accounts.Selected = name
	if err := m.store.WriteAccounts(accounts); err != nil {
		return provider.Account{}, err
	}
	return provider.Account{Name: name, Fields: accounts.Accounts[name]}, nil
}

// Show resolves the effective account: explicit name, then the account
// option, then the selection.
func (m *Manager) Show(name string, opts Options) (provider.Account, error) {
	return m.Selected(name, opts)
}

// Selected is the single resolution point other components use to find
// the current account.
func (m *Manager) Selected(name string, opts Options) (provider.Account, error) {
	accounts := m.store.ReadAccounts()
	resolved := name
	if resolved == "" {
		resolved = opts.Account
	}
	if resolved == "" {
		resolved = accounts.Selected
	}
	fields, ok := accounts.Accounts[resolved]
	if !ok {
		return provider.Account{}, fmt.Errorf("Unknown account: %s", resolved)
	}
	return provider.Account{Name: resolved, Fields: fields}, nil
}

// Create builds a new account for a provider. Pre-supplied answers skip
// their prompts; provider-declared fields missing an answer are prompted
// for. If the provider verifies accounts remotely, an authentication
// failure clears the secret fields and retries the prompt/verify cycle a
// bounded number of times. The first account created becomes selected.
func (m *Manager) Create(name string, opts Options, answers map[string]string) (provider.Account, error) {
	accounts := m.store.ReadAccounts()
	if _, exists := accounts.Accounts[name]; exists {
		return provider.Account{}, fmt.Errorf("account %q already exists", name)
	}

	p, err := m.resolveProvider(opts)
	if err != nil {
		return provider.Account{}, err
	}

	if answers == nil {
		answers = map[string]string{}
	}

	if p.SignupURI() != "" && len(answers) == 0 {
		has, err := m.prompt.Confirm("Do you have an account?", true)
		if err != nil {
			return provider.Account{}, err
		}
		if !has {
			m.fb.Emitf("Opening browser to provider signup link: %s", p.SignupURI())
			if err := m.browser.Open(p.SignupURI()); err != nil {
				return provider.Account{}, err
			}
		}
	}

	if err := m.prompt.RequireAnswers(p.Fields(), answers); err != nil {
		return provider.Account{}, err
	}

	if creator, ok := p.(provider.AccountCreator); ok {
		answers, err = m.verifyWithRetry(p, creator, answers)
		if err != nil {
			return provider.Account{}, err
		}
	}

	answers[store.ProviderKey] = p.Name()
	accounts.Accounts[name] = answers
	if accounts.Selected == "" {
		accounts.Selected = name
	}
	if err := m.store.WriteAccounts(accounts); err != nil {
		return provider.Account{}, err
	}

	m.offerDefaultService(p, provider.Account{Name: name, Fields: answers}, opts)
	return provider.Account{Name: name, Fields: answers}, nil
}

// verifyWithRetry runs the provider's account-creation hook, reprompting
// cleared credentials after each authentication failure, up to the
// attempt bound. Non-authentication errors are terminal immediately.
func (m *Manager) verifyWithRetry(p provider.Provider, creator provider.AccountCreator, answers map[string]string) (map[string]string, error) {
	var lastErr error
	for attempt := 1; attempt <= createAccountAttempts; attempt++ {
		created, err := creator.CreateAccount(answers, m.fb)
		if err == nil {
			if created != nil {
				return created, nil
			}
			return answers, nil
		}
		if !errors.Is(err, provider.ErrAuthentication) {
			return nil, err
		}
		lastErr = err
		if attempt == createAccountAttempts {
			break
		}
		m.fb.Emitf("Authentication failed, please re-enter credentials (attempt %d of %d)",
			attempt+1, createAccountAttempts)
		for _, f := range p.Fields() {
			if f.Secret {
				delete(answers, f.Name)
			}
		}
		if err := m.prompt.RequireAnswers(p.Fields(), answers); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// offerDefaultService optionally creates a first bound service when the
// provider exposes service types. Declining or failing is not an error
// for account creation.
func (m *Manager) offerDefaultService(p provider.Provider, account provider.Account, opts Options) {
	typer, ok := p.(provider.ServiceTyper)
	if !ok || len(typer.ServiceTypes()) == 0 {
		return
	}
	if _, ok := p.(provider.ServiceCreator); !ok {
		return
	}
	yes, err := m.prompt.Confirm("Create a default service for this account?", false)
	if err != nil || !yes {
		return
	}
	opts.Account = account.Name
	if _, err := m.CreateService("", opts); err != nil {
		m.fb.Warnf("default service not created: %v", err)
	}
}

// Update re-prompts every provider field plus any custom fields on the
// record, pre-filled with current values except secrets.
func (m *Manager) Update(name string, opts Options) (provider.Account, error) {
	account, err := m.Selected(name, opts)
	if err != nil {
		return provider.Account{}, err
	}
	p, ok := provider.Get(account.Fields[store.ProviderKey])
	if !ok {
		return provider.Account{}, fmt.Errorf("unknown provider: %s", account.Fields[store.ProviderKey])
	}

	fields := p.Fields()
	declared := map[string]bool{store.ProviderKey: true}
	for _, f := range fields {
		declared[f.Name] = true
	}
	custom := make([]string, 0)
	for k := range account.Fields {
		if !declared[k] {
			custom = append(custom, k)
		}
	}
	sort.Strings(custom)
	for _, k := range custom {
		fields = append(fields, provider.Field{Name: k, Message: k + "?"})
	}

	answers := map[string]string{}
	for k, v := range account.Fields {
		answers[k] = v
	}
	if err := m.prompt.UpdateAnswers(fields, answers); err != nil {
		return provider.Account{}, err
	}
	answers[store.ProviderKey] = p.Name()

	accounts := m.store.ReadAccounts()
	accounts.Accounts[account.Name] = answers
	if err := m.store.WriteAccounts(accounts); err != nil {
		return provider.Account{}, err
	}
	return provider.Account{Name: account.Name, Fields: answers}, nil
}

// Delete removes an account. An explicit unknown name is a no-op
// success; with no name the user chooses interactively. Deleting the
// selected account clears the selection, and services still referencing
// the account are reported as orphaned but never auto-deleted.
func (m *Manager) Delete(name string, opts Options) error {
	accounts := m.store.ReadAccounts()
	if name == "" {
		name = opts.Account
	}
	if name == "" {
		existing := accountNames(accounts)
		if len(existing) == 0 {
			return errors.New("no accounts found")
		}
		chosen, err := m.prompt.ChooseOne("Delete which account?", existing)
		if err != nil {
			return err
		}
		name = chosen
	}
	if _, ok := accounts.Accounts[name]; !ok {
		return nil
	}
	delete(accounts.Accounts, name)
	if accounts.Selected == name {
		accounts.Selected = ""
	}
	if err := m.store.WriteAccounts(accounts); err != nil {
		return err
	}

	var orphaned []string
	for svcName, svc := range m.store.ReadServices() {
		if svc.Metadata.Account == name {
			orphaned = append(orphaned, svcName)
		}
	}
	if len(orphaned) > 0 {
		sort.Strings(orphaned)
		for _, svcName := range orphaned {
			m.fb.Emitf("Service %s is now orphaned. Delete it manually if desired.", svcName)
		}
	}
	return nil
}

// SetValue sets a single field on the resolved account. The provider
// field is immutable.
func (m *Manager) SetValue(name string, opts Options, key, value string) (provider.Account, error) {
	if key == store.ProviderKey {
		return provider.Account{}, ErrProviderImmutable
	}
	account, err := m.Selected(name, opts)
	if err != nil {
		return provider.Account{}, err
	}
	accounts := m.store.ReadAccounts()
	accounts.Accounts[account.Name][key] = value
	if err := m.store.WriteAccounts(accounts); err != nil {
		return provider.Account{}, err
	}
	return provider.Account{Name: account.Name, Fields: accounts.Accounts[account.Name]}, nil
}

// DeleteValue removes a single field on the resolved account. The
// provider field is immutable.
func (m *Manager) DeleteValue(name string, opts Options, key string) (provider.Account, error) {
	if key == store.ProviderKey {
		return provider.Account{}, ErrProviderImmutable
	}
	account, err := m.Selected(name, opts)
	if err != nil {
		return provider.Account{}, err
	}
	accounts := m.store.ReadAccounts()
	delete(accounts.Accounts[account.Name], key)
	if err := m.store.WriteAccounts(accounts); err != nil {
		return provider.Account{}, err
	}
	return provider.Account{Name: account.Name, Fields: accounts.Accounts[account.Name]}, nil
}

func (m *Manager) resolveProvider(opts Options) (provider.Provider, error) {
	if opts.Provider != "" {
		p, ok := provider.Get(opts.Provider)
		if !ok {
			return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
		}
		return p, nil
	}
	chosen, err := m.prompt.ChooseOne("Provider?", provider.Names())
	if err != nil {
		return nil, err
	}
	p, ok := provider.Get(chosen)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", chosen)
	}
	return p, nil
}

func accountNames(accounts *store.AccountStore) []string {
	names := make([]string, 0, len(accounts.Accounts))
	for name := range accounts.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
