// Package service is the thin read surface over the services store.
// Creation and deletion carry provider business logic and live on the
// account manager, which owns the persisted file.
package service

import (
	"fmt"

	"github.com/apigee-127/a127/internal/account"
	"github.com/apigee-127/a127/internal/store"
)

// Manager exposes service queries and delegates mutation to the account
// manager.
type Manager struct {
	store    *store.Store
	accounts *account.Manager
}

func NewManager(st *store.Store, accounts *account.Manager) *Manager {
	return &Manager{store: st, accounts: accounts}
}

// List returns the metadata of every persisted service, keyed by name.
func (m *Manager) List() map[string]store.ServiceMetadata {
	services := m.store.ReadServices()
	out := make(map[string]store.ServiceMetadata, len(services))
	for name, svc := range services {
		out[name] = svc.Metadata
	}
	return out
}

// Get returns one service record.
func (m *Manager) Get(name string) (store.Service, error) {
	services := m.store.ReadServices()
	svc, ok := services[name]
	if !ok {
		return store.Service{}, fmt.Errorf("Service %s not found.", name)
	}
	return svc, nil
}

func (m *Manager) Create(name string, opts account.Options) (store.Service, error) {
	return m.accounts.CreateService(name, opts)
}

func (m *Manager) Delete(name string, opts account.Options) error {
	return m.accounts.DeleteService(name, opts)
}

func (m *Manager) Types(name string, opts account.Options) ([]string, error) {
	return m.accounts.ListServiceTypes(name, opts)
}
