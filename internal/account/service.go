package account

import (
	"errors"
	"fmt"

	"github.com/apigee-127/a127/internal/provider"
	"github.com/apigee-127/a127/internal/store"
)

// serviceNameAttempts bounds the prompt loop for a unique, non-empty
// service name.
const serviceNameAttempts = 3

// ListServiceTypes delegates to the provider's optional type
// enumeration.
func (m *Manager) ListServiceTypes(name string, opts Options) ([]string, error) {
	account, err := m.Selected(name, opts)
	if err != nil {
		return nil, err
	}
	prov, err := providerFor(account)
	if err != nil {
		return nil, err
	}
	typer, ok := prov.(provider.ServiceTyper)
	if !ok {
		return nil, fmt.Errorf("Cannot list service types on %s accounts", prov.Name())
	}
	return typer.ServiceTypes(), nil
}

// CreateService provisions a service through the resolved account's
// provider and persists the binding. When no name is supplied, the user
// is prompted for a unique non-empty name, retrying a bounded number of
// times before giving up.
func (m *Manager) CreateService(name string, opts Options) (store.Service, error) {
	account, err := m.Selected("", opts)
	if err != nil {
		return store.Service{}, err
	}
	prov, err := providerFor(account)
	if err != nil {
		return store.Service{}, err
	}
	creator, ok := prov.(provider.ServiceCreator)
	if !ok {
		return store.Service{}, fmt.Errorf("Cannot create services on %s accounts", prov.Name())
	}

	serviceType, err := m.chooseServiceType(prov)
	if err != nil {
		return store.Service{}, err
	}

	services := m.store.ReadServices()
	name, err = m.resolveServiceName(name, services)
	if err != nil {
		return store.Service{}, err
	}

	m.fb.Emitf("Creating service %s on %s...", name, account.Name)
	data, err := creator.CreateService(account, name, serviceType)
	if err != nil {
		return store.Service{}, err
	}

	svc := store.Service{
		Metadata: store.ServiceMetadata{Account: account.Name, Type: serviceType},
		Data:     data,
	}
	services[name] = svc
	if err := m.store.WriteServices(services); err != nil {
		return store.Service{}, err
	}
	return svc, nil
}

// DeleteService removes the local record and asks the provider to tear
// down the remote resource. The local record is removed even when the
// remote delete fails; the failure is reported, not fatal. Deleting an
// unknown service is a no-op success.
func (m *Manager) DeleteService(name string, opts Options) error {
	services := m.store.ReadServices()
	svc, ok := services[name]
	if !ok {
		return nil
	}

	accounts := m.store.ReadAccounts()
	fields, ok := accounts.Accounts[svc.Metadata.Account]
	if !ok {
		m.fb.Warnf("service %s references deleted account %s, skipping remote delete",
			name, svc.Metadata.Account)
	} else if prov, provOK := provider.Get(fields.Provider()); provOK {
		if deleter, can := prov.(provider.ServiceDeleter); can {
			owner := provider.Account{Name: svc.Metadata.Account, Fields: fields}
			if err := deleter.DeleteService(owner, name, svc.Data); err != nil {
				m.fb.Warnf("remote delete of %s failed, removing local record anyway: %v", name, err)
			}
		}
	}

	delete(services, name)
	return m.store.WriteServices(services)
}

func (m *Manager) chooseServiceType(prov provider.Provider) (string, error) {
	typer, ok := prov.(provider.ServiceTyper)
	if !ok {
		return "", fmt.Errorf("Cannot list service types on %s accounts", prov.Name())
	}
	types := typer.ServiceTypes()
	switch len(types) {
	case 0:
		return "", fmt.Errorf("provider %s exposes no service types", prov.Name())
	case 1:
		return types[0], nil
	default:
		return m.prompt.ChooseOne("Service type?", types)
	}
}

// resolveServiceName validates a supplied name or prompts for one,
// requiring it to be non-empty and unused.
func (m *Manager) resolveServiceName(name string, services map[string]store.Service) (string, error) {
	nameField := []provider.Field{{Name: "name", Message: "Service name?"}}
	for attempt := 0; attempt < serviceNameAttempts; attempt++ {
		if name == "" {
			answers := map[string]string{}
			if err := m.prompt.RequireAnswers(nameField, answers); err != nil {
				return "", err
			}
			name = answers["name"]
		}
		if name == "" {
			continue
		}
		if _, taken := services[name]; taken {
			m.fb.Emitf("Service %s already exists. Choose another name.", name)
			name = ""
			continue
		}
		return name, nil
	}
	return "", errors.New("no valid service name given")
}
