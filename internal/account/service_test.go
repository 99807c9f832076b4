package account

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigee-127/a127/internal/provider"
	"github.com/apigee-127/a127/internal/store"
)

// serviceProvider adds the service capabilities to the base fake.
type serviceProvider struct {
	fakeProvider
	types     []string
	created   []string
	deleted   []string
	deleteErr error
}

func (p *serviceProvider) ServiceTypes() []string { return p.types }

func (p *serviceProvider) CreateService(account provider.Account, name, serviceType string) (map[string]any, error) {
	p.created = append(p.created, name)
	return map[string]any{"uri": "https://svc.example.com/" + name, "type": serviceType}, nil
}

func (p *serviceProvider) DeleteService(account provider.Account, name string, data map[string]any) error {
	p.deleted = append(p.deleted, name)
	return p.deleteErr
}

func serviceHarness(t *testing.T, p provider.Provider) *harness {
	t.Helper()
	h := newHarness(t)
	registerFake(t, p)
	seedAccounts(t, h, map[string]store.Fields{
		"prod": {store.ProviderKey: "fake"},
	}, "prod")
	return h
}

func TestCreateServiceSingleTypeIsNotPrompted(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy"}}
	h := serviceHarness(t, p)

	svc, err := h.m.CreateService("cache", Options{})
	require.NoError(t, err)

	assert.Empty(t, h.pr.Prompts)
	assert.Equal(t, "RemoteProxy", svc.Metadata.Type)
	assert.Equal(t, "prod", svc.Metadata.Account)
	assert.Equal(t, []string{"cache"}, p.created)

	persisted := h.st.ReadServices()
	require.Contains(t, persisted, "cache")
	assert.Equal(t, "https://svc.example.com/cache", persisted["cache"].Data["uri"])
}

func TestCreateServicePromptsAmongTypes(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy", "Cache"}}
	h := serviceHarness(t, p)
	h.pr.Choices = []string{"Cache"}

	svc, err := h.m.CreateService("cache", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Cache", svc.Metadata.Type)
	assert.Equal(t, []string{"Service type?"}, h.pr.Prompts)
}

func TestCreateServicePromptsForUniqueName(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy"}}
	h := serviceHarness(t, p)
	require.NoError(t, h.st.WriteServices(map[string]store.Service{
		"cache": {Metadata: store.ServiceMetadata{Account: "prod", Type: "RemoteProxy"}},
	}))
	h.pr.Answers["name"] = []string{"cache", "cache2"}

	svc, err := h.m.CreateService("", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cache2"}, p.created)
	assert.Equal(t, "RemoteProxy", svc.Metadata.Type)
	assert.True(t, h.fb.Contains("Service cache already exists"))
}

func TestCreateServiceGivesUpWithoutValidName(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy"}}
	h := serviceHarness(t, p)
	require.NoError(t, h.st.WriteServices(map[string]store.Service{
		"cache": {Metadata: store.ServiceMetadata{Account: "prod", Type: "RemoteProxy"}},
	}))
	h.pr.Answers["name"] = []string{"cache", "cache", "cache"}

	_, err := h.m.CreateService("", Options{})
	assert.EqualError(t, err, "no valid service name given")
	assert.Empty(t, p.created)
}

func TestCreateServiceUnsupportedProvider(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	_, err := h.m.CreateService("cache", Options{})
	assert.EqualError(t, err, "Cannot create services on fake accounts")
}

func TestListServiceTypesUnsupportedProvider(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	_, err := h.m.ListServiceTypes("", Options{})
	assert.EqualError(t, err, "Cannot list service types on fake accounts")
}

func TestDeleteServiceUnknownIsNoop(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	require.NoError(t, h.m.DeleteService("ghost", Options{}))
}

func TestDeleteServiceTearsDownRemote(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy"}}
	h := serviceHarness(t, p)
	require.NoError(t, h.st.WriteServices(map[string]store.Service{
		"cache": {Metadata: store.ServiceMetadata{Account: "prod", Type: "RemoteProxy"}},
	}))

	require.NoError(t, h.m.DeleteService("cache", Options{}))
	assert.Equal(t, []string{"cache"}, p.deleted)
	assert.Empty(t, h.st.ReadServices())
}

func TestDeleteServiceRemoteFailureStillRemovesRecord(t *testing.T) {
	p := &serviceProvider{
		fakeProvider: fakeProvider{name: "fake"},
		types:        []string{"RemoteProxy"},
		deleteErr:    errors.New("backend down"),
	}
	h := serviceHarness(t, p)
	require.NoError(t, h.st.WriteServices(map[string]store.Service{
		"cache": {Metadata: store.ServiceMetadata{Account: "prod", Type: "RemoteProxy"}},
	}))

	require.NoError(t, h.m.DeleteService("cache", Options{}))
	assert.Empty(t, h.st.ReadServices())
	assert.True(t, h.fb.Contains("remote delete of cache failed"))
}

func TestDeleteServiceOrphanedAccountSkipsRemote(t *testing.T) {
	p := &serviceProvider{fakeProvider: fakeProvider{name: "fake"}, types: []string{"RemoteProxy"}}
	h := newHarness(t)
	registerFake(t, p)
	require.NoError(t, h.st.WriteServices(map[string]store.Service{
		"cache": {Metadata: store.ServiceMetadata{Account: "gone", Type: "RemoteProxy"}},
	}))

	require.NoError(t, h.m.DeleteService("cache", Options{}))
	assert.Empty(t, p.deleted)
	assert.Empty(t, h.st.ReadServices())
	assert.True(t, h.fb.Contains("references deleted account gone"))
}
