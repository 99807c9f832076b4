package account

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apigee-127/a127/internal/deployment"
	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/project"
	"github.com/apigee-127/a127/internal/provider"
	"github.com/apigee-127/a127/internal/store"
)

// deployProvider records whether the staged files were on disk when the
// deploy hook ran.
type deployProvider struct {
	fakeProvider
	sawEnv     bool
	sawSecrets bool
	deployErr  error
	undeployed bool
}

func (p *deployProvider) DeployProject(account provider.Account, proj *project.Project, opts provider.Options, fb feedback.Emitter) (string, error) {
	p.sawEnv = fileExists(filepath.Join(proj.ConfigDir, deployment.EnvFile))
	p.sawSecrets = fileExists(filepath.Join(proj.ConfigDir, deployment.SecretsFile))
	return "deployed", p.deployErr
}

func (p *deployProvider) UndeployProject(account provider.Account, proj *project.Project, opts provider.Options, fb feedback.Emitter) (string, error) {
	p.undeployed = true
	return "undeployed", nil
}

type listingProvider struct {
	fakeProvider
	deployments []string
}

func (p *listingProvider) ListDeployments(account provider.Account, opts provider.Options) ([]string, error) {
	return p.deployments, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeProject(t *testing.T) *project.Project {
	t.Helper()
	dir := t.TempDir()
	swaggerDir := filepath.Join(dir, "api", "swagger")
	require.NoError(t, os.MkdirAll(swaggerDir, 0o755))
	swagger := "swagger: \"2.0\"\nbasePath: /hello\n"
	require.NoError(t, os.WriteFile(filepath.Join(swaggerDir, "swagger.yaml"), []byte(swagger), 0o644))
	p, err := project.Read(dir)
	require.NoError(t, err)
	return p
}

func TestDeployStagesAndCleansUp(t *testing.T) {
	p := &deployProvider{fakeProvider: fakeProvider{name: "fake"}}
	h := serviceHarness(t, p)
	proj := writeProject(t)

	result, err := h.m.DeployProject(proj, DeployOptions{})
	require.NoError(t, err)
	assert.Equal(t, "deployed", result)

	assert.True(t, p.sawEnv, "env marker staged before the provider hook")
	assert.True(t, p.sawSecrets, "secrets staged before the provider hook")
	assert.False(t, fileExists(filepath.Join(proj.ConfigDir, deployment.EnvFile)))
	assert.False(t, fileExists(filepath.Join(proj.ConfigDir, deployment.SecretsFile)))
	assert.True(t, h.fb.Contains("Deploying project"))
}

func TestDeployCleansUpOnProviderFailure(t *testing.T) {
	p := &deployProvider{
		fakeProvider: fakeProvider{name: "fake"},
		deployErr:    errors.New("backend rejected the bundle"),
	}
	h := serviceHarness(t, p)
	proj := writeProject(t)

	_, err := h.m.DeployProject(proj, DeployOptions{})
	require.Error(t, err)
	assert.False(t, fileExists(filepath.Join(proj.ConfigDir, deployment.SecretsFile)),
		"staged secrets are removed even when the deploy fails")
}

func TestDeployDebugRetainsStagedFiles(t *testing.T) {
	p := &deployProvider{fakeProvider: fakeProvider{name: "fake"}}
	h := serviceHarness(t, p)
	proj := writeProject(t)

	_, err := h.m.DeployProject(proj, DeployOptions{Options: Options{Debug: true}})
	require.NoError(t, err)
	assert.True(t, fileExists(filepath.Join(proj.ConfigDir, deployment.EnvFile)))
	assert.True(t, fileExists(filepath.Join(proj.ConfigDir, deployment.SecretsFile)))
}

func TestDeployUnsupportedProvider(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	_, err := h.m.DeployProject(writeProject(t), DeployOptions{})
	assert.EqualError(t, err, "operation deploy not valid for provider fake")
}

func TestUndeploy(t *testing.T) {
	p := &deployProvider{fakeProvider: fakeProvider{name: "fake"}}
	h := serviceHarness(t, p)

	result, err := h.m.UndeployProject(writeProject(t), DeployOptions{})
	require.NoError(t, err)
	assert.Equal(t, "undeployed", result)
	assert.True(t, p.undeployed)
}

func TestListDeployments(t *testing.T) {
	p := &listingProvider{
		fakeProvider: fakeProvider{name: "fake"},
		deployments:  []string{"hello-world", "weather"},
	}
	h := serviceHarness(t, p)

	deployments, err := h.m.ListDeployments("", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello-world", "weather"}, deployments)
}

func TestListDeploymentsUnsupportedProvider(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	_, err := h.m.ListDeployments("", Options{})
	assert.EqualError(t, err, "Cannot list deployments on fake accounts")
}

func TestLogsUnsupportedProvider(t *testing.T) {
	h := serviceHarness(t, &fakeProvider{name: "fake"})

	_, err := h.m.Logs("", Options{}, writeProject(t))
	assert.EqualError(t, err, "Cannot get logs on fake accounts")
}

func TestStagedConfigRedactsPassword(t *testing.T) {
	h := newHarness(t)
	registerFake(t, &fakeProvider{name: "fake"})
	seedAccounts(t, h, map[string]store.Fields{
		"prod": {store.ProviderKey: "fake", "organization": "acme", "password": "s3cret"},
	}, "prod")

	staged, err := h.m.StagedConfig(writeProject(t), DeployOptions{
		Additional: map[string]string{"organization": "override"},
	})
	require.NoError(t, err)
	assert.Equal(t, "override", staged["organization"], "additional fields win")
	assert.NotContains(t, staged, "password")
}
