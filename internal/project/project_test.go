package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, descriptor, swagger string) string {
	t.Helper()
	dir := t.TempDir()
	if descriptor != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a127.yaml"), []byte(descriptor), 0o644))
	}
	if swagger != "" {
		swaggerDir := filepath.Join(dir, "api", "swagger")
		require.NoError(t, os.MkdirAll(swaggerDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(swaggerDir, "swagger.yaml"), []byte(swagger), 0o644))
	}
	return dir
}

func TestReadUsesDescriptorName(t *testing.T) {
	dir := writeFixture(t, "name: hello-world\nbasePath: /hello\n", "swagger: \"2.0\"\n")

	p, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", p.Name)
	assert.Equal(t, "/hello", p.API.BasePath)
	assert.Equal(t, filepath.Join(dir, "config"), p.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "deployments"), p.DeploymentsDir)
}

func TestReadFallsBackToDirectoryName(t *testing.T) {
	dir := writeFixture(t, "", "swagger: \"2.0\"\nbasePath: /from-swagger\n")

	p, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), p.Name)
	assert.Equal(t, "/from-swagger", p.API.BasePath, "basePath falls back to the swagger document")
}

func TestReadRequiresSwagger(t *testing.T) {
	dir := writeFixture(t, "name: broken\n", "")

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "swagger")
}

func TestConfigKeysSorted(t *testing.T) {
	swagger := `swagger: "2.0"
x-a127-config:
  zeta.key: CONFIGURED
  alpha.key: CONFIGURED
`
	dir := writeFixture(t, "", swagger)
	p, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.key", "zeta.key"}, p.ConfigKeys())
}

func TestBindUnbindRoundTrip(t *testing.T) {
	dir := writeFixture(t, "", "swagger: \"2.0\"\n")
	p, err := Read(dir)
	require.NoError(t, err)

	services, err := p.Services()
	require.NoError(t, err)
	assert.Empty(t, services, "missing services file means no bindings")

	require.NoError(t, p.BindService("cache", map[string]any{"uri": "https://example.com"}))
	require.NoError(t, p.BindService("cache", map[string]any{"uri": "https://example.org"}))

	services, err = p.Services()
	require.NoError(t, err)
	require.Contains(t, services, "cache")
	assert.Equal(t, "https://example.org", services["cache"]["uri"], "rebinding overwrites")

	require.NoError(t, p.UnbindService("cache"))
	require.NoError(t, p.UnbindService("cache"), "unbinding an unknown name is a no-op")

	services, err = p.Services()
	require.NoError(t, err)
	assert.Empty(t, services)
}
