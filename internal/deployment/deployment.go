// Package deployment implements the staging protocol around provider
// deploy operations: the account document and environment marker are
// materialized into the project's config directory immediately before
// the provider hook runs, and removed afterward. Secrets are therefore
// only transiently on disk unless a debug flag keeps them.
package deployment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/project"
	"github.com/apigee-127/a127/internal/provider"
)

const (
	// EnvFile holds the selected account name, plaintext.
	EnvFile = ".a127-env"
	// SecretsFile holds the effective account document, YAML.
	SecretsFile = ".a127-secrets"
)

// overrides is the per-project staging policy, read from the config file
// named after the account with config/default.yaml as fallback.
type overrides struct {
	IncludePasswordInSecrets bool `yaml:"includePasswordInSecrets"`
}

// Write materializes the env marker and secrets file for a deploy.
// additional fields win over account fields on conflict. The account's
// password is stripped unless the project opts in. Returns the two file
// paths in (env, secrets) order.
func Write(p *project.Project, account provider.Account, additional map[string]string, fb feedback.Emitter) (string, string, error) {
	effective := map[string]string{}
	for k, v := range account.Fields {
		effective[k] = v
	}
	for k, v := range additional {
		effective[k] = v
	}

	if !readOverrides(p, account.Name).IncludePasswordInSecrets {
		delete(effective, "password")
	}

	if err := os.MkdirAll(p.ConfigDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating config dir: %w", err)
	}

	secretsPath := filepath.Join(p.ConfigDir, SecretsFile)
	data, err := yaml.Marshal(effective)
	if err != nil {
		return "", "", fmt.Errorf("marshaling secrets: %w", err)
	}
	if err := os.WriteFile(secretsPath, data, 0o600); err != nil {
		return "", "", fmt.Errorf("writing secrets file: %w", err)
	}

	envPath := filepath.Join(p.ConfigDir, EnvFile)
	if err := os.WriteFile(envPath, []byte(account.Name), 0o644); err != nil {
		return "", "", fmt.Errorf("writing env file: %w", err)
	}

	warnUnboundServices(p, fb)
	return envPath, secretsPath, nil
}

// Remove deletes both staged files. Callers invoke this as best-effort
// cleanup; an already-absent file is not an error.
func Remove(p *project.Project) {
	os.Remove(filepath.Join(p.ConfigDir, EnvFile))
	os.Remove(filepath.Join(p.ConfigDir, SecretsFile))
}

// Effective computes the staged account document without writing it,
// for show-config.
func Effective(p *project.Project, account provider.Account, additional map[string]string) map[string]string {
	effective := map[string]string{}
	for k, v := range account.Fields {
		effective[k] = v
	}
	for k, v := range additional {
		effective[k] = v
	}
	if !readOverrides(p, account.Name).IncludePasswordInSecrets {
		delete(effective, "password")
	}
	return effective
}

func readOverrides(p *project.Project, accountName string) overrides {
	candidates := []string{filepath.Join(p.ConfigDir, "default.yaml")}
	if accountName != "" {
		candidates = []string{
			filepath.Join(p.ConfigDir, accountName+".yaml"),
			filepath.Join(p.ConfigDir, "default.yaml"),
		}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var o overrides
		if err := yaml.Unmarshal(data, &o); err != nil {
			continue
		}
		return o
	}
	return overrides{}
}

// warnUnboundServices cross-references the service names in the swagger
// x-a127-config keys ("<service>.<setting>") against the project's bound
// services and reports the unbound names. This never blocks the deploy.
func warnUnboundServices(p *project.Project, fb feedback.Emitter) {
	keys := p.ConfigKeys()
	if len(keys) == 0 {
		return
	}
	bound, err := p.Services()
	if err != nil {
		fb.Warnf("could not read bound services: %v", err)
		return
	}
	missing := map[string]bool{}
	for _, key := range keys {
		name, _, ok := strings.Cut(key, ".")
		if !ok || name == "" {
			continue
		}
		if _, exists := bound[name]; !exists {
			missing[name] = true
		}
	}
	if len(missing) == 0 {
		return
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	fb.Warnf("the following services are referenced in the API but not bound to this project: %s",
		strings.Join(names, ", "))
}
