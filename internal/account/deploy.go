package account

import (
	"fmt"

	"github.com/apigee-127/a127/internal/deployment"
	"github.com/apigee-127/a127/internal/project"
	"github.com/apigee-127/a127/internal/provider"
)

// DeployOptions extends Options for project deploys.
type DeployOptions struct {
	Options
	// Additional fields are merged over the account fields in the staged
	// secrets document, additional winning on conflict.
	Additional map[string]string
}

// DeployProject stages the deployment files, invokes the provider's
// deploy hook, and removes the files afterward whether the deploy
// succeeded or not. Debug retains the files for inspection.
func (m *Manager) DeployProject(p *project.Project, opts DeployOptions) (string, error) {
	account, err := m.Selected("", opts.Options)
	if err != nil {
		return "", err
	}
	prov, err := providerFor(account)
	if err != nil {
		return "", err
	}
	deployer, ok := prov.(provider.Deployer)
	if !ok {
		return "", fmt.Errorf("operation deploy not valid for provider %s", prov.Name())
	}

	m.fb.Emitf("Deploying project %s to %s...", p.Name, account.Name)
	if _, _, err := deployment.Write(p, account, opts.Additional, m.fb); err != nil {
		return "", err
	}
	if !opts.Debug {
		defer deployment.Remove(p)
	}
	return deployer.DeployProject(account, p, provider.Options{Debug: opts.Debug}, m.fb)
}

// UndeployProject removes the project from the account's backend, with
// the same staging lifecycle as DeployProject.
func (m *Manager) UndeployProject(p *project.Project, opts DeployOptions) (string, error) {
	account, err := m.Selected("", opts.Options)
	if err != nil {
		return "", err
	}
	prov, err := providerFor(account)
	if err != nil {
		return "", err
	}
	undeployer, ok := prov.(provider.Undeployer)
	if !ok {
		return "", fmt.Errorf("operation undeploy not valid for provider %s", prov.Name())
	}

	m.fb.Emitf("Undeploying project %s from %s...", p.Name, account.Name)
	if _, _, err := deployment.Write(p, account, opts.Additional, m.fb); err != nil {
		return "", err
	}
	if !opts.Debug {
		defer deployment.Remove(p)
	}
	return undeployer.UndeployProject(account, p, provider.Options{Debug: opts.Debug}, m.fb)
}

// ListDeployments delegates to the provider's optional lister.
func (m *Manager) ListDeployments(name string, opts Options) ([]string, error) {
	account, err := m.Selected(name, opts)
	if err != nil {
		return nil, err
	}
	prov, err := providerFor(account)
	if err != nil {
		return nil, err
	}
	lister, ok := prov.(provider.DeploymentLister)
	if !ok {
		return nil, fmt.Errorf("Cannot list deployments on %s accounts", prov.Name())
	}
	m.fb.Emitf("Listing deployments for %s...", account.Name)
	return lister.ListDeployments(account, provider.Options{Debug: opts.Debug})
}

// Logs delegates to the provider's optional log fetcher.
func (m *Manager) Logs(name string, opts Options, p *project.Project) (string, error) {
	account, err := m.Selected(name, opts)
	if err != nil {
		return "", err
	}
	prov, err := providerFor(account)
	if err != nil {
		return "", err
	}
	fetcher, ok := prov.(provider.LogFetcher)
	if !ok {
		return "", fmt.Errorf("Cannot get logs on %s accounts", prov.Name())
	}
	return fetcher.Logs(account, p, provider.Options{Debug: opts.Debug})
}

// StagedConfig returns the effective document show-config prints,
// applying the same merge and redaction as a real deploy.
func (m *Manager) StagedConfig(p *project.Project, opts DeployOptions) (map[string]string, error) {
	account, err := m.Selected("", opts.Options)
	if err != nil {
		return nil, err
	}
	return deployment.Effective(p, account, opts.Additional), nil
}

func providerFor(account provider.Account) (provider.Provider, error) {
	name := account.Fields["provider"]
	prov, ok := provider.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return prov, nil
}
