// Package provider defines the capability surface a deployment backend
// exposes to the rest of the CLI. A provider always declares its name and
// prompt fields; every operation beyond that is an optional capability
// modeled as a separate interface and asserted at the call site. A missing
// capability is a valid state meaning "not supported by this provider".
package provider

import (
	"errors"

	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/project"
)

// ErrAuthentication marks a credential-verification failure from a
// provider's account-creation hook. The account manager recovers from it
// with a bounded reprompt loop; any other error is terminal.
var ErrAuthentication = errors.New("authentication failed")

// Field describes one prompt the provider needs answered to build an
// account. Secret fields are masked while typing and never pre-filled.
type Field struct {
	Name    string
	Message string
	Default string
	Secret  bool
}

// Provider is the mandatory surface of a deployment backend.
type Provider interface {
	Name() string
	Fields() []Field
	// SignupURI returns the account signup page, or "" if none.
	SignupURI() string
}

// Account is the resolved account document handed to provider operations.
type Account struct {
	Name   string
	Fields map[string]string
}

// Options carries cross-cutting flags into provider operations.
type Options struct {
	Debug bool
}

// Deployer deploys a staged project.
type Deployer interface {
	DeployProject(account Account, p *project.Project, opts Options, fb feedback.Emitter) (string, error)
}

// Undeployer removes a previously deployed project.
type Undeployer interface {
	UndeployProject(account Account, p *project.Project, opts Options, fb feedback.Emitter) (string, error)
}

// DeploymentLister enumerates the account's active deployments.
type DeploymentLister interface {
	ListDeployments(account Account, opts Options) ([]string, error)
}

// LogFetcher retrieves remote logs for a deployed project.
type LogFetcher interface {
	Logs(account Account, p *project.Project, opts Options) (string, error)
}

// ServiceTyper enumerates the service types the provider can create.
type ServiceTyper interface {
	ServiceTypes() []string
}

// ServiceCreator provisions a provider-managed resource and returns its
// opaque data payload for the services store.
type ServiceCreator interface {
	CreateService(account Account, name, serviceType string) (map[string]any, error)
}

// ServiceDeleter tears down a provider-managed resource.
type ServiceDeleter interface {
	DeleteService(account Account, name string, data map[string]any) error
}

// AccountCreator performs remote verification or provisioning during
// account creation. It may return augmented fields to persist; a
// credential rejection must wrap ErrAuthentication.
type AccountCreator interface {
	CreateAccount(fields map[string]string, fb feedback.Emitter) (map[string]string, error)
}
