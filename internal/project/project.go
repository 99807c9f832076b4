// Package project reads the on-disk description of an a127 API project:
// the project descriptor, the Swagger document, and the project-local
// bound-services file. Projects are derived at command time and never
// persisted independently of those sources.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	descriptorFile = "a127.yaml"
	swaggerFile    = "swagger.yaml"
	servicesFile   = "a127-services.yaml"

	// Swagger vendor extension naming externally-configured keys, of the
	// form "<serviceName>.<setting>".
	configExtension = "x-a127-config"
)

// API is the descriptor metadata for the project's API.
type API struct {
	Name     string `yaml:"name"`
	Main     string `yaml:"main"`
	BasePath string `yaml:"basePath"`
}

// Project is the transient in-memory view of a project directory.
type Project struct {
	Name           string
	Dirname        string
	ConfigDir      string
	DeploymentsDir string
	API            API
	Swagger        map[string]any
}

// Read loads a project from dir. The descriptor is optional; when absent
// the project name falls back to the directory name. The Swagger document
// is required.
func Read(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}

	p := &Project{
		Name:           filepath.Base(abs),
		Dirname:        abs,
		ConfigDir:      filepath.Join(abs, "config"),
		DeploymentsDir: filepath.Join(abs, "deployments"),
	}

	if data, err := os.ReadFile(filepath.Join(abs, descriptorFile)); err == nil {
		if err := yaml.Unmarshal(data, &p.API); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", descriptorFile, err)
		}
		if p.API.Name != "" {
			p.Name = p.API.Name
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", descriptorFile, err)
	}

	swaggerPath := filepath.Join(abs, "api", "swagger", swaggerFile)
	data, err := os.ReadFile(swaggerPath)
	if err != nil {
		return nil, fmt.Errorf("reading swagger document: %w", err)
	}
	if err := yaml.Unmarshal(data, &p.Swagger); err != nil {
		return nil, fmt.Errorf("parsing swagger document: %w", err)
	}
	if p.API.BasePath == "" {
		if bp, ok := p.Swagger["basePath"].(string); ok {
			p.API.BasePath = bp
		}
	}
	return p, nil
}

// ConfigKeys returns the sorted keys of the swagger x-a127-config block.
func (p *Project) ConfigKeys() []string {
	block, ok := p.Swagger[configExtension].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(block))
	for k := range block {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Project) servicesPath() string {
	return filepath.Join(p.ConfigDir, servicesFile)
}

// Services reads the project-local bound-services document. A missing
// file is an empty binding set.
func (p *Project) Services() (map[string]map[string]any, error) {
	data, err := os.ReadFile(p.servicesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", servicesFile, err)
	}
	out := map[string]map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", servicesFile, err)
	}
	return out, nil
}

// BindService records a service binding, overwriting any previous binding
// of the same name.
func (p *Project) BindService(name string, data map[string]any) error {
	services, err := p.Services()
	if err != nil {
		return err
	}
	services[name] = data
	return p.writeServices(services)
}

// UnbindService removes a binding; unbinding an unknown name is a no-op.
func (p *Project) UnbindService(name string) error {
	services, err := p.Services()
	if err != nil {
		return err
	}
	delete(services, name)
	return p.writeServices(services)
}

func (p *Project) writeServices(services map[string]map[string]any) error {
	if err := os.MkdirAll(p.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(services)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", servicesFile, err)
	}
	if err := os.WriteFile(p.servicesPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", servicesFile, err)
	}
	return nil
}
