// Package amazon is the built-in provider for AWS deployment targets.
// It only knows how to package a project for upload; everything else is
// unsupported and surfaces as the usual capability errors.
package amazon

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/project"
	"github.com/apigee-127/a127/internal/provider"
)

const (
	name      = "amazon"
	signupURI = "https://aws.amazon.com"
)

func init() {
	provider.Register(&Provider{})
}

type Provider struct{}

func (p *Provider) Name() string      { return name }
func (p *Provider) SignupURI() string { return signupURI }

func (p *Provider) Fields() []provider.Field {
	return []provider.Field{
		{Name: "accessKeyId", Message: "Access Key ID?"},
		{Name: "secretAccessKey", Message: "Secret Access Key?", Secret: true},
		{Name: "region", Message: "Region?", Default: "us-east-1"},
	}
}

// DeployProject zips the project into its deployments directory, named
// after the account, ready for upload.
func (p *Provider) DeployProject(account provider.Account, proj *project.Project, opts provider.Options, fb feedback.Emitter) (string, error) {
	fb.Emit("Creating zip of project for upload...")
	if err := os.MkdirAll(proj.DeploymentsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating deployments dir: %w", err)
	}
	target := filepath.Join(proj.DeploymentsDir, account.Name+".zip")
	if err := writeZip(proj.Dirname, target); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return fmt.Sprintf("project packaged at %s", target), nil
}

func writeZip(dir, target string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if d.IsDir() {
			// The deployments dir would otherwise zip its own output.
			if base == "node_modules" || base == "deployments" || (strings.HasPrefix(base, ".") && path != dir) {
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
		out.Close()
		os.Remove(target)
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
