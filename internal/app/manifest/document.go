package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/osvaldoandrade/envprov/internal/app/paths"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

type document struct {
	Version      int                  `json:"version"`
	Workspaces   string               `json:"workspaces,omitempty"`
	Environment  string               `json:"environment,omitempty"`
	Python       string               `json:"python,omitempty"`
	Policy       string               `json:"policy,omitempty"`
	Requirements string               `json:"requirements,omitempty"`
	Repositories []repositoryDocument `json:"repositories,omitempty"`
	Packages     []packageDocument    `json:"packages,omitempty"`
}

type repositoryDocument struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Ref      string   `json:"ref,omitempty"`
	Sparse   bool     `json:"sparse,omitempty"`
	ReadOnly bool     `json:"read_only,omitempty"`
	Paths    []string `json:"paths,omitempty"`
}

type packageDocument struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Module  string `json:"module,omitempty"`
	Command string `json:"command,omitempty"`
}

func decodeDocument(data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("%w: decode: %v", ErrInvalidManifest, err)
	}
	return doc, nil
}

func (d document) resolve(path string) (domain.Manifest, error) {
	root := filepath.Dir(path)

	workspaces := d.Workspaces
	if workspaces == "" {
		workspaces = domain.DefaultWorkspaces
	}
	environment := d.Environment
	if environment == "" {
		environment = domain.DefaultEnvironment
	}

	policy := domain.DefaultPolicy
	if d.Policy != "" {
		parsed, err := domain.ParsePolicy(d.Policy)
		if err != nil {
			return domain.Manifest{}, err
		}
		policy = parsed
	}

	m := domain.Manifest{
		Version:     d.Version,
		Path:        path,
		ProjectRoot: root,
		Workspaces:  paths.Resolve(root, workspaces),
		Environment: domain.EnvironmentDescriptor{
			RootPath: paths.Resolve(root, environment),
			Python:   d.Python,
		},
		Policy:       policy,
		Requirements: domain.RequirementsFile{Path: paths.Resolve(root, domain.DefaultRequirements)},
	}
	if d.Requirements != "" {
		m.Requirements = domain.RequirementsFile{Path: paths.Resolve(root, d.Requirements), Explicit: true}
	}
	for _, repo := range d.Repositories {
		m.Repositories = append(m.Repositories, domain.RepositorySpec{
			Name:        repo.Name,
			URL:         repo.URL,
			Ref:         repo.Ref,
			Sparse:      repo.Sparse,
			SparsePaths: repo.Paths,
			ReadOnly:    repo.ReadOnly,
		})
	}
	for _, pkg := range d.Packages {
		m.Packages = append(m.Packages, domain.PackageSpec{
			Name:              pkg.Name,
			VersionConstraint: pkg.Version,
			Module:            pkg.Module,
			Command:           pkg.Command,
		})
	}

	m = m.WithDefaults()
	if err := m.Validate(); err != nil {
		return domain.Manifest{}, err
	}
	return m, nil
}
