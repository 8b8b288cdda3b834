package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/app/paths"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

type InitOptions struct {
	Policy domain.Policy
	Python string
	Force  bool
}

type InitResult struct {
	Path    string
	Created bool
}

// Init writes a starter manifest. An existing manifest is kept unless
// Force is set.
func (s *Service) Init(ctx context.Context, path string, opts InitOptions) (InitResult, error) {
	absPath, err := paths.Normalize(path)
	if err != nil {
		return InitResult{}, err
	}

	exists, err := s.files.Exists(absPath)
	if err != nil {
		return InitResult{}, err
	}
	if exists && !opts.Force {
		return InitResult{Path: absPath}, nil
	}

	payload := renderStarter(opts)
	doc, err := s.converter.ToJSON(ctx, []byte(payload))
	if err != nil {
		return InitResult{}, fmt.Errorf("render starter manifest: %w", err)
	}
	if err := s.validator.Validate(ctx, doc); err != nil {
		return InitResult{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if err := s.files.Write(ctx, absPath, []byte(payload)); err != nil {
		return InitResult{}, err
	}
	return InitResult{Path: absPath, Created: true}, nil
}

func renderStarter(opts InitOptions) string {
	policy := domain.NormalizePolicy(opts.Policy)
	python := strings.TrimSpace(opts.Python)
	if python == "" {
		python = domain.DefaultPython
	}

	var builder strings.Builder
	builder.WriteString("# envprov manifest\n")
	builder.WriteString(fmt.Sprintf("version: %d\n", domain.ManifestVersion))
	builder.WriteString("workspaces: " + domain.DefaultWorkspaces + "\n")
	builder.WriteString("environment: " + domain.DefaultEnvironment + "\n")
	builder.WriteString(fmt.Sprintf("python: %q\n", python))
	builder.WriteString("policy: " + string(policy) + "\n")
	builder.WriteString("repositories: []\n")
	builder.WriteString("#  - name: example\n")
	builder.WriteString("#    url: https://github.com/org/example.git\n")
	builder.WriteString("#    sparse: true\n")
	builder.WriteString("#    paths: [docs]\n")
	builder.WriteString("packages: []\n")
	builder.WriteString("#  - name: requests\n")
	builder.WriteString("#    version: \">=2.31\"\n")
	builder.WriteString("#    command: \"\"\n")
	return builder.String()
}
