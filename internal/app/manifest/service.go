package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/app/paths"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

type Service struct {
	files     Files
	converter Converter
	patcher   Patcher
	validator Validator
	digester  Digester
}

// LoadOptions carries overlays merged onto the manifest, in order, and
// command-line overrides applied after validation.
type LoadOptions struct {
	Overlays []string
	Policy   domain.Policy
	Python   string
}

func NewService(files Files, converter Converter, patcher Patcher, validator Validator, digester Digester) *Service {
	return &Service{
		files:     files,
		converter: converter,
		patcher:   patcher,
		validator: validator,
		digester:  digester,
	}
}

func (s *Service) Load(ctx context.Context, path string, opts LoadOptions) (domain.Manifest, error) {
	absPath, err := paths.Normalize(path)
	if err != nil {
		return domain.Manifest{}, err
	}

	doc, err := s.readJSON(ctx, absPath)
	if err != nil {
		return domain.Manifest{}, err
	}

	for _, overlay := range opts.Overlays {
		doc, err = s.applyOverlay(ctx, doc, overlay)
		if err != nil {
			return domain.Manifest{}, err
		}
	}

	if err := s.validator.Validate(ctx, doc); err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	decoded, err := decodeDocument(doc)
	if err != nil {
		return domain.Manifest{}, err
	}
	manifest, err := decoded.resolve(absPath)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	digest, err := s.digester.Digest(ctx, doc)
	if err != nil {
		return domain.Manifest{}, err
	}
	manifest.Digest = digest

	if opts.Policy != "" {
		manifest.Policy = opts.Policy
	}
	if python := strings.TrimSpace(opts.Python); python != "" {
		manifest.Environment.Python = python
	}
	return manifest, nil
}

func (s *Service) readJSON(ctx context.Context, path string) ([]byte, error) {
	exists, err := s.files.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}

	raw, err := s.files.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	doc, err := s.converter.ToJSON(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return doc, nil
}

func (s *Service) applyOverlay(ctx context.Context, doc []byte, overlay string) ([]byte, error) {
	absPath, err := paths.Normalize(overlay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlay, err)
	}
	raw, err := s.files.Read(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverlay, err)
	}
	patch, err := s.converter.ToJSON(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOverlay, absPath, err)
	}
	merged, err := s.patcher.Merge(ctx, doc, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOverlay, absPath, err)
	}
	return merged, nil
}
