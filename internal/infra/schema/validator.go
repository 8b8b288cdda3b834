package schema

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const manifestSchemaURL = "manifest.schema.json"

//go:embed manifest.schema.json
var manifestSchema []byte

// ManifestValidator checks manifest documents against the embedded schema.
type ManifestValidator struct {
	schema *jsonschema.Schema
}

func NewManifestValidator() (*ManifestValidator, error) {
	compiled, err := compile(manifestSchema)
	if err != nil {
		return nil, err
	}
	return &ManifestValidator{schema: compiled}, nil
}

func (v *ManifestValidator) Validate(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// jsonschema v5 validates decoded values: maps, slices, float64 numbers.
	var value any
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := v.schema.Validate(value); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func compile(schema []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	compiled, err := compiler.Compile(manifestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
