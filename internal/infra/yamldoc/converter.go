package yamldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("empty document")

// Converter reads YAML (and therefore JSON) text and re-encodes it as JSON.
type Converter struct{}

func (Converter) ToJSON(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if value == nil {
		return nil, ErrEmptyDocument
	}

	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(normalized, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSpace(out), nil
}

// normalize rewrites maps with non-string keys, which yaml.v3 produces for
// mappings such as {1: a}, into JSON-compatible objects.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			v[key] = n
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = n
		}
		return out, nil
	case []any:
		for i, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	default:
		return v, nil
	}
}
