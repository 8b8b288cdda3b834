package jsonpatch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/evanphx/json-patch/v5"
)

type Patcher struct{}

// Merge applies an overlay to doc. Objects are RFC 7396 merge patches;
// arrays are RFC 6902 operation lists.
func (p Patcher) Merge(ctx context.Context, doc, patch []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(patch); len(trimmed) > 0 && trimmed[0] == '[' {
		return p.Apply(ctx, doc, trimmed)
	}

	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("merge patch: %w", err)
	}
	return out, nil
}

func (Patcher) Apply(ctx context.Context, doc, patch []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}

	out, err := decoded.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
