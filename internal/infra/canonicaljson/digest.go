package canonicaljson

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

type hasher interface {
	SumHex(data []byte) string
}

type sha256Hex struct{}

func (sha256Hex) SumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Digester hashes the RFC 8785 form of a JSON document, so key order and
// whitespace do not change the result.
type Digester struct {
	hasher hasher
}

func NewDigester() Digester {
	return Digester{hasher: sha256Hex{}}
}

func (d Digester) Digest(ctx context.Context, doc []byte) (string, error) {
	canonical, err := canonicalize(ctx, doc)
	if err != nil {
		return "", err
	}
	h := d.hasher
	if h == nil {
		h = sha256Hex{}
	}
	return h.SumHex(canonical), nil
}

func canonicalize(ctx context.Context, doc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value := jsontext.Value(append([]byte(nil), doc...))
	if err := value.Canonicalize(); err != nil {
		return nil, fmt.Errorf("canonicalize manifest: %w", err)
	}
	return value, nil
}
