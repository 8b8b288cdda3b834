package manifest

import "context"

type Files interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(path string) (bool, error)
	Write(ctx context.Context, path string, data []byte) error
}

// Converter turns a YAML or JSON document into JSON.
type Converter interface {
	ToJSON(ctx context.Context, data []byte) ([]byte, error)
}

type Patcher interface {
	Merge(ctx context.Context, doc, patch []byte) ([]byte, error)
}

type Validator interface {
	Validate(ctx context.Context, doc []byte) error
}

type Digester interface {
	Digest(ctx context.Context, doc []byte) (string, error)
}
