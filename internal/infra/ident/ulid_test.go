package ident

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewIDIsMonotonic(t *testing.T) {
	gen := NewULIDGenerator()
	prev := ""
	for i := 0; i < 16; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("NewID returned error: %v", err)
		}
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("invalid ulid %q: %v", id, err)
		}
		if id <= prev {
			t.Fatalf("expected increasing ids, got %s after %s", id, prev)
		}
		prev = id
	}
}
