package gitrepo

import (
	"context"
	"log/slog"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

// Store clones and inspects repositories in-process through go-git.
type Store struct {
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// ProbeSparse always succeeds: go-git applies sparse directories itself and
// does not depend on the installed git.
func (s *Store) ProbeSparse(ctx context.Context) domain.SparseSupport {
	return domain.SparseSupported
}
