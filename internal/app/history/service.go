package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

const DefaultLimit = 20

type Service struct {
	store RunStore
}

// NewService lists runs from store. A nil store stands for a journal that
// was never written: List is empty and Show finds nothing.
func NewService(store RunStore) *Service {
	return &Service{store: store}
}

// List returns the most recent runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) Show(ctx context.Context, runID string) (domain.Report, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return domain.Report{}, ErrRunIDRequired
	}
	if s.store == nil {
		return domain.Report{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return s.store.LoadRun(ctx, strings.ToUpper(runID))
}
