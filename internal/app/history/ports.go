package history

import (
	"context"

	"github.com/osvaldoandrade/envprov/internal/domain"
)

type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Report, error)
	LoadRun(ctx context.Context, runID string) (domain.Report, error)
}
