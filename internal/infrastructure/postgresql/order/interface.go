package order

import "context"

//go:generate mockgen -source=interface.go -destination=mock/repository_mock.go -package=mock

// ResultRepository stores the final order states of a run.
type ResultRepository interface {
	EnsureSchema(ctx context.Context) error
	// StoreBatch replaces the rows of runID with results.
	StoreBatch(ctx context.Context, runID string, results []*Result) error
}
