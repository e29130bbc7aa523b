package order

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
)

const tableName = "order_results"

const schemaQuery = `CREATE TABLE IF NOT EXISTS order_results (
	run_id      TEXT        NOT NULL,
	order_id    BIGINT      NOT NULL,
	trader      TEXT        NOT NULL,
	stock       TEXT        NOT NULL,
	side        TEXT        NOT NULL,
	quantity    BIGINT      NOT NULL,
	status      TEXT        NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, order_id)
)`

const deleteRunQuery = `DELETE FROM order_results WHERE run_id = $1`

var resultColumns = []string{
	"run_id",
	"order_id",
	"trader",
	"stock",
	"side",
	"quantity",
	"status",
	"recorded_at",
}

// Repository is the repository for order results.
type repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

var _ ResultRepository = (*repository)(nil)

// NewRepository creates a new repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface) *repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the result table if it does not exist.
func (r *repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaQuery); err != nil {
		return errors.NewErrorDetailsWithCause("cannot create result table", errors.PostgresSchemaError, tableName, err)
	}
	return nil
}

// StoreBatch replaces the rows of a run inside one transaction.
func (r *repository) StoreBatch(ctx context.Context, runID string, results []*Result) error {
	return postgresql.WithTx(ctx, r.db, func(ctx context.Context) error {
		if _, err := r.db.Exec(ctx, deleteRunQuery, runID); err != nil {
			return errors.TracerFromError(err)
		}

		copyCount, err := r.db.CopyFrom(ctx, pgx.Identifier{tableName}, resultColumns,
			pgx.CopyFromSlice(len(results), func(i int) ([]any, error) {
				result := results[i]
				return []any{
					result.RunID,
					result.OrderID,
					result.Trader,
					result.Stock,
					result.Side,
					result.Quantity,
					result.Status,
					result.RecordedAt,
				}, nil
			}))
		if err != nil {
			return errors.NewErrorDetailsWithCause(fmt.Sprintf("cannot copy results of run %s", runID), errors.PostgresCopyError, tableName, err)
		}

		r.logger.Info("Inserted batch of order results",
			logger.Field{Key: "copyCount", Value: copyCount},
		)
		return nil
	})
}
