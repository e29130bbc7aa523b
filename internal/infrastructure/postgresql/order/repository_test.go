package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	mockPg "github.com/muhammadchandra19/exchange/pkg/postgresql/mock"
)

// fakeTx records the transaction outcome. Other pgx.Tx methods are not used.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

func sampleResults(now time.Time) []*Result {
	filled := ledgerv1.NewOrder("T2", "X", 4, ledgerv1.Sell)
	filled.ID = 1
	filled.Status = ledgerv1.Success
	return FromLedger("run-1", []ledgerv1.Order{ledgerv1.NewOrder("T1", "X", 10, ledgerv1.Buy), filled}, now)
}

func TestFromLedger(t *testing.T) {
	now := time.Now()
	results := sampleResults(now)

	require.Len(t, results, 2)
	assert.Equal(t, &Result{
		RunID:      "run-1",
		OrderID:    1,
		Trader:     "T2",
		Stock:      "X",
		Side:       "SELL",
		Quantity:   4,
		Status:     "SUCCESS",
		RecordedAt: now,
	}, results[1])
	assert.Equal(t, "OPEN", results[0].Status)
}

func TestRepository_EnsureSchema(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name     string
		mockFn   func(mockpg *mockPg.MockPostgreSQLClient)
		assertFn func(t *testing.T, err error)
	}{
		{
			name: "success",
			mockFn: func(mockpg *mockPg.MockPostgreSQLClient) {
				mockpg.EXPECT().Exec(ctx, schemaQuery).Return(pgconn.CommandTag{}, nil)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "error",
			mockFn: func(mockpg *mockPg.MockPostgreSQLClient) {
				mockpg.EXPECT().Exec(ctx, schemaQuery).Return(pgconn.CommandTag{}, errors.New("permission denied"))
			},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.True(t, pkgerrors.ErrorCodeEquals(err, pkgerrors.PostgresSchemaError.String()))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockpg := mockPg.NewMockPostgreSQLClient(ctrl)
			mockLog := mockLogger.NewMockInterface(ctrl)
			tc.mockFn(mockpg)

			repo := NewRepository(mockpg, mockLog)
			tc.assertFn(t, repo.EnsureSchema(ctx))
		})
	}
}

func TestRepository_StoreBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	testCases := []struct {
		name     string
		mockFn   func(mockpg *mockPg.MockPostgreSQLClient, mockLog *mockLogger.MockInterface, tx *fakeTx)
		assertFn func(t *testing.T, err error, tx *fakeTx)
	}{
		{
			name: "success",
			mockFn: func(mockpg *mockPg.MockPostgreSQLClient, mockLog *mockLogger.MockInterface, tx *fakeTx) {
				mockpg.EXPECT().Begin(ctx).Return(tx, nil)
				mockpg.EXPECT().Exec(gomock.Any(), deleteRunQuery, "run-1").Return(pgconn.CommandTag{}, nil)
				mockpg.EXPECT().
					CopyFrom(gomock.Any(), pgx.Identifier{"order_results"}, resultColumns, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
						var rows [][]any
						for src.Next() {
							values, err := src.Values()
							require.NoError(t, err)
							rows = append(rows, values)
						}
						require.Len(t, rows, 2)
						assert.Equal(t, []any{"run-1", int64(1), "T2", "X", "SELL", int64(4), "SUCCESS", now}, rows[1])
						return int64(len(rows)), nil
					})
				mockLog.EXPECT().Info("Inserted batch of order results", logger.Field{Key: "copyCount", Value: int64(2)})
			},
			assertFn: func(t *testing.T, err error, tx *fakeTx) {
				assert.NoError(t, err)
				assert.True(t, tx.committed)
				assert.False(t, tx.rolledBack)
			},
		},
		{
			name: "copy error rolls back",
			mockFn: func(mockpg *mockPg.MockPostgreSQLClient, mockLog *mockLogger.MockInterface, tx *fakeTx) {
				mockpg.EXPECT().Begin(ctx).Return(tx, nil)
				mockpg.EXPECT().Exec(gomock.Any(), deleteRunQuery, "run-1").Return(pgconn.CommandTag{}, nil)
				mockpg.EXPECT().
					CopyFrom(gomock.Any(), pgx.Identifier{"order_results"}, resultColumns, gomock.Any()).
					Return(int64(0), errors.New("copy failed"))
			},
			assertFn: func(t *testing.T, err error, tx *fakeTx) {
				assert.Error(t, err)
				assert.True(t, pkgerrors.ErrorCodeEquals(err, pkgerrors.PostgresCopyError.String()))
				assert.False(t, tx.committed)
				assert.True(t, tx.rolledBack)
			},
		},
		{
			name: "delete error rolls back",
			mockFn: func(mockpg *mockPg.MockPostgreSQLClient, mockLog *mockLogger.MockInterface, tx *fakeTx) {
				mockpg.EXPECT().Begin(ctx).Return(tx, nil)
				mockpg.EXPECT().Exec(gomock.Any(), deleteRunQuery, "run-1").Return(pgconn.CommandTag{}, errors.New("lock timeout"))
			},
			assertFn: func(t *testing.T, err error, tx *fakeTx) {
				assert.Error(t, err)
				assert.True(t, tx.rolledBack)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockpg := mockPg.NewMockPostgreSQLClient(ctrl)
			mockLog := mockLogger.NewMockInterface(ctrl)
			tx := &fakeTx{}
			tc.mockFn(mockpg, mockLog, tx)

			repo := NewRepository(mockpg, mockLog)
			err := repo.StoreBatch(ctx, "run-1", sampleResults(now))
			tc.assertFn(t, err, tx)
		})
	}
}
