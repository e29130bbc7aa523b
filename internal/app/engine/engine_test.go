package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	matchpublisherv1 "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1"
	matchpublishermock "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1/mock"
	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	orderreadermock "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1/mock"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ledger"
	"github.com/muhammadchandra19/exchange/internal/usecase/matcher"
	orderreader "github.com/muhammadchandra19/exchange/internal/usecase/order-reader"
	"github.com/muhammadchandra19/exchange/internal/usecase/orderbook"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Test fixtures and helpers
type testFixture struct {
	ctrl            *gomock.Controller
	mockOrderReader *orderreadermock.MockOrderReader
	mockPublisher   *matchpublishermock.MockMatchPublisher
	logger          *logger.Logger
	logs            *observer.ObservedLogs
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zapcore.InfoLevel)

	return &testFixture{
		ctrl:            ctrl,
		mockOrderReader: orderreadermock.NewMockOrderReader(ctrl),
		mockPublisher:   matchpublishermock.NewMockMatchPublisher(ctrl),
		logger:          logger.NewFromZap(zap.New(core)),
		logs:            logs,
	}
}

// csvEngine creates an engine reading the given CSV feed.
func (f *testFixture) csvEngine(feed string, options *Options) *Engine {
	reader := orderreader.NewCSVReaderFrom(strings.NewReader(feed), f.logger)
	return NewEngineWithOptions(reader, f.logger, options)
}

func statuses(e *Engine) []ledgerv1.Status {
	var out []ledgerv1.Status
	for _, o := range e.Ledger().Orders() {
		out = append(out, o.Status)
	}
	return out
}

func queueState(e *Engine, stock string, side ledgerv1.Side) orderbookv1.QueueState {
	for _, s := range e.Book().State() {
		if s.Key.Stock == stock && s.Key.Side == side {
			return s
		}
	}
	return orderbookv1.QueueState{Key: orderbookv1.Key{Stock: stock, Side: side}}
}

// panicBook panics when the queue of one stock is resolved.
type panicBook struct {
	orderbookv1.Book
	stock string
}

func (b panicBook) Queue(stock string, side ledgerv1.Side) orderbookv1.RestingQueue {
	if stock == b.stock {
		panic("corrupt book")
	}
	return b.Book.Queue(stock, side)
}

func TestEngine_Scenarios(t *testing.T) {
	testCases := []struct {
		name     string
		feed     string
		statuses []ledgerv1.Status
		assertFn func(t *testing.T, e *Engine)
	}{
		{
			name:     "exact fill",
			feed:     "T1,X,10,Buy\nT2,X,10,Sell\n",
			statuses: []ledgerv1.Status{ledgerv1.Success, ledgerv1.Success},
			assertFn: func(t *testing.T, e *Engine) {
				for _, s := range e.Book().State() {
					assert.Empty(t, s.Entries)
					assert.Nil(t, s.Leftover)
				}
			},
		},
		{
			name:     "partial fill leaves leftover",
			feed:     "T1,X,10,Buy\nT2,X,4,Sell\n",
			statuses: []ledgerv1.Status{ledgerv1.Open, ledgerv1.Success},
			assertFn: func(t *testing.T, e *Engine) {
				buys := queueState(e, "X", ledgerv1.Buy)
				require.NotNil(t, buys.Leftover)
				assert.Equal(t, orderbookv1.RestingEntry{Quantity: 6, OrderID: 0}, *buys.Leftover)
			},
		},
		{
			name:     "leftover resolved exactly",
			feed:     "T1,X,10,Buy\nT2,X,4,Sell\nT3,X,6,Sell\n",
			statuses: []ledgerv1.Status{ledgerv1.Success, ledgerv1.Success, ledgerv1.Success},
			assertFn: func(t *testing.T, e *Engine) {
				for _, s := range e.Book().State() {
					assert.Empty(t, s.Entries)
					assert.Nil(t, s.Leftover)
				}
			},
		},
		{
			name:     "incoming rests remainder",
			feed:     "T1,X,5,Buy\nT2,X,8,Sell\n",
			statuses: []ledgerv1.Status{ledgerv1.Success, ledgerv1.Open},
			assertFn: func(t *testing.T, e *Engine) {
				sells := queueState(e, "X", ledgerv1.Sell)
				assert.Equal(t, []orderbookv1.RestingEntry{{Quantity: 3, OrderID: 1}}, sells.Entries)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			e := f.csvEngine(tc.feed, nil)

			require.NoError(t, e.Run(context.Background()))
			assert.Equal(t, tc.statuses, statuses(e))
			tc.assertFn(t, e)
		})
	}
}

func TestEngine_MalformedRecordIsSkipped(t *testing.T) {
	f := setupTestFixture(t)
	e := f.csvEngine("T1,X,10,Buy\nT9,X,abc,Sell\nT2,X,10,Sell\nT8,X\n", nil)

	require.NoError(t, e.Run(context.Background()))

	orders := e.Ledger().Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(0), orders[0].ID)
	assert.Equal(t, "T1", orders[0].Trader)
	assert.Equal(t, uint64(1), orders[1].ID)
	assert.Equal(t, "T2", orders[1].Trader)
	assert.Equal(t, []ledgerv1.Status{ledgerv1.Success, ledgerv1.Success}, statuses(e))

	stats := e.Stats()
	assert.Equal(t, uint64(2), stats.Ingested)
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Filled)
	assert.Equal(t, 2, f.logs.FilterMessage("Order record dropped").Len())
}

func TestEngine_EmptyFeedTerminates(t *testing.T) {
	f := setupTestFixture(t)
	e := f.csvEngine("", nil)

	done := make(chan error)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not terminate")
	}
	assert.Equal(t, uint64(0), e.Ledger().Len())
	assert.NotEmpty(t, e.RunID())
}

func TestEngine_FeedUnavailable(t *testing.T) {
	f := setupTestFixture(t)
	f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).
		Return(orderreaderv1.Record{}, fmt.Errorf("%w: open orders.csv: no such file", orderreaderv1.ErrFeedUnavailable))

	e := NewEngine(f.mockOrderReader, f.logger)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(0), e.Ledger().Len())
	assert.Empty(t, e.Exceptions())
}

func TestEngine_FeedFailsMidway(t *testing.T) {
	f := setupTestFixture(t)
	gomock.InOrder(
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).Return(orderreaderv1.NewRecord("T1", "X", "10", "Buy"), nil),
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).Return(orderreaderv1.NewRecord("T2", "X", "4", "Sell"), nil),
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).Return(orderreaderv1.Record{}, errors.New("connection reset")),
	)

	e := NewEngine(f.mockOrderReader, f.logger)

	require.NoError(t, e.Run(context.Background()))
	// Orders read before the failure are still matched.
	assert.Equal(t, []ledgerv1.Status{ledgerv1.Open, ledgerv1.Success}, statuses(e))
}

func TestEngine_IngestionPanicIsCaptured(t *testing.T) {
	f := setupTestFixture(t)
	gomock.InOrder(
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).Return(orderreaderv1.NewRecord("T1", "X", "10", "Buy"), nil),
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).DoAndReturn(func(ctx context.Context) (orderreaderv1.Record, error) {
			panic("feed decoder exploded")
		}),
	)

	e := NewEngine(f.mockOrderReader, f.logger)
	err := e.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion: panic: feed decoder exploded")

	exceptions := e.Exceptions()
	require.Len(t, exceptions, 1)
	assert.Equal(t, ActivityIngestion, exceptions[0].Activity)

	// Matching still drained what was ingested and terminated.
	assert.Equal(t, uint64(1), e.Ledger().Len())
	assert.Equal(t, []orderbookv1.RestingEntry{{Quantity: 10, OrderID: 0}}, queueState(e, "X", ledgerv1.Buy).Entries)

	reported := f.logs.FilterField(zap.String("thread", ActivityIngestion))
	assert.Equal(t, 1, reported.Len())
}

func TestEngine_MatchingPanicIsCaptured(t *testing.T) {
	f := setupTestFixture(t)
	options := DefaultEngineOptions()
	options.Book = panicBook{Book: orderbook.NewBook(), stock: "BOOM"}

	e := f.csvEngine("T1,X,10,Buy\nT2,BOOM,5,Sell\nT3,X,10,Sell\nT4,Y,1,Buy\n", options)
	err := e.Run(context.Background())

	require.Error(t, err)
	exceptions := e.Exceptions()
	require.Len(t, exceptions, 1)
	assert.Equal(t, ActivityMatching, exceptions[0].Activity)
	assert.Contains(t, exceptions[0].Error(), "corrupt book")

	// Ingestion is unaffected and reads the whole feed.
	assert.Equal(t, uint64(4), e.Ledger().Len())
	// Nothing after the failing order was matched.
	assert.Equal(t, []ledgerv1.Status{ledgerv1.Open, ledgerv1.Open, ledgerv1.Open, ledgerv1.Open}, statuses(e))
}

func TestEngine_BothActivitiesFail(t *testing.T) {
	f := setupTestFixture(t)
	gomock.InOrder(
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).Return(orderreaderv1.NewRecord("T1", "BOOM", "1", "Buy"), nil),
		f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).DoAndReturn(func(ctx context.Context) (orderreaderv1.Record, error) {
			panic("reader broke")
		}),
	)

	options := DefaultEngineOptions()
	options.Book = panicBook{Book: orderbook.NewBook(), stock: "BOOM"}
	e := NewEngineWithOptions(f.mockOrderReader, f.logger, options)

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	activities := map[string]bool{}
	for _, rec := range e.Exceptions() {
		activities[rec.Activity] = true
	}
	assert.Equal(t, map[string]bool{ActivityIngestion: true, ActivityMatching: true}, activities)
	assert.Equal(t, 2, f.logs.FilterField(zap.String("action", "report_exception")).Len())
}

func TestEngine_PublishesMatchEvents(t *testing.T) {
	f := setupTestFixture(t)

	var (
		mu     sync.Mutex
		events []*matchpublisherv1.MatchEvent
	)
	f.mockPublisher.EXPECT().PublishMatchEvents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, batch ...*matchpublisherv1.MatchEvent) error {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, batch...)
			return nil
		}).AnyTimes()

	options := DefaultEngineOptions()
	options.MatchPublisher = f.mockPublisher
	e := f.csvEngine("T1,X,10,Buy\nT2,X,4,Sell\nT3,X,6,Sell\n", options)

	require.NoError(t, e.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, uint64(i), ev.OrderID)
		assert.Equal(t, e.RunID(), ev.RunID)
	}
	assert.False(t, events[0].Filled)
	assert.True(t, events[1].Filled)
	assert.Empty(t, events[1].Completed)
	assert.True(t, events[2].Filled)
	assert.Equal(t, []uint64{0}, events[2].Completed)
}

func TestEngine_PublishFailureDoesNotStopMatching(t *testing.T) {
	f := setupTestFixture(t)
	f.mockPublisher.EXPECT().PublishMatchEvents(gomock.Any(), gomock.Any()).
		Return(errors.New("broker down")).MinTimes(1)

	options := DefaultEngineOptions()
	options.MatchPublisher = f.mockPublisher
	e := f.csvEngine("T1,X,10,Buy\nT2,X,10,Sell\n", options)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []ledgerv1.Status{ledgerv1.Success, ledgerv1.Success}, statuses(e))
}

func TestEngine_RunResetsPreviousRun(t *testing.T) {
	f := setupTestFixture(t)
	e := f.csvEngine("T1,X,10,Buy\n", nil)

	require.NoError(t, e.Run(context.Background()))
	firstRun := e.RunID()
	assert.Equal(t, uint64(1), e.Ledger().Len())
	assert.Len(t, e.Book().Keys(), 2)

	// The reader is exhausted, so the second run ingests nothing.
	require.NoError(t, e.Run(context.Background()))
	assert.NotEqual(t, firstRun, e.RunID())
	assert.Equal(t, uint64(0), e.Ledger().Len())
	assert.Empty(t, e.Book().Keys())

	e.Reset()
	assert.Empty(t, e.RunID())
}

func TestEngine_CancelAndAlreadyRunning(t *testing.T) {
	f := setupTestFixture(t)
	f.mockOrderReader.EXPECT().ReadRecord(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (orderreaderv1.Record, error) {
			<-ctx.Done()
			return orderreaderv1.Record{}, ctx.Err()
		})

	e := NewEngine(f.mockOrderReader, f.logger)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, e.running.Load, time.Second, time.Millisecond)
	assert.ErrorIs(t, e.Run(context.Background()), ErrAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestEngine_Snapshot(t *testing.T) {
	f := setupTestFixture(t)
	e := f.csvEngine("T1,X,10,Buy\nT2,X,4,Sell\nbad\n", nil)

	require.NoError(t, e.Run(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, e.RunID(), snap.RunID)
	assert.Equal(t, 2, snap.Summary.Ingested)
	assert.Equal(t, 1, snap.Summary.Dropped)
	assert.Equal(t, 1, snap.Summary.Filled)
	assert.Equal(t, 1, snap.Summary.Open)
	assert.Len(t, snap.Orders, 2)
	assert.Len(t, snap.Queues, 2)
}

// The concurrent pipeline must produce exactly what matching the ledger
// sequentially produces.
func TestEngine_LargeFeedMatchesSequentialReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	stocks := []string{"AAPL", "MSFT", "GOOG", "TSLA"}

	var feed strings.Builder
	valid := 0
	for i := 0; i < 5000; i++ {
		if i%97 == 0 {
			fmt.Fprintf(&feed, "bad%d,%s,%s,Buy\n", i, stocks[0], "x")
			continue
		}
		side := "Buy"
		if rng.Intn(2) == 0 {
			side = "Sell"
		}
		fmt.Fprintf(&feed, "T%d,%s,%d,%s\n", i, stocks[rng.Intn(len(stocks))], rng.Intn(50)+1, side)
		valid++
	}

	f := setupTestFixture(t)
	options := DefaultEngineOptions()
	options.LedgerChunkSize = 64
	e := f.csvEngine(feed.String(), options)
	require.NoError(t, e.Run(context.Background()))

	orders := e.Ledger().Orders()
	require.Len(t, orders, valid)

	replayLedger := ledger.NewLedger()
	replayBook := orderbook.NewBook()
	replay := matcher.NewMatcher(replayLedger, replayBook, logger.NewNop())
	for i, o := range orders {
		require.Equal(t, uint64(i), o.ID)
		id, err := replayLedger.Append(ledgerv1.NewOrder(o.Trader, o.Stock, o.Quantity, o.Side))
		require.NoError(t, err)
		_, err = replay.Match(context.Background(), id)
		require.NoError(t, err)
	}

	assert.Equal(t, replayLedger.Orders(), orders)
	assert.Equal(t, replayBook.State(), e.Book().State())
}

func TestExceptionRecord_Unwrap(t *testing.T) {
	rec := ExceptionRecord{Activity: ActivityMatching, Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, rec, io.ErrUnexpectedEOF)
	assert.Equal(t, "matching: unexpected EOF", rec.Error())
}
