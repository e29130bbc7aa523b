package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	matchpublisherv1 "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1"
	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/exchange/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ledger"
	"github.com/muhammadchandra19/exchange/internal/usecase/matcher"
	"github.com/muhammadchandra19/exchange/internal/usecase/orderbook"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/util"
)

const (
	// ActivityIngestion names the activity that reads the feed into the ledger.
	ActivityIngestion = "ingestion"
	// ActivityMatching names the activity that matches ledger orders.
	ActivityMatching = "matching"
)

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("engine is already running")

// ExceptionRecord is a failure that ended one activity early.
type ExceptionRecord struct {
	Activity string
	Err      error
}

// Error implements error.
func (r ExceptionRecord) Error() string {
	return r.Activity + ": " + r.Err.Error()
}

// Unwrap returns the captured failure.
func (r ExceptionRecord) Unwrap() error {
	return r.Err
}

// Stats counts what happened during the last run.
type Stats struct {
	Ingested uint64
	Dropped  uint64
	Filled   uint64
	Duration time.Duration
}

// Engine runs ingestion and matching concurrently over one ledger and book.
type Engine struct {
	// Core components
	ledger      *ledger.Ledger
	book        orderbookv1.Book
	matcher     *matcher.Matcher
	orderReader orderreaderv1.OrderReader
	publisher   matchpublisherv1.MatchPublisher
	logger      *logger.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu         sync.RWMutex
	runID      string
	exceptions []ExceptionRecord
	duration   time.Duration

	dropped atomic.Uint64
	filled  atomic.Uint64
}

// NewEngine creates a new instance of Engine with the provided dependencies.
func NewEngine(orderReader orderreaderv1.OrderReader, log *logger.Logger) *Engine {
	return NewEngineWithOptions(orderReader, log, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options
func NewEngineWithOptions(orderReader orderreaderv1.OrderReader, log *logger.Logger, options *Options) *Engine {
	if options == nil {
		options = DefaultEngineOptions()
	}

	book := options.Book
	if book == nil {
		book = orderbook.NewBook()
	}
	l := ledger.NewLedger(ledger.WithChunkSize(options.LedgerChunkSize))

	log.Info("Ledger created", logger.Field{Key: "chunkSize", Value: l.ChunkSize()})

	return &Engine{
		ledger:      l,
		book:        book,
		matcher:     matcher.NewMatcher(l, book, log),
		orderReader: orderReader,
		publisher:   options.MatchPublisher,
		logger:      log,
	}
}

// Run processes the whole feed. It starts ingestion and matching, waits for
// both to finish and returns every captured ExceptionRecord combined, or nil.
// The ledger and book keep the results of the run until the next Run.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.reset()

	runID := ulid.Make().String()
	e.mu.Lock()
	e.runID = runID
	e.mu.Unlock()

	ctx = util.WithRunID(ctx, runID)
	sig := newSignal()
	start := time.Now()

	e.logger.InfoContext(ctx, "Run started")

	e.wg.Add(2)
	go e.runIngestion(util.WithActivity(ctx, ActivityIngestion), sig)
	go e.runMatching(util.WithActivity(ctx, ActivityMatching), sig)

	e.wg.Wait()

	e.mu.Lock()
	e.duration = time.Since(start)
	e.mu.Unlock()

	return e.report(ctx)
}

// report logs every captured failure and the run summary.
func (e *Engine) report(ctx context.Context) error {
	var errs error
	for _, rec := range e.Exceptions() {
		e.logger.ErrorContext(ctx, rec.Err,
			logger.Field{Key: "thread", Value: rec.Activity},
			logger.Field{Key: "action", Value: "report_exception"},
		)
		errs = multierr.Append(errs, rec)
	}

	stats := e.Stats()
	e.logger.InfoContext(ctx, "Run finished",
		logger.Field{Key: "ingested", Value: stats.Ingested},
		logger.Field{Key: "dropped", Value: stats.Dropped},
		logger.Field{Key: "filled", Value: stats.Filled},
		logger.Field{Key: "queues", Value: len(e.book.Keys())},
		logger.Field{Key: "exceptions", Value: len(multierr.Errors(errs))},
		logger.Field{Key: "duration", Value: stats.Duration.String()},
	)
	return errs
}

// capture records a failure that ended an activity.
func (e *Engine) capture(ctx context.Context, activity string, err error) {
	e.mu.Lock()
	e.exceptions = append(e.exceptions, ExceptionRecord{Activity: activity, Err: err})
	e.mu.Unlock()

	e.logger.WarnContext(ctx, "Activity ended early", logger.Field{Key: "error", Value: err.Error()})
}

// recoverActivity turns a panic in an activity into an ExceptionRecord.
// It must be deferred directly by the activity.
func (e *Engine) recoverActivity(ctx context.Context, activity string) {
	if r := recover(); r != nil {
		e.capture(ctx, activity, pkgerrors.TracerFromPanic(r))
	}
}

// Reset clears the ledger, the book and the last run's results.
// It has no effect while a run is in progress.
func (e *Engine) Reset() {
	if e.running.Load() {
		return
	}
	e.reset()
}

func (e *Engine) reset() {
	e.ledger.Reset()
	e.book.Reset()
	e.dropped.Store(0)
	e.filled.Store(0)

	e.mu.Lock()
	e.runID = ""
	e.exceptions = nil
	e.duration = 0
	e.mu.Unlock()
}

// Ledger returns the ledger of the current or last run.
func (e *Engine) Ledger() ledgerv1.Ledger {
	return e.ledger
}

// Book returns the resting queues of the current or last run.
func (e *Engine) Book() orderbookv1.Book {
	return e.book
}

// RunID returns the ID of the current or last run.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Exceptions returns the failures captured during the current or last run.
func (e *Engine) Exceptions() []ExceptionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]ExceptionRecord(nil), e.exceptions...)
}

// Stats returns the counters of the current or last run.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	duration := e.duration
	e.mu.RUnlock()

	return Stats{
		Ingested: e.ledger.Len(),
		Dropped:  e.dropped.Load(),
		Filled:   e.filled.Load(),
		Duration: duration,
	}
}

// Snapshot returns the state of the ledger and book of the last run.
func (e *Engine) Snapshot() *snapshotv1.Snapshot {
	return snapshotv1.NewSnapshot(
		e.RunID(),
		e.ledger.Orders(),
		e.book.State(),
		int(e.dropped.Load()),
		len(e.Exceptions()),
	)
}
