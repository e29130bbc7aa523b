package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/muhammadchandra19/exchange/internal/app/engine"
	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	orderrepo "github.com/muhammadchandra19/exchange/internal/infrastructure/postgresql/order"
	matchpublisher "github.com/muhammadchandra19/exchange/internal/usecase/match-publisher"
	orderreader "github.com/muhammadchandra19/exchange/internal/usecase/order-reader"
	"github.com/muhammadchandra19/exchange/internal/usecase/snapshot"
	"github.com/muhammadchandra19/exchange/pkg/config"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.LogLevel)))
	if err != nil {
		panic(err)
	}

	log = l
}

func main() {
	os.Exit(run())
}

func run() int {
	defer log.Sync() //nolint:errcheck

	// Cancel the run on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := newOrderReader()
	defer func() {
		if err := reader.Close(); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "close_order_reader"})
		}
	}()

	options := app.DefaultEngineOptions()
	options.LedgerChunkSize = cfg.LedgerChunkSize
	if cfg.MatchPublisher.Enabled {
		publisher := matchpublisher.NewPublisher(cfg.MatchPublisher, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error(err, logger.Field{Key: "action", Value: "close_match_publisher"})
			}
		}()
		options.MatchPublisher = publisher
	}

	engine := app.NewEngineWithOptions(reader, log, options)

	log.Info("Order matcher started", logger.Field{Key: "feedSource", Value: string(cfg.FeedSource)})

	runErr := engine.Run(ctx)

	// Results are kept even when the run was interrupted or failed.
	persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.RedisEnabled {
		storeSnapshot(persistCtx, engine)
	}
	if cfg.PostgresEnabled {
		storeResults(persistCtx, engine)
	}

	if runErr != nil {
		log.Error(runErr, logger.Field{Key: "action", Value: "run_engine"})
		return 1
	}

	log.Info("Order matcher finished", logger.Field{Key: "runID", Value: engine.RunID()})
	return 0
}

func newOrderReader() orderreaderv1.OrderReader {
	switch cfg.FeedSource {
	case config.FeedSourceKafka:
		return orderreader.NewKafkaReader(cfg.Kafka, log)
	default:
		return orderreader.NewCSVReader(cfg.FeedFile, log)
	}
}

func storeSnapshot(ctx context.Context, engine *app.Engine) {
	rclient := redis.NewClient(log, &cfg.Redis)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}
	defer func() {
		if err := rclient.Disconnect(ctx); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
		}
	}()

	store := snapshot.NewSnapshotStore(rclient, log)
	if err := store.Store(ctx, engine.Snapshot()); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "store_snapshot"})
	}
}

func storeResults(ctx context.Context, engine *app.Engine) {
	db, err := postgresql.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_postgres"})
		return
	}
	defer db.Close()

	repo := orderrepo.NewRepository(db, log)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "ensure_schema"})
		return
	}

	results := orderrepo.FromLedger(engine.RunID(), engine.Ledger().Orders(), time.Now().UTC())
	if err := repo.StoreBatch(ctx, engine.RunID(), results); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "store_results"})
	}
}
