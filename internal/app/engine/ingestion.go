package engine

import (
	"context"
	"errors"
	"io"

	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// runIngestion reads the feed into the ledger until it is exhausted,
// unreadable or the run is cancelled. The feed is always marked exhausted on
// return so matching can finish.
func (e *Engine) runIngestion(ctx context.Context, sig *signal) {
	defer e.wg.Done()
	defer sig.exhaust()
	defer e.recoverActivity(ctx, ActivityIngestion)

	e.logger.InfoContext(ctx, "Reading order feed")

	for {
		record, err := e.orderReader.ReadRecord(ctx)
		if err != nil {
			if !e.handleReadError(ctx, err) {
				break
			}
			continue
		}

		order, err := orderreaderv1.ParseRecord(record)
		if err != nil {
			e.drop(ctx, record, err)
			continue
		}

		e.logger.DebugContext(ctx, "Order parsed from feed",
			logger.Field{Key: "trader", Value: order.Trader},
			logger.Field{Key: "stock", Value: order.Stock},
			logger.Field{Key: "quantity", Value: order.Quantity},
			logger.Field{Key: "side", Value: order.Side.String()},
		)

		id, err := e.ledger.Append(order)
		if err != nil {
			e.drop(ctx, record, err)
			continue
		}
		sig.publish(id + 1)

		e.logger.DebugContext(ctx, "Order placed", logger.Field{Key: "orderID", Value: id})
	}

	e.logger.InfoContext(ctx, "Order feed reading ended",
		logger.Field{Key: "ingested", Value: e.ledger.Len()},
		logger.Field{Key: "dropped", Value: e.dropped.Load()},
	)
}

// handleReadError reports whether ingestion should keep reading after err.
func (e *Engine) handleReadError(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, io.EOF):
		e.logger.InfoContext(ctx, "Order feed exhausted")
		return false
	case errors.Is(err, orderreaderv1.ErrMalformedRecord):
		e.drop(ctx, orderreaderv1.Record{}, err)
		return true
	case ctx.Err() != nil:
		e.logger.WarnContext(ctx, "Ingestion cancelled", logger.Field{Key: "error", Value: ctx.Err().Error()})
		return false
	default:
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "read_order_feed"})
		return false
	}
}

// drop logs a record that cannot become an order.
func (e *Engine) drop(ctx context.Context, record orderreaderv1.Record, err error) {
	e.dropped.Add(1)
	e.logger.WarnContext(ctx, "Order record dropped",
		logger.Field{Key: "record", Value: record.String()},
		logger.Field{Key: "error", Value: err.Error()},
	)
}
