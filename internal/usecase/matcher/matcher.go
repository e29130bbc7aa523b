package matcher

import (
	"context"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Result is the outcome of matching one incoming order.
type Result struct {
	OrderID uint64
	// Filled reports whether the incoming order became fully matched.
	Filled bool
	// Completed lists the resting orders this match completed, in fill order.
	Completed []uint64
	// Rested is the quantity left resting on the incoming order's own side.
	Rested int64
}

// Matcher matches incoming orders against the opposite side of their stock.
// It is not safe for concurrent use; all matching runs on one goroutine.
type Matcher struct {
	ledger ledgerv1.Ledger
	book   orderbookv1.Book
	logger *logger.Logger
}

// NewMatcher creates a matcher over the given ledger and book.
func NewMatcher(ledger ledgerv1.Ledger, book orderbookv1.Book, log *logger.Logger) *Matcher {
	return &Matcher{
		ledger: ledger,
		book:   book,
		logger: log,
	}
}

// Match matches the order with the given ID.
//
// A leftover on the opposing queue is always resolved before its FIFO is
// touched. Quantity that cannot be matched rests on the order's own side.
func (m *Matcher) Match(ctx context.Context, orderID uint64) (Result, error) {
	order, err := m.ledger.At(orderID)
	if err != nil {
		return Result{}, errors.TracerFromError(err)
	}

	m.logger.DebugContext(ctx, "matching order",
		logger.Field{Key: "orderID", Value: order.ID},
		logger.Field{Key: "trader", Value: order.Trader},
		logger.Field{Key: "stock", Value: order.Stock},
		logger.Field{Key: "side", Value: order.Side.String()},
		logger.Field{Key: "quantity", Value: order.Quantity},
	)

	res := Result{OrderID: order.ID}
	opposing := m.book.Queue(order.Stock, order.Side.Opposite())
	remaining := order.Quantity

	if leftover, ok := opposing.PeekLeftover(); ok {
		m.logger.DebugContext(ctx, "resolving leftover",
			logger.Field{Key: "orderID", Value: order.ID},
			logger.Field{Key: "leftover", Value: leftover.String()},
		)

		remaining -= leftover.Quantity
		if remaining < 0 {
			opposing.SetLeftover(orderbookv1.RestingEntry{Quantity: -remaining, OrderID: leftover.OrderID})
			return m.filled(ctx, res)
		}

		opposing.ClearLeftover()
		if err := m.complete(ctx, &res, leftover.OrderID); err != nil {
			return res, err
		}
		if remaining == 0 {
			return m.filled(ctx, res)
		}
	}

	for remaining > 0 {
		resting, ok := opposing.PopFront()
		if !ok {
			m.book.Queue(order.Stock, order.Side).PushBack(orderbookv1.RestingEntry{Quantity: remaining, OrderID: order.ID})
			res.Rested = remaining

			m.logger.DebugContext(ctx, "order resting",
				logger.Field{Key: "orderID", Value: order.ID},
				logger.Field{Key: "stock", Value: order.Stock},
				logger.Field{Key: "side", Value: order.Side.String()},
				logger.Field{Key: "quantity", Value: remaining},
			)
			return res, nil
		}

		remaining -= resting.Quantity
		if remaining < 0 {
			opposing.SetLeftover(orderbookv1.RestingEntry{Quantity: -remaining, OrderID: resting.OrderID})
			m.logger.DebugContext(ctx, "leftover created",
				logger.Field{Key: "orderID", Value: resting.OrderID},
				logger.Field{Key: "quantity", Value: -remaining},
			)
			return m.filled(ctx, res)
		}

		if err := m.complete(ctx, &res, resting.OrderID); err != nil {
			return res, err
		}
	}

	return m.filled(ctx, res)
}

// complete marks a resting order as filled.
func (m *Matcher) complete(ctx context.Context, res *Result, restingID uint64) error {
	if _, err := m.ledger.SetStatus(restingID, ledgerv1.Success); err != nil {
		return errors.TracerFromError(err)
	}
	res.Completed = append(res.Completed, restingID)

	m.logger.DebugContext(ctx, "resting order filled", logger.Field{Key: "orderID", Value: restingID})
	return nil
}

// filled marks the incoming order as filled.
func (m *Matcher) filled(ctx context.Context, res Result) (Result, error) {
	if _, err := m.ledger.SetStatus(res.OrderID, ledgerv1.Success); err != nil {
		return res, errors.TracerFromError(err)
	}
	res.Filled = true

	m.logger.DebugContext(ctx, "incoming order filled",
		logger.Field{Key: "orderID", Value: res.OrderID},
		logger.Field{Key: "completed", Value: res.Completed},
	)
	return res, nil
}
