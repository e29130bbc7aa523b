package order

import (
	"time"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
)

// Result is the final state of one order of a run.
type Result struct {
	RunID      string    `json:"runID"`
	OrderID    int64     `json:"orderID"`
	Trader     string    `json:"trader"`
	Stock      string    `json:"stock"`
	Side       string    `json:"side"`
	Quantity   int64     `json:"quantity"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recordedAt"`
}

// FromLedger converts ledger orders to result rows of the given run.
func FromLedger(runID string, orders []ledgerv1.Order, recordedAt time.Time) []*Result {
	results := make([]*Result, 0, len(orders))
	for _, o := range orders {
		results = append(results, &Result{
			RunID:      runID,
			OrderID:    int64(o.ID),
			Trader:     o.Trader,
			Stock:      o.Stock,
			Side:       o.Side.String(),
			Quantity:   o.Quantity,
			Status:     o.Status.String(),
			RecordedAt: recordedAt,
		})
	}
	return results
}
