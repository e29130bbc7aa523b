package snapshotv1

import (
	"time"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
)

// LatestRunID addresses the most recently stored snapshot.
const LatestRunID = "latest"

// Snapshot is the state of the ledger and resting queues at the end of a run.
type Snapshot struct {
	RunID     string                   `json:"runID"`
	CreatedAt time.Time                `json:"createdAt"`
	Summary   Summary                  `json:"summary"`
	Orders    []ledgerv1.Order         `json:"orders"`
	Queues    []orderbookv1.QueueState `json:"queues"`
}

// Summary counts the outcome of a run.
type Summary struct {
	Ingested int `json:"ingested"`
	Dropped  int `json:"dropped"`
	Filled   int `json:"filled"`
	Open     int `json:"open"`
	Failures int `json:"failures"`
}

// NewSnapshot builds a snapshot and computes the filled and open counts from orders.
func NewSnapshot(runID string, orders []ledgerv1.Order, queues []orderbookv1.QueueState, dropped, failures int) *Snapshot {
	s := &Snapshot{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Orders:    orders,
		Queues:    queues,
		Summary: Summary{
			Ingested: len(orders),
			Dropped:  dropped,
			Failures: failures,
		},
	}
	for _, o := range orders {
		if o.IsFilled() {
			s.Summary.Filled++
		} else {
			s.Summary.Open++
		}
	}
	return s
}
