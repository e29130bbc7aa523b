package orderbookv1

import (
	"fmt"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
)

// RestingEntry is unfilled quantity of an order waiting on one side of a stock.
type RestingEntry struct {
	Quantity int64  `json:"quantity"`
	OrderID  uint64 `json:"orderID"`
}

// String implements fmt.Stringer.
func (e RestingEntry) String() string {
	return fmt.Sprintf("{qty:%d order:%d}", e.Quantity, e.OrderID)
}

// Key identifies one resting queue.
type Key struct {
	Stock string        `json:"stock"`
	Side  ledgerv1.Side `json:"side"`
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Stock + "/" + k.Side.String()
}

// QueueState is a point-in-time copy of a resting queue.
type QueueState struct {
	Key      Key            `json:"key"`
	Entries  []RestingEntry `json:"entries"`
	Leftover *RestingEntry  `json:"leftover,omitempty"`
}
