package matchpublisherv1

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
)

// MatchEvent describes the outcome of matching one incoming order.
type MatchEvent struct {
	EventID   string        `json:"eventID"`
	RunID     string        `json:"runID"`
	OrderID   uint64        `json:"orderID"`
	Trader    string        `json:"trader"`
	Stock     string        `json:"stock"`
	Side      ledgerv1.Side `json:"side"`
	Quantity  int64         `json:"quantity"`
	Filled    bool          `json:"filled"`
	Completed []uint64      `json:"completed,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// CreateFromOrder creates a match event for an incoming order.
// completed lists the resting orders the match completed.
func CreateFromOrder(runID string, order ledgerv1.Order, filled bool, completed []uint64) *MatchEvent {
	now := time.Now().UTC()
	return &MatchEvent{
		EventID:   ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		RunID:     runID,
		OrderID:   order.ID,
		Trader:    order.Trader,
		Stock:     order.Stock,
		Side:      order.Side,
		Quantity:  order.Quantity,
		Filled:    filled,
		Completed: completed,
		Timestamp: now,
	}
}

// ToBytes converts the match event to a byte array.
func ToBytes(matchEvent *MatchEvent) []byte {
	json, err := json.Marshal(matchEvent)
	if err != nil {
		return nil
	}

	return json
}

// FromBytes converts a byte array to a match event.
func FromBytes(data []byte) *MatchEvent {
	var matchEvent MatchEvent
	err := json.Unmarshal(data, &matchEvent)
	if err != nil {
		return nil
	}
	return &matchEvent
}
