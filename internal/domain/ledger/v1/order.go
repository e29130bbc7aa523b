package ledgerv1

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned for an order ID that has not been published.
	ErrOrderNotFound = errors.New("order not found in ledger")
	// ErrInvalidQuantity is returned when an order without a positive quantity is appended.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrStatusReversal is returned when a filled order is asked to become open again.
	ErrStatusReversal = errors.New("order status cannot go back to open")
)

// Side is the side of the book an order belongs to.
type Side uint8

const (
	// Buy is the bid side.
	Buy Side = iota
	// Sell is the ask side.
	Sell
)

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// String returns the side name.
func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side by name.
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", text)
	}
	return nil
}

// Status is the fill status of an order.
type Status uint32

const (
	// Open orders still have quantity waiting to be matched.
	Open Status = iota
	// Success orders are fully matched.
	Success
)

// String returns the status name.
func (s Status) String() string {
	if s == Success {
		return "SUCCESS"
	}
	return "OPEN"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status by name.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "OPEN":
		*s = Open
	case "SUCCESS":
		*s = Success
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Order is a single order held by the ledger. ID equals its ledger index.
type Order struct {
	ID       uint64 `json:"id"`
	Trader   string `json:"trader"`
	Stock    string `json:"stock"`
	Quantity int64  `json:"quantity"`
	Side     Side   `json:"side"`
	Status   Status `json:"status"`
}

// NewOrder creates an open order. The ID is assigned by the ledger on append.
func NewOrder(trader, stock string, quantity int64, side Side) Order {
	return Order{
		Trader:   trader,
		Stock:    stock,
		Quantity: quantity,
		Side:     side,
		Status:   Open,
	}
}

// IsFilled reports whether the order has been fully matched.
func (o Order) IsFilled() bool {
	return o.Status == Success
}
