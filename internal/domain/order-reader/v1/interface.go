package orderreaderv1

import "context"

// OrderReader yields raw order records from a feed, in feed order.
// ReadRecord returns io.EOF once the feed is exhausted, an error wrapping
// ErrMalformedRecord for a record that should be skipped, and an error
// wrapping ErrFeedUnavailable when the feed cannot be read at all.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderreaderv1_mock
type OrderReader interface {
	ReadRecord(ctx context.Context) (Record, error)
	// Close closes the reader
	Close() error
}
