package engine

import (
	matchpublisherv1 "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ledger"
)

// Options holds the tunables and optional collaborators of an Engine.
type Options struct {
	// LedgerChunkSize is the number of orders per ledger storage chunk.
	LedgerChunkSize int
	// MatchPublisher receives one event per matched order. Optional.
	MatchPublisher matchpublisherv1.MatchPublisher
	// Book overrides the resting queue book. A new book is used when nil.
	Book orderbookv1.Book
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		LedgerChunkSize: ledger.DefaultChunkSize,
	}
}
