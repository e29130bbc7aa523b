package orderbookv1

import ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"

// RestingQueue is the FIFO of resting entries for one stock and side,
// plus a single leftover slot that is resolved before the FIFO.
type RestingQueue interface {
	PushBack(entry RestingEntry)
	PopFront() (RestingEntry, bool)
	Len() int
	Entries() []RestingEntry

	SetLeftover(entry RestingEntry)
	ClearLeftover()
	HasLeftover() bool
	// PeekLeftover returns the leftover entry and whether one is set.
	PeekLeftover() (RestingEntry, bool)
}

// Book maps (stock, side) to its resting queue.
type Book interface {
	// Queue returns the queue for the key, creating it on first use.
	Queue(stock string, side ledgerv1.Side) RestingQueue
	// Lookup returns the queue for the key without creating it.
	Lookup(stock string, side ledgerv1.Side) (RestingQueue, bool)
	// Keys returns every known key sorted by stock then side.
	Keys() []Key
	// State returns a copy of every queue sorted by key.
	State() []QueueState
	Reset()
}
