package orderbook

import (
	"sort"
	"sync"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
)

// Book maps (stock, side) to a resting queue created on first use.
type Book struct {
	mu     sync.RWMutex
	queues map[orderbookv1.Key]*RestingQueue
}

var _ orderbookv1.Book = (*Book)(nil)

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{queues: make(map[orderbookv1.Key]*RestingQueue)}
}

// Queue returns the queue for stock and side, creating it if needed.
// Concurrent first calls for the same key get the same queue.
func (b *Book) Queue(stock string, side ledgerv1.Side) orderbookv1.RestingQueue {
	key := orderbookv1.Key{Stock: stock, Side: side}

	b.mu.RLock()
	q, ok := b.queues[key]
	b.mu.RUnlock()
	if ok {
		return q
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if q, ok = b.queues[key]; ok {
		return q
	}
	q = NewRestingQueue()
	b.queues[key] = q
	return q
}

// Lookup returns the queue for stock and side if it exists.
func (b *Book) Lookup(stock string, side ledgerv1.Side) (orderbookv1.RestingQueue, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.queues[orderbookv1.Key{Stock: stock, Side: side}]
	if !ok {
		return nil, false
	}
	return q, true
}

// Keys returns every known key sorted by stock, buy side first.
func (b *Book) Keys() []orderbookv1.Key {
	b.mu.RLock()
	keys := make([]orderbookv1.Key, 0, len(b.queues))
	for k := range b.queues {
		keys = append(keys, k)
	}
	b.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Stock == keys[j].Stock {
			return keys[i].Side < keys[j].Side
		}
		return keys[i].Stock < keys[j].Stock
	})
	return keys
}

// State returns a copy of every queue, sorted like Keys.
func (b *Book) State() []orderbookv1.QueueState {
	keys := b.Keys()
	states := make([]orderbookv1.QueueState, 0, len(keys))

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, k := range keys {
		if q, ok := b.queues[k]; ok {
			states = append(states, q.state(k))
		}
	}
	return states
}

// Reset drops every queue.
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queues = make(map[orderbookv1.Key]*RestingQueue)
}
