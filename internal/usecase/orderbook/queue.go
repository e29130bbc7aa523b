package orderbook

import (
	"sync"

	"github.com/eapache/queue"

	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
)

// RestingQueue holds the resting entries of one stock and side.
// Every method is safe for concurrent use.
type RestingQueue struct {
	mu          sync.Mutex
	fifo        *queue.Queue
	leftover    orderbookv1.RestingEntry
	hasLeftover bool
}

var _ orderbookv1.RestingQueue = (*RestingQueue)(nil)

// NewRestingQueue creates an empty queue.
func NewRestingQueue() *RestingQueue {
	return &RestingQueue{fifo: queue.New()}
}

// PushBack appends an entry to the FIFO.
func (q *RestingQueue) PushBack(entry orderbookv1.RestingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.fifo.Add(entry)
}

// PopFront removes and returns the oldest FIFO entry.
func (q *RestingQueue) PopFront() (orderbookv1.RestingEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.fifo.Length() == 0 {
		return orderbookv1.RestingEntry{}, false
	}
	return q.fifo.Remove().(orderbookv1.RestingEntry), true
}

// Len returns the number of FIFO entries. The leftover is not counted.
func (q *RestingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.fifo.Length()
}

// Entries returns the FIFO entries, oldest first.
func (q *RestingQueue) Entries() []orderbookv1.RestingEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]orderbookv1.RestingEntry, q.fifo.Length())
	for i := range entries {
		entries[i] = q.fifo.Get(i).(orderbookv1.RestingEntry)
	}
	return entries
}

// SetLeftover replaces the leftover entry.
func (q *RestingQueue) SetLeftover(entry orderbookv1.RestingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.leftover = entry
	q.hasLeftover = true
}

// ClearLeftover empties the leftover slot.
func (q *RestingQueue) ClearLeftover() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.leftover = orderbookv1.RestingEntry{}
	q.hasLeftover = false
}

// HasLeftover reports whether a leftover entry is set.
func (q *RestingQueue) HasLeftover() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.hasLeftover
}

// PeekLeftover returns the leftover entry without clearing it.
func (q *RestingQueue) PeekLeftover() (orderbookv1.RestingEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.leftover, q.hasLeftover
}

func (q *RestingQueue) state(key orderbookv1.Key) orderbookv1.QueueState {
	state := orderbookv1.QueueState{Key: key, Entries: q.Entries()}
	if leftover, ok := q.PeekLeftover(); ok {
		state.Leftover = &leftover
	}
	return state
}
