package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
)

// DefaultChunkSize is the number of orders per storage chunk.
const DefaultChunkSize = 1024

type slot struct {
	order  ledgerv1.Order
	status atomic.Uint32
}

type chunk []slot

// Ledger is an append-only order store addressed by order ID.
//
// Orders live in fixed-size chunks. A chunk is never reallocated once
// created, so a published slot keeps its address while the ledger grows.
// The chunk directory is replaced copy-on-write when a chunk is added.
// Appends are serialized by mu and become visible to readers only when
// length is advanced past the slot.
type Ledger struct {
	mu        sync.Mutex
	chunkSize uint64
	chunks    atomic.Pointer[[]*chunk]
	length    atomic.Uint64
}

var _ ledgerv1.Ledger = (*Ledger)(nil)

// Option configures a Ledger.
type Option func(*Ledger)

// WithChunkSize sets the number of orders per chunk. Values below one are ignored.
func WithChunkSize(size int) Option {
	return func(l *Ledger) {
		if size > 0 {
			l.chunkSize = uint64(size)
		}
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(l)
	}
	l.chunks.Store(&[]*chunk{})
	return l
}

// ChunkSize returns the number of orders per chunk.
func (l *Ledger) ChunkSize() int {
	return int(l.chunkSize)
}

// Append stores the order at the end of the ledger and returns its ID.
func (l *Ledger) Append(order ledgerv1.Order) (uint64, error) {
	if order.Quantity <= 0 {
		return 0, fmt.Errorf("%w: got %d", ledgerv1.ErrInvalidQuantity, order.Quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.length.Load()
	dir := *l.chunks.Load()
	idx, off := id/l.chunkSize, id%l.chunkSize
	if idx == uint64(len(dir)) {
		c := make(chunk, l.chunkSize)
		grown := make([]*chunk, len(dir), len(dir)+1)
		copy(grown, dir)
		grown = append(grown, &c)
		l.chunks.Store(&grown)
		dir = grown
	}

	s := &(*dir[idx])[off]
	order.ID = id
	order.Status = ledgerv1.Open
	s.order = order
	s.status.Store(uint32(ledgerv1.Open))

	l.length.Store(id + 1)
	return id, nil
}

func (l *Ledger) slot(id uint64) (*slot, error) {
	if id >= l.length.Load() {
		return nil, fmt.Errorf("%w: id %d", ledgerv1.ErrOrderNotFound, id)
	}
	dir := *l.chunks.Load()
	return &(*dir[id/l.chunkSize])[id%l.chunkSize], nil
}

// At returns a copy of the order with the given ID.
func (l *Ledger) At(id uint64) (ledgerv1.Order, error) {
	s, err := l.slot(id)
	if err != nil {
		return ledgerv1.Order{}, err
	}
	order := s.order
	order.Status = ledgerv1.Status(s.status.Load())
	return order, nil
}

// SetStatus moves an order to status. Marking a filled order as filled again
// is a no-op that reports false.
func (l *Ledger) SetStatus(id uint64, status ledgerv1.Status) (bool, error) {
	s, err := l.slot(id)
	if err != nil {
		return false, err
	}

	if status == ledgerv1.Open {
		if ledgerv1.Status(s.status.Load()) == ledgerv1.Success {
			return false, fmt.Errorf("%w: id %d", ledgerv1.ErrStatusReversal, id)
		}
		return false, nil
	}

	return s.status.CompareAndSwap(uint32(ledgerv1.Open), uint32(ledgerv1.Success)), nil
}

// Len returns the number of published orders.
func (l *Ledger) Len() uint64 {
	return l.length.Load()
}

// Orders returns a copy of every published order in ID order.
func (l *Ledger) Orders() []ledgerv1.Order {
	n := l.length.Load()
	orders := make([]ledgerv1.Order, 0, n)
	for id := uint64(0); id < n; id++ {
		order, err := l.At(id)
		if err != nil {
			break
		}
		orders = append(orders, order)
	}
	return orders
}

// Reset drops every order. It must not run concurrently with readers.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.length.Store(0)
	l.chunks.Store(&[]*chunk{})
}
