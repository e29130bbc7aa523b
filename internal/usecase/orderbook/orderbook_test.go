package orderbook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
	orderbookv1 "github.com/muhammadchandra19/exchange/internal/domain/orderbook/v1"
)

func entry(qty int64, id uint64) orderbookv1.RestingEntry {
	return orderbookv1.RestingEntry{Quantity: qty, OrderID: id}
}

func TestRestingQueue_FIFO(t *testing.T) {
	q := NewRestingQueue()

	_, ok := q.PopFront()
	assert.False(t, ok)

	for i := uint64(0); i < 20; i++ {
		q.PushBack(entry(int64(i+1), i))
	}
	assert.Equal(t, 20, q.Len())

	entries := q.Entries()
	require.Len(t, entries, 20)
	assert.Equal(t, entry(1, 0), entries[0])
	assert.Equal(t, entry(20, 19), entries[19])

	for i := uint64(0); i < 20; i++ {
		got, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, got.OrderID)
	}
	_, ok = q.PopFront()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestRestingQueue_Leftover(t *testing.T) {
	q := NewRestingQueue()
	assert.False(t, q.HasLeftover())
	_, ok := q.PeekLeftover()
	assert.False(t, ok)

	q.SetLeftover(entry(6, 0))
	assert.True(t, q.HasLeftover())
	got, ok := q.PeekLeftover()
	require.True(t, ok)
	assert.Equal(t, entry(6, 0), got)

	// The leftover sits outside the FIFO.
	assert.Equal(t, 0, q.Len())

	q.SetLeftover(entry(2, 0))
	got, _ = q.PeekLeftover()
	assert.Equal(t, int64(2), got.Quantity)

	q.ClearLeftover()
	assert.False(t, q.HasLeftover())
	got, ok = q.PeekLeftover()
	assert.False(t, ok)
	assert.Equal(t, orderbookv1.RestingEntry{}, got)
}

func TestBook_QueueIsCreatedOnce(t *testing.T) {
	b := NewBook()

	_, ok := b.Lookup("X", ledgerv1.Buy)
	assert.False(t, ok)

	q1 := b.Queue("X", ledgerv1.Buy)
	q2 := b.Queue("X", ledgerv1.Buy)
	assert.Same(t, q1, q2)
	assert.NotSame(t, q1, b.Queue("X", ledgerv1.Sell))

	found, ok := b.Lookup("X", ledgerv1.Buy)
	require.True(t, ok)
	assert.Same(t, q1, found)
}

func TestBook_ConcurrentFirstTouch(t *testing.T) {
	b := NewBook()

	const goroutines = 32
	got := make([]orderbookv1.RestingQueue, goroutines)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = b.Queue("Y", ledgerv1.Sell)
			got[i].PushBack(entry(1, uint64(i)))
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, goroutines, got[0].Len())
	assert.Len(t, b.Keys(), 1)
}

func TestBook_KeysAndState(t *testing.T) {
	b := NewBook()
	b.Queue("Z", ledgerv1.Sell).PushBack(entry(3, 2))
	b.Queue("A", ledgerv1.Sell)
	b.Queue("A", ledgerv1.Buy).SetLeftover(entry(6, 0))

	assert.Equal(t, []orderbookv1.Key{
		{Stock: "A", Side: ledgerv1.Buy},
		{Stock: "A", Side: ledgerv1.Sell},
		{Stock: "Z", Side: ledgerv1.Sell},
	}, b.Keys())

	state := b.State()
	require.Len(t, state, 3)
	require.NotNil(t, state[0].Leftover)
	assert.Equal(t, entry(6, 0), *state[0].Leftover)
	assert.Empty(t, state[0].Entries)
	assert.Nil(t, state[1].Leftover)
	assert.Equal(t, []orderbookv1.RestingEntry{entry(3, 2)}, state[2].Entries)

	b.Reset()
	assert.Empty(t, b.Keys())
	_, ok := b.Lookup("Z", ledgerv1.Sell)
	assert.False(t, ok)
}
