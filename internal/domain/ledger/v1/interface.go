package ledgerv1

// Ledger is the append-only, index-addressed store of every order in a run.
type Ledger interface {
	// Append stores the order, assigns its ID and publishes it to readers.
	Append(order Order) (uint64, error)
	// At returns a copy of a published order.
	At(id uint64) (Order, error)
	// SetStatus moves an order to status. It reports whether the status changed.
	SetStatus(id uint64, status Status) (bool, error)
	// Len returns the number of published orders.
	Len() uint64
	// Orders returns a copy of every published order.
	Orders() []Order
	// Reset drops every order.
	Reset()
}
