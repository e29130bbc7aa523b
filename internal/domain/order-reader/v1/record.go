package orderreaderv1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	ledgerv1 "github.com/muhammadchandra19/exchange/internal/domain/ledger/v1"
)

var (
	// ErrMalformedRecord marks a record that cannot become an order. It is dropped.
	ErrMalformedRecord = errors.New("malformed order record")
	// ErrFeedUnavailable marks a feed that cannot be opened or read at all.
	ErrFeedUnavailable = errors.New("order feed unavailable")
)

// RecordFields is the number of fields in a feed record.
const RecordFields = 4

// Record is one raw feed record: trader, stock, quantity, side.
type Record struct {
	Fields []string
}

// NewRecord creates a record from its raw fields.
func NewRecord(fields ...string) Record {
	return Record{Fields: fields}
}

// String joins the raw fields the way they appear in a CSV feed.
func (r Record) String() string {
	return strings.Join(r.Fields, ",")
}

// ParseRecord turns a raw record into an open order.
// Quantity must be a base-10 integer greater than zero. A side starting with
// 'B' is a buy, anything else is a sell.
func ParseRecord(r Record) (ledgerv1.Order, error) {
	if len(r.Fields) < RecordFields {
		return ledgerv1.Order{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, RecordFields, len(r.Fields))
	}

	trader := strings.TrimSpace(r.Fields[0])
	stock := strings.TrimSpace(r.Fields[1])
	rawQty := strings.TrimSpace(r.Fields[2])
	side := strings.TrimSpace(r.Fields[3])

	if trader == "" {
		return ledgerv1.Order{}, fmt.Errorf("%w: empty trader", ErrMalformedRecord)
	}
	if stock == "" {
		return ledgerv1.Order{}, fmt.Errorf("%w: empty stock", ErrMalformedRecord)
	}
	if side == "" {
		return ledgerv1.Order{}, fmt.Errorf("%w: empty side", ErrMalformedRecord)
	}

	qty, err := strconv.ParseInt(rawQty, 10, 64)
	if err != nil {
		return ledgerv1.Order{}, fmt.Errorf("%w: quantity %q: %v", ErrMalformedRecord, rawQty, err)
	}
	if qty <= 0 {
		return ledgerv1.Order{}, fmt.Errorf("%w: quantity %d: %v", ErrMalformedRecord, qty, ledgerv1.ErrInvalidQuantity)
	}

	return ledgerv1.NewOrder(trader, stock, qty, ParseSide(side)), nil
}

// ParseSide maps the first character of a side field to a book side.
func ParseSide(raw string) ledgerv1.Side {
	if strings.HasPrefix(raw, "B") {
		return ledgerv1.Buy
	}
	return ledgerv1.Sell
}
