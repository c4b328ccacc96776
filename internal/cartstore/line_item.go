package cartstore

import (
	"github.com/shopspring/decimal"
)

// LineItem is the immutable snapshot of a product captured when it was
// added to the cart, plus the requested quantity. The snapshot makes
// the stale-stock-at-checkout risk explicit: Stock reflects the last
// mutation, not the live catalog.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns price × quantity, unrounded.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Envelope is the versioned wire form stored under the cart key and
// broadcast on change. Version increments on every save; conflicting
// concurrent writers resolve last-write-wins.
type Envelope struct {
	Version int64      `json:"version"`
	Items   []LineItem `json:"items"`
}
