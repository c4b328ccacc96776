package checkout

import (
	"time"

	"github.com/modecraft/storefront-backend/internal/cartstore"
	"github.com/modecraft/storefront-backend/pkg/enums"
)

// ShippingInfo is the contact/address form collected by the first
// checkout step. Every field is required; the email only needs an "@".
type ShippingInfo struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,contains=@"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// PaymentInfo is the card form collected by the second step. It lives
// only for the duration of the submit call and is never persisted or
// logged.
type PaymentInfo struct {
	CardName   string `json:"card_name"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// session is the transient per-cart checkout state. It exists only in
// memory; abandoning checkout discards it with no side effects.
type session struct {
	cartKey    string
	step       enums.CheckoutStep
	shipping   ShippingInfo
	items      []cartstore.LineItem
	totals     Totals
	submitting bool
	orderID    int64
	touchedAt  time.Time
}

// View is the read-only projection handed to callers.
type View struct {
	Step       enums.CheckoutStep   `json:"step"`
	Items      []cartstore.LineItem `json:"items"`
	Totals     Totals               `json:"totals"`
	Display    DisplayTotals        `json:"display_totals"`
	Shipping   ShippingInfo         `json:"shipping"`
	Submitting bool                 `json:"submitting"`
	OrderID    int64                `json:"order_id,omitempty"`
}

func (s *session) view() *View {
	items := s.items
	if items == nil {
		items = []cartstore.LineItem{}
	}
	return &View{
		Step:       s.step,
		Items:      items,
		Totals:     s.totals,
		Display:    s.totals.Display(),
		Shipping:   s.shipping,
		Submitting: s.submitting,
		OrderID:    s.orderID,
	}
}
