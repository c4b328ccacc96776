package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/modecraft/storefront-backend/pkg/enums"
)

// Order is created by checkout completion and advanced by the
// fulfillment workflow.
type Order struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CartKey    string            `gorm:"column:cart_key;not null;index" json:"-"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'processing'" json:"status"`
	Subtotal   decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	Shipping   decimal.Decimal   `gorm:"column:shipping;type:numeric(10,2);not null" json:"shipping"`
	Tax        decimal.Decimal   `gorm:"column:tax;type:numeric(10,2);not null" json:"tax"`
	Total      decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Name       string            `gorm:"column:name;not null" json:"name"`
	Email      string            `gorm:"column:email;not null" json:"email"`
	Address    string            `gorm:"column:address;not null" json:"address"`
	City       string            `gorm:"column:city;not null" json:"city"`
	PostalCode string            `gorm:"column:postal_code;not null" json:"postal_code"`
	Country    string            `gorm:"column:country;not null" json:"country"`
	LineItems  []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"line_items"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderLineItem snapshots one purchased product at checkout time.
type OrderLineItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"column:order_id;not null;index" json:"-"`
	ProductID int64           `gorm:"column:product_id;not null" json:"product_id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Image     string          `gorm:"column:image;not null" json:"image"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
