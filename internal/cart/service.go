package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/modecraft/storefront-backend/internal/cartstore"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/metrics"
)

// ProductLoader is the store client surface the cart needs. It is
// authoritative for stock at the moment of mutation; stock is not
// re-validated between mutations.
type ProductLoader interface {
	GetProduct(ctx context.Context, id int64) (*Snapshot, error)
}

// Snapshot is the read-only product view used for stock checks and
// line-item denormalization.
type Snapshot struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Image string
	Stock int
}

// Cart is the mutation result returned to callers.
type Cart struct {
	Items    []cartstore.LineItem `json:"items"`
	Subtotal decimal.Decimal      `json:"subtotal"`
}

// Service applies quantity-affecting cart operations. This is the only
// place stock bounds are enforced.
type Service interface {
	Get(ctx context.Context, cartKey string) (*Cart, error)
	AddItem(ctx context.Context, cartKey string, productID int64, quantity int) (*Cart, error)
	SetQuantity(ctx context.Context, cartKey string, productID int64, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartKey string, productID int64) (*Cart, error)
	Clear(ctx context.Context, cartKey string) error
}

type service struct {
	store    *cartstore.Store
	products ProductLoader
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
}

// NewService builds a cart service backed by the provided stack.
func NewService(store *cartstore.Store, products ProductLoader, logg *logger.Logger, m *metrics.CartMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products, logg: logg, metrics: m}, nil
}

// Get returns the current cart contents and subtotal.
func (s *service) Get(ctx context.Context, cartKey string) (*Cart, error) {
	items := s.store.Load(ctx, cartKey)
	return buildCart(items), nil
}

// AddItem creates or grows the single line item for the product. Adds
// are rejected, never clamped: a request the stock cannot satisfy
// leaves the cart unchanged and surfaces the available count.
func (s *service) AddItem(ctx context.Context, cartKey string, productID int64, quantity int) (cart *Cart, err error) {
	defer func() { s.metrics.ObserveMutation("add_item", err) }()

	if quantity < 1 {
		return nil, pkgerrors.InvalidQuantity(quantity)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	items := s.store.Load(ctx, cartKey)
	index := findItem(items, productID)

	if index < 0 {
		if product.Stock == 0 {
			return nil, pkgerrors.OutOfStock(productID)
		}
		if quantity > product.Stock {
			return nil, pkgerrors.InsufficientStock(productID, product.Stock)
		}
		items = append(items, snapshotLine(product, quantity))
	} else {
		next := items[index].Quantity + quantity
		if next > product.Stock {
			return nil, pkgerrors.InsufficientStock(productID, product.Stock)
		}
		items[index].Quantity = next
		items[index].Stock = product.Stock
	}

	s.store.Save(ctx, cartKey, items)
	return buildCart(items), nil
}

// SetQuantity sets the line item's quantity exactly, bounded by live
// stock. Non-positive quantities are rejected without touching the
// cart.
func (s *service) SetQuantity(ctx context.Context, cartKey string, productID int64, quantity int) (cart *Cart, err error) {
	defer func() { s.metrics.ObserveMutation("set_quantity", err) }()

	if quantity < 1 {
		return nil, pkgerrors.InvalidQuantity(quantity)
	}

	items := s.store.Load(ctx, cartKey)
	index := findItem(items, productID)
	if index < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}

	available := items[index].Stock
	product, err := s.products.GetProduct(ctx, productID)
	if err == nil {
		available = product.Stock
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	if quantity > available {
		return nil, pkgerrors.InsufficientStock(productID, available)
	}

	items[index].Quantity = quantity
	items[index].Stock = available

	s.store.Save(ctx, cartKey, items)
	return buildCart(items), nil
}

// RemoveItem deletes the line item if present. Removing an absent
// product is a no-op, not an error.
func (s *service) RemoveItem(ctx context.Context, cartKey string, productID int64) (cart *Cart, err error) {
	defer func() { s.metrics.ObserveMutation("remove_item", err) }()

	items := s.store.Load(ctx, cartKey)
	index := findItem(items, productID)
	if index < 0 {
		return buildCart(items), nil
	}

	items = append(items[:index], items[index+1:]...)
	s.store.Save(ctx, cartKey, items)
	return buildCart(items), nil
}

// Clear empties the cart unconditionally. Callers are responsible for
// confirming the action with the user first.
func (s *service) Clear(ctx context.Context, cartKey string) error {
	s.metrics.ObserveMutation("clear", nil)
	s.store.Save(ctx, cartKey, nil)
	return nil
}

func findItem(items []cartstore.LineItem, productID int64) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func snapshotLine(product *Snapshot, quantity int) cartstore.LineItem {
	return cartstore.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		Stock:     product.Stock,
		Quantity:  quantity,
	}
}

func buildCart(items []cartstore.LineItem) *Cart {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	if items == nil {
		items = []cartstore.LineItem{}
	}
	return &Cart{Items: items, Subtotal: subtotal}
}
