package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/modecraft/storefront-backend/pkg/db/models"
	"github.com/modecraft/storefront-backend/pkg/enums"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
)

const defaultRecentLimit = 20

// Repository persists orders and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order and its line items atomically.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must have at least one line item")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
	}
	return order, nil
}

// GetByID loads an order with its line items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return &order, nil
}

// ListRecent returns the newest orders first, capped at limit.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var listings []models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&listings).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return listings, nil
}

// UpdateStatus advances the order through the fulfillment workflow. The
// transition must be allowed; anything else is a state conflict.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	var updated *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
		}

		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, next),
			)
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
		}
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
