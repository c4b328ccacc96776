package products

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/modecraft/storefront-backend/internal/cart"
	"github.com/modecraft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
)

// Repository provides catalog persistence. Cart and checkout only read
// from it; writes exist for store management.
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

// GetProduct loads a product with its category.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return &product, nil
}

// ListProducts returns the catalog, optionally filtered by category.
func (r *Repository) ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Order("id ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var listings []models.Product
	if err := query.Find(&listings).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}
	return listings, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	return categories, nil
}

// CreateProduct inserts a new catalog listing.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create product")
	}
	return product, nil
}

// UpdateProduct saves the full listing. The product must already exist.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"image":       product.Image,
			"stock":       product.Stock,
			"category_id": product.CategoryID,
		})
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "failed to update product")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return r.GetProduct(ctx, product.ID)
}

// DeleteProduct removes a listing.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "failed to delete product")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// Loader adapts the repository to the read-only surface cart mutations
// need.
type Loader struct {
	repo *Repository
}

// NewLoader wraps the repository for cart use.
func NewLoader(repo *Repository) *Loader {
	return &Loader{repo: repo}
}

// GetProduct returns the stock-and-price snapshot for one product.
func (l *Loader) GetProduct(ctx context.Context, id int64) (*cart.Snapshot, error) {
	product, err := l.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &cart.Snapshot{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Image: product.Image,
		Stock: product.Stock,
	}, nil
}
