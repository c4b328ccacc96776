package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/modecraft/storefront-backend/pkg/db/models"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Category{}, &models.Product{}))
	return conn
}

func seedCatalog(t *testing.T, conn *gorm.DB) (models.Category, models.Category) {
	t.Helper()

	furniture := models.Category{Name: "Furniture"}
	lighting := models.Category{Name: "Lighting"}
	require.NoError(t, conn.Create(&furniture).Error)
	require.NoError(t, conn.Create(&lighting).Error)

	listings := []models.Product{
		{Name: "Walnut Desk", Price: decimal.RequireFromString("129.99"), Image: "/img/desk.jpg", Stock: 5, CategoryID: furniture.ID},
		{Name: "Oak Shelf", Price: decimal.RequireFromString("89.00"), Image: "/img/shelf.jpg", Stock: 2, CategoryID: furniture.ID},
		{Name: "Brass Lamp", Price: decimal.RequireFromString("35.50"), Image: "/img/lamp.jpg", Stock: 3, CategoryID: lighting.ID},
	}
	require.NoError(t, conn.Create(&listings).Error)
	return furniture, lighting
}

func TestGetProductPreloadsCategory(t *testing.T) {
	conn := openTestDB(t)
	seedCatalog(t, conn)
	repo := NewRepository(conn)

	product, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Walnut Desk", product.Name)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Furniture", product.Category.Name)
}

func TestGetProductNotFound(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.GetProduct(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListProducts(t *testing.T) {
	conn := openTestDB(t)
	_, lighting := seedCatalog(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	all, err := repo.ListProducts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := repo.ListProducts(ctx, &lighting.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Brass Lamp", filtered[0].Name)
}

func TestListCategoriesOrderedByName(t *testing.T) {
	conn := openTestDB(t)
	seedCatalog(t, conn)
	repo := NewRepository(conn)

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Furniture", categories[0].Name)
	assert.Equal(t, "Lighting", categories[1].Name)
}

func TestCreateUpdateDeleteProduct(t *testing.T) {
	conn := openTestDB(t)
	furniture, _ := seedCatalog(t, conn)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.CreateProduct(ctx, &models.Product{
		Name:       "Cedar Stool",
		Price:      decimal.RequireFromString("24.00"),
		Image:      "/img/stool.jpg",
		Stock:      10,
		CategoryID: furniture.ID,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	created.Stock = 7
	created.Price = decimal.RequireFromString("22.50")
	updated, err := repo.UpdateProduct(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("22.50")))

	require.NoError(t, repo.DeleteProduct(ctx, created.ID))
	_, err = repo.GetProduct(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateMissingProduct(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.UpdateProduct(context.Background(), &models.Product{ID: 42, Name: "Ghost"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteMissingProduct(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	err := repo.DeleteProduct(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestLoaderSnapshotsProduct(t *testing.T) {
	conn := openTestDB(t)
	seedCatalog(t, conn)
	loader := NewLoader(NewRepository(conn))

	snapshot, err := loader.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.ID)
	assert.Equal(t, "Brass Lamp", snapshot.Name)
	assert.True(t, snapshot.Price.Equal(decimal.RequireFromString("35.50")))
	assert.Equal(t, 3, snapshot.Stock)
}
