package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func mustCreateProduct(t *testing.T, conn *gorm.DB, title, category, brand, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:       title,
		Description: title + " for everyday use",
		Category:    category,
		Price:       decimal.RequireFromString(price),
		Stock:       10,
	}
	if brand != "" {
		p.Brand = &brand
	}
	if err := conn.Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
