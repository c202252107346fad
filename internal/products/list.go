package product

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
// Bounds are inclusive; empty Categories means every category.
type ListFilters struct {
	Categories []string         `json:"categories,omitempty"`
	MinPrice   *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice   *decimal.Decimal `json:"maxPrice,omitempty"`
	Search     string           `json:"search,omitempty"`
}

// ListProductsInput captures the inputs needed to page through the catalog.
type ListProductsInput struct {
	Filters ListFilters
	Page    pagination.Page
}
