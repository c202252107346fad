package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID                   uuid.UUID       `json:"id"`
	SKU                  *string         `json:"sku,omitempty"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Brand                *string         `json:"brand,omitempty"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	Rating               decimal.Decimal `json:"rating"`
	Stock                int             `json:"stock"`
	Thumbnail            *string         `json:"thumbnail,omitempty"`
	Images               []string        `json:"images"`
	Tags                 []string        `json:"tags"`
	WarrantyInformation  *string         `json:"warranty_information,omitempty"`
	ShippingInformation  *string         `json:"shipping_information,omitempty"`
	AvailabilityStatus   *string         `json:"availability_status,omitempty"`
	ReturnPolicy         *string         `json:"return_policy,omitempty"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ProductListResult is one catalog page.
type ProductListResult struct {
	Items      []ProductDTO `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"totalPages"`
}

// FacetsDTO feeds the storefront filter sidebar.
type FacetsDTO struct {
	Categories []string        `json:"categories"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MaxPrice   decimal.Decimal `json:"maxPrice"`
}

// FromModel maps a product row into its DTO.
func FromModel(p models.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductDTO{
		ID:                   p.ID,
		SKU:                  p.SKU,
		Title:                p.Title,
		Description:          p.Description,
		Category:             p.Category,
		Brand:                p.Brand,
		Price:                p.Price,
		DiscountPercentage:   p.DiscountPercentage,
		Rating:               p.Rating,
		Stock:                p.Stock,
		Thumbnail:            p.Thumbnail,
		Images:               images,
		Tags:                 tags,
		WarrantyInformation:  p.WarrantyInformation,
		ShippingInformation:  p.ShippingInformation,
		AvailabilityStatus:   p.AvailabilityStatus,
		ReturnPolicy:         p.ReturnPolicy,
		MinimumOrderQuantity: p.MinimumOrderQuantity,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
