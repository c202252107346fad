package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Price and discount are captured into order
// snapshots at checkout, so edits here never rewrite history.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU                  *string         `gorm:"column:sku"`
	Title                string          `gorm:"column:title;not null"`
	Description          string          `gorm:"column:description;not null;default:''"`
	Category             string          `gorm:"column:category;not null;default:''"`
	Brand                *string         `gorm:"column:brand"`
	Price                decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercentage   decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	Rating               decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	Stock                int             `gorm:"column:stock;not null;default:0"`
	Thumbnail            *string         `gorm:"column:thumbnail"`
	Images               []string        `gorm:"column:images;type:jsonb;serializer:json"`
	Tags                 []string        `gorm:"column:tags;type:jsonb;serializer:json"`
	WarrantyInformation  *string         `gorm:"column:warranty_information"`
	ShippingInformation  *string         `gorm:"column:shipping_information"`
	AvailabilityStatus   *string         `gorm:"column:availability_status"`
	ReturnPolicy         *string         `gorm:"column:return_policy"`
	MinimumOrderQuantity int             `gorm:"column:minimum_order_quantity;not null;default:1"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}
