package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the immutable record written at checkout; only Status changes later.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string            `gorm:"column:user_id;not null"`
	SubtotalAmount decimal.Decimal   `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	ShippingAmount decimal.Decimal   `gorm:"column:shipping_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Items          []OrderItem       `gorm:"column:items;type:jsonb;serializer:json;not null"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a cart line at the moment of purchase.
type OrderItem struct {
	ProductID          string          `json:"product_id"`
	Title              string          `json:"title"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}

// ItemCount sums quantities across the snapshot.
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
