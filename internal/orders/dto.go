package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemDTO is one snapshotted line as exposed to the buyer.
type OrderItemDTO struct {
	ProductID          string          `json:"product_id"`
	Title              string          `json:"title"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// OrderDTO is the order history view.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	Status         enums.OrderStatus `json:"status"`
	SubtotalAmount decimal.Decimal   `json:"subtotal_amount"`
	ShippingAmount decimal.Decimal   `json:"shipping_amount"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	TotalItems     int               `json:"total_items"`
	Items          []OrderItemDTO    `json:"items"`
	CreatedAt      time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toDTO(o models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:          item.ProductID,
			Title:              item.Title,
			Quantity:           item.Quantity,
			Price:              item.Price,
			DiscountPercentage: item.DiscountPercentage,
		})
	}
	return OrderDTO{
		ID:             o.ID,
		Status:         o.Status,
		SubtotalAmount: o.SubtotalAmount,
		ShippingAmount: o.ShippingAmount,
		TotalAmount:    o.TotalAmount,
		TotalItems:     o.ItemCount(),
		Items:          items,
		CreatedAt:      o.CreatedAt,
	}
}
