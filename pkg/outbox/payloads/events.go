package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published once per successful checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID          `json:"orderId"`
	UserID      string             `json:"userId"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Shipping    decimal.Decimal    `json:"shipping"`
	ItemCount   int                `json:"itemCount"`
	Items       []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
