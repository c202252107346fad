package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CartClearer empties the caller's carts once the order is committed.
type CartClearer interface {
	ClearAfterCheckout(ctx context.Context) error
}

// ProcessorParams wires the checkout processor.
type ProcessorParams struct {
	Tx      txRunner
	Orders  *orders.Repository
	Outbox  outboxPublisher
	Config  config.CheckoutConfig
	Logger  *logger.Logger
	Metrics *metrics.Storefront
}

// Processor turns a hydrated cart into a pending order.
type Processor struct {
	tx      txRunner
	orders  *orders.Repository
	outbox  outboxPublisher
	policy  helpers.ShippingPolicy
	logg    *logger.Logger
	metrics *metrics.Storefront
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Processor{
		tx:     params.Tx,
		orders: params.Orders,
		outbox: params.Outbox,
		policy: helpers.ShippingPolicy{
			FreeThreshold: decimal.NewFromFloat(params.Config.FreeShippingThreshold),
			Fee:           decimal.NewFromFloat(params.Config.ShippingFee),
		},
		logg:    logg,
		metrics: params.Metrics,
	}, nil
}

// Checkout persists the order and its order_created event in one
// transaction, then clears the carts. A failed clear is logged and the order
// still counts as placed.
func (p *Processor) Checkout(ctx context.Context, identity auth.Identity, c cart.Cart, clearer CartClearer) (*models.Order, error) {
	if !identity.IsAuthenticated() {
		p.metrics.IncCheckout("unauthenticated")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Please log in to checkout")
	}
	if c.IsEmpty() {
		p.metrics.IncCheckout("empty_cart")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	}

	totals := helpers.ComputeTotals(c, p.policy)
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         identity.UserID,
		SubtotalAmount: totals.Subtotal,
		ShippingAmount: totals.Shipping,
		TotalAmount:    totals.Total,
		Status:         enums.OrderStatusPending,
		Items:          helpers.SnapshotItems(c.Lines),
	}

	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := p.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: identity.UserID, DeviceID: identity.DeviceID},
			Data:          orderCreatedPayload(order),
		}
		if err := p.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order_created")
		}
		return nil
	})
	if err != nil {
		p.metrics.IncCheckout("failed")
		return nil, err
	}
	p.metrics.IncCheckout("placed")

	logCtx := p.logg.WithFields(p.logg.WithUserID(ctx, identity.UserID), map[string]any{
		"order_id":     order.ID.String(),
		"total_amount": order.TotalAmount.StringFixed(2),
	})
	p.logg.Info(logCtx, "order placed")

	if clearer != nil {
		if err := clearer.ClearAfterCheckout(ctx); err != nil {
			p.logg.Error(logCtx, "clear cart after checkout", err)
		}
	}
	return order, nil
}

func orderCreatedPayload(order *models.Order) payloads.OrderCreatedEvent {
	items := make([]payloads.OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderCreatedItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Shipping:    order.ShippingAmount,
		ItemCount:   order.ItemCount(),
		Items:       items,
	}
}
