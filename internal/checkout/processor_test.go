package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type stubClearer struct {
	calls int
	err   error
}

func (s *stubClearer) ClearAfterCheckout(context.Context) error {
	s.calls++
	return s.err
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

func newProcessor(t *testing.T, publisher outboxPublisher) (*Processor, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	if publisher == nil {
		publisher = outbox.NewService(outbox.NewRepository(client.DB()), nil)
	}
	p, err := NewProcessor(ProcessorParams{
		Tx:     client,
		Orders: orders.NewRepository(client.DB()),
		Outbox: publisher,
		Config: config.CheckoutConfig{FreeShippingThreshold: 50, ShippingFee: 5},
	})
	require.NoError(t, err)
	return p, client
}

func singleLineCart(price string, qty int) cart.Cart {
	return cart.NewCart([]cart.Line{{
		ProductID: uuid.NewString(),
		Quantity:  qty,
		Title:     "Desk Lamp",
		Price:     decimal.RequireFromString(price),
	}})
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	p, client := newProcessor(t, nil)
	clearer := &stubClearer{}

	_, err := p.Checkout(context.Background(), auth.Anonymous("dev-1"), singleLineCart("10", 1), clearer)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, "Please log in to checkout", pkgerrors.As(err).Message())
	assert.Zero(t, clearer.calls)

	var count int64
	require.NoError(t, client.DB().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	p, _ := newProcessor(t, nil)
	_, err := p.Checkout(context.Background(), auth.Authenticated("user-1", "dev-1"), cart.NewCart(nil), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Cart is empty", pkgerrors.As(err).Message())
}

func TestCheckoutAppliesShippingPolicy(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		shipping string
		total    string
	}{
		{name: "free shipping", price: "100", shipping: "0", total: "100"},
		{name: "flat fee", price: "10", shipping: "5", total: "15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newProcessor(t, nil)
			order, err := p.Checkout(context.Background(), auth.Authenticated("user-1", "dev-1"), singleLineCart(tc.price, 1), nil)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.shipping).Equal(order.ShippingAmount), "shipping %s", order.ShippingAmount)
			assert.True(t, decimal.RequireFromString(tc.total).Equal(order.TotalAmount), "total %s", order.TotalAmount)
		})
	}
}

func TestCheckoutPersistsOrderAndEvent(t *testing.T) {
	ctx := context.Background()
	p, client := newProcessor(t, nil)
	clearer := &stubClearer{}
	c := singleLineCart("12.50", 2)

	order, err := p.Checkout(ctx, auth.Authenticated("user-1", "dev-1"), c, clearer)
	require.NoError(t, err)
	assert.Equal(t, 1, clearer.calls)

	var stored models.Order
	require.NoError(t, client.DB().First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)

	events, err := outbox.NewRepository(client.DB()).FindByAggregate(nil, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, order.ID, payload.OrderID)
	assert.Equal(t, 2, payload.ItemCount)
	assert.True(t, decimal.RequireFromString("30").Equal(payload.TotalAmount))
	assert.Equal(t, "user-1", envelope.Actor.UserID)
}

func TestCheckoutSucceedsWhenCartClearFails(t *testing.T) {
	p, _ := newProcessor(t, nil)
	clearer := &stubClearer{err: errors.New("redis down")}

	order, err := p.Checkout(context.Background(), auth.Authenticated("user-1", "dev-1"), singleLineCart("60", 1), clearer)
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 1, clearer.calls)
}

func TestCheckoutRollsBackWhenEventFails(t *testing.T) {
	p, client := newProcessor(t, failingOutbox{})
	clearer := &stubClearer{}

	_, err := p.Checkout(context.Background(), auth.Authenticated("user-1", "dev-1"), singleLineCart("60", 1), clearer)
	require.Error(t, err)
	assert.Zero(t, clearer.calls)

	var count int64
	require.NoError(t, client.DB().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
