package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CheckoutProcessor places an order from a reconciled cart.
type CheckoutProcessor interface {
	Checkout(ctx context.Context, identity auth.Identity, c cart.Cart, clearer checkout.CartClearer) (*models.Order, error)
}

// checkoutResult is the storefront's checkout contract. Failures carry a
// message fit for display instead of the error envelope.
type checkoutResult struct {
	Success      bool   `json:"success"`
	OrderID      string `json:"orderId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// CheckoutPlace turns the caller's reconciled cart into an order.
func CheckoutPlace(open CartOpener, processor CheckoutProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		fail := func(err error) {
			status, msg := responses.Describe(err)
			if status >= http.StatusInternalServerError && logg != nil {
				logg.Error(ctx, "checkout.failed", err)
			}
			responses.WriteJSON(w, status, checkoutResult{ErrorMessage: msg})
		}

		if processor == nil {
			fail(nil)
			return
		}
		session, err := openCart(r, open)
		if err != nil {
			fail(err)
			return
		}
		c, err := session.Initialize(ctx)
		if err != nil {
			fail(err)
			return
		}

		order, err := processor.Checkout(ctx, middleware.IdentityFromContext(ctx), c, session)
		if err != nil {
			fail(err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, checkoutResult{Success: true, OrderID: order.ID.String()})
	}
}
