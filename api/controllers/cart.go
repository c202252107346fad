package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxLineQuantity = 999

// CartSession is the per-request cart surface the handlers drive.
type CartSession interface {
	Initialize(ctx context.Context) (cart.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (cart.Cart, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (cart.Cart, error)
	RemoveFromCart(ctx context.Context, productID string) (cart.Cart, error)
	ClearCart(ctx context.Context) (cart.Cart, error)
	ClearAfterCheckout(ctx context.Context) error
}

// CartOpener builds the cart session for one caller.
type CartOpener func(identity auth.Identity) (CartSession, error)

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1,max=999"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

func CartGet(open CartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := openCart(r, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := session.Initialize(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// CartAddItem adds to the line's quantity; a missing quantity means one.
func CartAddItem(open CartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		session, err := openCart(r, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := session.AddToCart(r.Context(), strings.TrimSpace(payload.ProductID), quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// CartUpdateItem overwrites the line's quantity. Zero or less removes it.
func CartUpdateItem(open CartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := openCart(r, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := session.UpdateQuantity(r.Context(), productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartRemoveItem(open CartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := openCart(r, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := session.RemoveFromCart(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartClear(open CartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := openCart(r, open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := session.ClearCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func openCart(r *http.Request, open CartOpener) (CartSession, error) {
	if open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.IsAuthenticated() && identity.DeviceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "device id missing")
	}
	return open(identity)
}

func productIDParam(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return productID, nil
}
