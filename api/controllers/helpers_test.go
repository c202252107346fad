package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/assistant"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type requestOpts struct {
	identity auth.Identity
	params   map[string]string
	body     string
}

func serve(t *testing.T, h http.HandlerFunc, method, target string, opts requestOpts) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if opts.body != "" {
		body = strings.NewReader(opts.body)
	}
	req := httptest.NewRequest(method, target, body)
	routeCtx := chi.NewRouteContext()
	for k, v := range opts.params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if opts.identity != (auth.Identity{}) {
		ctx = middleware.WithIdentity(ctx, opts.identity)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stubCartSession struct {
	cart       cart.Cart
	err        error
	calls      []string
	lastID     string
	lastQty    int
	clearErr   error
	clearCalls int
}

func (s *stubCartSession) record(name, productID string, qty int) (cart.Cart, error) {
	s.calls = append(s.calls, name)
	s.lastID = productID
	s.lastQty = qty
	return s.cart, s.err
}

func (s *stubCartSession) Initialize(ctx context.Context) (cart.Cart, error) {
	return s.record("initialize", "", 0)
}

func (s *stubCartSession) AddToCart(ctx context.Context, productID string, quantity int) (cart.Cart, error) {
	return s.record("add", productID, quantity)
}

func (s *stubCartSession) UpdateQuantity(ctx context.Context, productID string, quantity int) (cart.Cart, error) {
	return s.record("update", productID, quantity)
}

func (s *stubCartSession) RemoveFromCart(ctx context.Context, productID string) (cart.Cart, error) {
	return s.record("remove", productID, 0)
}

func (s *stubCartSession) ClearCart(ctx context.Context) (cart.Cart, error) {
	return s.record("clear", "", 0)
}

func (s *stubCartSession) ClearAfterCheckout(ctx context.Context) error {
	s.clearCalls++
	return s.clearErr
}

func openerFor(session *stubCartSession, seen *auth.Identity) CartOpener {
	return func(identity auth.Identity) (CartSession, error) {
		if seen != nil {
			*seen = identity
		}
		return session, nil
	}
}

func sampleCart() cart.Cart {
	return cart.NewCart([]cart.Line{{
		ProductID: uuid.NewString(),
		Quantity:  2,
		Title:     "Kiwi",
		Price:     decimal.NewFromInt(9),
	}})
}

type stubProcessor struct {
	order    *models.Order
	err      error
	gotCart  cart.Cart
	gotIdent auth.Identity
	clearer  checkout.CartClearer
}

func (s *stubProcessor) Checkout(ctx context.Context, identity auth.Identity, c cart.Cart, clearer checkout.CartClearer) (*models.Order, error) {
	s.gotIdent = identity
	s.gotCart = c
	s.clearer = clearer
	return s.order, s.err
}

type stubProductService struct {
	listInput productsvc.ListProductsInput
	list      *productsvc.ProductListResult
	facets    *productsvc.FacetsDTO
	product   *productsvc.ProductDTO
	err       error
}

func (s *stubProductService) List(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	s.listInput = input
	return s.list, s.err
}

func (s *stubProductService) Facets(ctx context.Context) (*productsvc.FacetsDTO, error) {
	return s.facets, s.err
}

func (s *stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProductService) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, s.err
}

func (s *stubProductService) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	return nil, s.err
}

type stubOrdersService struct {
	gotUser   string
	gotParams pagination.Params
	list      *orders.OrderList
	order     *orders.OrderDTO
	err       error
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID string, params pagination.Params) (*orders.OrderList, error) {
	s.gotUser = userID
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrdersService) GetForUser(ctx context.Context, userID string, orderID uuid.UUID) (*orders.OrderDTO, error) {
	s.gotUser = userID
	return s.order, s.err
}

type stubTurner struct {
	reply      *assistant.Reply
	err        error
	gotSession string
	gotHistory []assistant.Message
}

func (s *stubTurner) Turn(ctx context.Context, sessionID string, history []assistant.Message) (*assistant.Reply, error) {
	s.gotSession = sessionID
	s.gotHistory = history
	return s.reply, s.err
}
