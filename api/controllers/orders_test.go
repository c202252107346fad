package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestOrdersListScopesToCaller(t *testing.T) {
	svc := &stubOrdersService{list: &orders.OrderList{Orders: []orders.OrderDTO{}, NextCursor: "next"}}

	rec := serve(t, OrdersList(svc, testLogger()), http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", requestOpts{
		identity: auth.Authenticated("user-7", "device-1"),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", svc.gotUser)
	assert.Equal(t, 5, svc.gotParams.Limit)
	assert.Equal(t, "abc", svc.gotParams.Cursor)
	assert.Equal(t, "next", decode[envelope[orders.OrderList]](t, rec).Data.NextCursor)

	rec = serve(t, OrdersList(svc, testLogger()), http.MethodGet, "/api/v1/orders?limit=1000", requestOpts{
		identity: auth.Authenticated("user-7", "device-1"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderDetail(t *testing.T) {
	id := uuid.New()
	svc := &stubOrdersService{order: &orders.OrderDTO{ID: id}}
	identity := auth.Authenticated("user-7", "device-1")

	rec := serve(t, OrderDetail(svc, testLogger()), http.MethodGet, "/api/v1/orders/"+id.String(), requestOpts{
		identity: identity,
		params:   map[string]string{"orderId": id.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[envelope[orders.OrderDTO]](t, rec).Data.ID)

	rec = serve(t, OrderDetail(svc, testLogger()), http.MethodGet, "/api/v1/orders/x", requestOpts{
		identity: identity,
		params:   map[string]string{"orderId": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	rec = serve(t, OrderDetail(svc, testLogger()), http.MethodGet, "/api/v1/orders/"+id.String(), requestOpts{
		identity: identity,
		params:   map[string]string{"orderId": id.String()},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
