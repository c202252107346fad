package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProductService{list: &productsvc.ProductListResult{Items: []productsvc.ProductDTO{}, Page: 2, PageSize: 30}}

	rec := serve(t, ProductList(svc, testLogger()), http.MethodGet,
		"/api/v1/products?page=2&category=beauty&category=groceries&minPrice=5&maxPrice=20.5&search=%20lipstick%20", requestOpts{})

	require.Equal(t, http.StatusOK, rec.Code)
	in := svc.listInput
	assert.Equal(t, pagination.NewPage(2, pagination.CatalogPageSize), in.Page)
	assert.Equal(t, []string{"beauty", "groceries"}, in.Filters.Categories)
	require.NotNil(t, in.Filters.MinPrice)
	require.NotNil(t, in.Filters.MaxPrice)
	assert.True(t, in.Filters.MinPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, in.Filters.MaxPrice.Equal(decimal.RequireFromString("20.5")))
	assert.Equal(t, "lipstick", in.Filters.Search)

	body := decode[envelope[productsvc.ProductListResult]](t, rec)
	assert.Equal(t, 2, body.Data.Page)
}

func TestProductListRejectsBadQuery(t *testing.T) {
	svc := &stubProductService{}
	for _, target := range []string{"/api/v1/products?page=0", "/api/v1/products?minPrice=cheap", "/api/v1/products?maxPrice=-3"} {
		rec := serve(t, ProductList(svc, testLogger()), http.MethodGet, target, requestOpts{})
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestProductFacets(t *testing.T) {
	svc := &stubProductService{facets: &productsvc.FacetsDTO{
		Categories: []string{"beauty"},
		MinPrice:   decimal.NewFromInt(1),
		MaxPrice:   decimal.NewFromInt(99),
	}}
	rec := serve(t, ProductFacets(svc, testLogger()), http.MethodGet, "/api/v1/products/facets", requestOpts{})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[envelope[productsvc.FacetsDTO]](t, rec)
	assert.Equal(t, []string{"beauty"}, body.Data.Categories)
}

func TestProductDetail(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{product: &productsvc.ProductDTO{ID: id, Title: "Kiwi"}}

	rec := serve(t, ProductDetail(svc, testLogger()), http.MethodGet, "/api/v1/products/"+id.String(), requestOpts{
		params: map[string]string{"productId": id.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kiwi", decode[envelope[productsvc.ProductDTO]](t, rec).Data.Title)

	rec = serve(t, ProductDetail(svc, testLogger()), http.MethodGet, "/api/v1/products/nope", requestOpts{
		params: map[string]string{"productId": "nope"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	rec = serve(t, ProductDetail(svc, testLogger()), http.MethodGet, "/api/v1/products/"+id.String(), requestOpts{
		params: map[string]string{"productId": id.String()},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", decode[envelope[productsvc.ProductDTO]](t, rec).Error.Message)
}
