package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"nope","quantity":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be a valid uuid", details["productId"])
	assert.Equal(t, "is required", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"productId":"3f1c2a34-8a8b-4c3e-9d7e-1f2a3b4c5d6e","quantity":1,"price":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsTrailingValuesAndOversizedBodies(t *testing.T) {
	valid := `{"productId":"3f1c2a34-8a8b-4c3e-9d7e-1f2a3b4c5d6e","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(valid+valid))
	var body addItemBody
	require.Error(t, DecodeJSONBody(req, &body))

	huge := `{"productId":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	require.NotNil(t, pkgerrors.As(err))
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(valid+"\n"))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, 1, body.Quantity)
}

func TestParseQueryDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?minPrice=9.5&maxPrice=-1&bad=x", nil)

	v, err := ParseQueryDecimal(req, "minPrice")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "9.5", v.String())

	v, err = ParseQueryDecimal(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseQueryDecimal(req, "maxPrice")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryDecimal(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?category=beauty&category=groceries,%20beauty&category=", nil)
	assert.Equal(t, []string{"beauty", "groceries"}, ParseQueryList(req, "category", 64))
	assert.Nil(t, ParseQueryList(req, "missing", 64))
}

func TestSanitizeStringCapsRunes(t *testing.T) {
	assert.Equal(t, "héll", SanitizeString("  héllo ", 4))
	assert.Equal(t, "hello", SanitizeString(" hello ", 0))
}
