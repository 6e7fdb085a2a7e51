package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/pagination"
)

func TestParsePageParams(t *testing.T) {
	params, err := ParsePageParams(httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Empty(t, params.Cursor)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Now(), ID: uuid.New()})
	params, err = ParsePageParams(httptest.NewRequest(http.MethodGet, "/orders?limit=5&cursor="+cursor, nil))
	require.NoError(t, err)
	assert.Equal(t, 5, params.Limit)
	assert.Equal(t, cursor, params.Cursor)
}

func TestParsePageParamsRejectsBadInput(t *testing.T) {
	for _, query := range []string{"limit=abc", "limit=0", "limit=1000", "cursor=not-a-cursor"} {
		_, err := ParsePageParams(httptest.NewRequest(http.MethodGet, "/orders?"+query, nil))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), query)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "productId")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
