package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	body := transport.CreateOrderRequest{
		Items: []transport.CreateOrderItem{
			{ProductID: 1, Price: mustDecimal(t, "6.00")},
			{ProductID: 2, Price: mustDecimal(t, "4.00")},
		},
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", body)
	asUser(c, 1)
	require.NoError(t, env.O.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.OrderStatusPending, resp.Status)
	assert.True(t, resp.TotalAmount.Equal(mustDecimal(t, "10.00")))
	require.Len(t, resp.Items, 2)
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/orders", transport.CreateOrderRequest{})
	asUser(c, 1)
	he := httpError(t, env.O.CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetOrders_ScopedToUser(t *testing.T) {
	env := newTestEnv(t)

	env.createOrder(1, "10.00")
	env.createOrder(2, "20.00")

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil)
	asUser(c, 1)
	require.NoError(t, env.O.GetOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.EqualValues(t, 1, resp[0].UserID)
}
