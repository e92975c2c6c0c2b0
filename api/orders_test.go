package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/example/marketplace/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasketLifecycle(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "100")

	// First basket touch issues an anonymous session.
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 2})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	cookie := sessionCookie(t, recorder)

	var items []map[string]interface{}
	decodeJSON(t, recorder, &items)
	require.Len(t, items, 1)
	assert.EqualValues(t, 2, items[0]["count"])
	assert.EqualValues(t, 100, items[0]["price"])

	// Adding the same product again increments the line.
	recorder = ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &items)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0]["count"])

	// Decrementing below one drops the line.
	recorder = ts.do(t, http.MethodDelete, "/api/basket", map[string]int{"id": 1, "count": 3}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &items)
	assert.Empty(t, items)
}

func TestBasketUnknownProduct(t *testing.T) {
	ts := newTestServer(t)
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 777, "count": 1})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBasketCapturesDiscountedPrice(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "discounted", "100", func(p *models.Product) { p.Discount = 10 })

	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1})
	require.Equal(t, http.StatusOK, recorder.Code)

	var items []map[string]interface{}
	decodeJSON(t, recorder, &items)
	require.Len(t, items, 1)
	assert.EqualValues(t, 90, items[0]["price"])
}

func TestCreateOrderFromBasket(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	a := ts.seedProduct(t, category.ID, "A", "100")
	ts.seedProduct(t, category.ID, "B", "50")

	// Build the basket anonymously, then sign up with the same session.
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 2})
	require.Equal(t, http.StatusOK, recorder.Code)
	cookie := sessionCookie(t, recorder)
	recorder = ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 2, "count": 1}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)

	signUp := ts.do(t, http.MethodPost, "/api/sign-up", map[string]string{
		"name": "Alice", "username": "alice", "password": "secret123",
	}, cookie)
	require.Equal(t, http.StatusOK, signUp.Code, signUp.Body.String())

	recorder = ts.do(t, http.MethodPost, "/api/orders", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var created struct {
		OrderID uint `json:"orderId"`
	}
	decodeJSON(t, recorder, &created)
	require.NotZero(t, created.OrderID)

	// The basket was cleared by order creation.
	recorder = ts.do(t, http.MethodGet, "/api/basket", nil, cookie)
	var items []map[string]interface{}
	decodeJSON(t, recorder, &items)
	assert.Empty(t, items)

	// A later price change must not leak into the snapshot.
	require.NoError(t, ts.db.Model(a).Update("price", decimal.NewFromInt(999)).Error)

	recorder = ts.do(t, http.MethodGet, fmt.Sprintf("/api/order/%d", created.OrderID), nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	var order struct {
		TotalCost float64 `json:"totalCost"`
		Status    string
		FullName  string `json:"fullName"`
		Products  []map[string]interface{}
	}
	decodeJSON(t, recorder, &order)
	assert.EqualValues(t, 250, order.TotalCost)
	assert.Equal(t, "accepted", order.Status)
	assert.Equal(t, "Alice", order.FullName)
	require.Len(t, order.Products, 2)
	assert.EqualValues(t, 100, order.Products[0]["price"])
	assert.EqualValues(t, 2, order.Products[0]["count"])
	assert.EqualValues(t, 50, order.Products[1]["price"])
}

func TestOrderListAndOwnership(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "10")

	alice := ts.signUp(t, "Alice", "alice")
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1}, alice)
	require.Equal(t, http.StatusOK, recorder.Code)
	recorder = ts.do(t, http.MethodPost, "/api/orders", nil, alice)
	require.Equal(t, http.StatusOK, recorder.Code)

	bob := ts.signUp(t, "Bob", "bob")

	aliceOrders := ts.do(t, http.MethodGet, "/api/orders", nil, alice)
	require.Equal(t, http.StatusOK, aliceOrders.Code)
	var orders []map[string]interface{}
	decodeJSON(t, aliceOrders, &orders)
	assert.Len(t, orders, 1)

	bobOrders := ts.do(t, http.MethodGet, "/api/orders", nil, bob)
	require.Equal(t, http.StatusOK, bobOrders.Code)
	decodeJSON(t, bobOrders, &orders)
	assert.Empty(t, orders)

	// Bob cannot read or update Alice's order.
	detail := ts.do(t, http.MethodGet, "/api/order/1", nil, bob)
	assert.Equal(t, http.StatusNotFound, detail.Code)

	update := ts.do(t, http.MethodPost, "/api/order/1", map[string]string{
		"deliveryType": "express",
		"paymentType":  "online",
		"status":       "rejected",
		"city":         "Moscow",
		"address":      "Arbat 1",
	}, bob)
	assert.Equal(t, http.StatusNotFound, update.Code)
}

func TestOrderUpdate(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "10")

	cookie := ts.signUp(t, "Alice", "alice")
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	recorder = ts.do(t, http.MethodPost, "/api/orders", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = ts.do(t, http.MethodPost, "/api/order/1", map[string]string{
		"deliveryType": "express",
		"paymentType":  "online",
		"status":       "delivery",
		"city":         "Moscow",
		"address":      "Arbat 1",
	}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	detail := ts.do(t, http.MethodGet, "/api/order/1", nil, cookie)
	var order struct {
		DeliveryType string `json:"deliveryType"`
		Status       string
		City         string
	}
	decodeJSON(t, detail, &order)
	assert.Equal(t, "express", order.DeliveryType)
	assert.Equal(t, "delivery", order.Status)
	assert.Equal(t, "Moscow", order.City)
}

func TestOrderHistory(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	ts.seedProduct(t, category.ID, "widget", "10")

	alice := ts.signUp(t, "Alice", "alice")
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1}, alice)
	require.Equal(t, http.StatusOK, recorder.Code)
	recorder = ts.do(t, http.MethodPost, "/api/orders", nil, alice)
	require.Equal(t, http.StatusOK, recorder.Code)

	// No audit store configured in tests, so the trail is empty.
	recorder = ts.do(t, http.MethodGet, "/api/order/1/history", nil, alice)
	require.Equal(t, http.StatusOK, recorder.Code)
	var history []map[string]interface{}
	decodeJSON(t, recorder, &history)
	assert.Empty(t, history)

	// Ownership rules apply to the trail too.
	bob := ts.signUp(t, "Bob", "bob")
	recorder = ts.do(t, http.MethodGet, "/api/order/1/history", nil, bob)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestOrderUpdateValidation(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUp(t, "Alice", "alice")

	recorder := ts.do(t, http.MethodPost, "/api/order/1", map[string]string{
		"deliveryType": "teleport",
		"paymentType":  "online",
		"status":       "delivery",
		"city":         "Moscow",
		"address":      "Arbat 1",
	}, cookie)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, recorder, &body)
	assert.Contains(t, body.Errors, "deliveryType")
}

func TestCreateOrderFailsWhenProductVanished(t *testing.T) {
	ts := newTestServer(t)
	category := ts.seedCategory(t, "Goods", nil)
	product := ts.seedProduct(t, category.ID, "widget", "10")

	cookie := ts.signUp(t, "Alice", "alice")
	recorder := ts.do(t, http.MethodPost, "/api/basket", map[string]int{"id": 1, "count": 1}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NoError(t, ts.db.Delete(product).Error)

	recorder = ts.do(t, http.MethodPost, "/api/orders", nil, cookie)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPaymentConfirmation(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUp(t, "Alice", "alice")

	recorder := ts.do(t, http.MethodPost, "/api/payment", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)

	var payment struct {
		Number string `json:"number"`
		Name   string `json:"name"`
		Month  int    `json:"month"`
		Year   int    `json:"year"`
		Code   string `json:"code"`
	}
	decodeJSON(t, recorder, &payment)
	assert.Equal(t, "9999999999999999", payment.Number)
	assert.Equal(t, "Alice", payment.Name)
	assert.NotZero(t, payment.Month)
	assert.NotZero(t, payment.Year)
	assert.Equal(t, "123", payment.Code)
}
