package controller

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/repository"
	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/internal/kvstore"
	"github.com/ikkim/babdal-backend/internal/persist"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecurringControllerTest(t *testing.T) (*gin.Engine, service.RecurringOrderService) {
	gin.SetMode(gin.TestMode)

	store := kvstore.NewMemoryStore()
	writer := persist.NewWriter()
	t.Cleanup(writer.Close)

	clock := func() time.Time { return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC) }
	recurringService := service.NewRecurringOrderService(repository.NewRecurringOrderRepository(store), writer, clock)
	ctrl := NewRecurringOrderController(recurringService)

	router := gin.New()
	router.GET("/api/v1/recurring-orders", ctrl.List)
	router.GET("/api/v1/recurring-orders/upcoming", ctrl.Upcoming)
	router.GET("/api/v1/recurring-orders/stats", ctrl.Stats)
	router.GET("/api/v1/recurring-orders/:id", ctrl.Get)
	router.PUT("/api/v1/recurring-orders/:id/config", ctrl.UpdateConfig)
	router.POST("/api/v1/recurring-orders/:id/toggle", ctrl.Toggle)
	router.DELETE("/api/v1/recurring-orders/:id", ctrl.Delete)
	return router, recurringService
}

func createRecurringOrder(t *testing.T, recurringService service.RecurringOrderService) model.RecurringOrder {
	t.Helper()
	order, err := recurringService.Create(model.OrderSnapshot{
		Items: []model.CartLineItem{
			{ID: "line-1", ProductID: "p1", UnitPrice: decimal.RequireFromString("9000"), Quantity: 1, Subtotal: decimal.RequireFromString("9000")},
		},
		Merchant: model.MerchantRef{ID: "m1", Name: "Kimbap Heaven"},
		Total:    decimal.RequireFromString("9000"),
	}, model.RecurrenceConfig{Type: model.RecurrenceDaily, Hour: 9, Minute: 0})
	require.NoError(t, err)
	return order
}

func TestRecurringOrderController_ListAndGet(t *testing.T) {
	router, recurringService := setupRecurringControllerTest(t)
	order := createRecurringOrder(t, recurringService)

	w := doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), order.ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/"+order.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":true`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RECURRING_NOT_FOUND")
}

func TestRecurringOrderController_UpdateConfig(t *testing.T) {
	router, recurringService := setupRecurringControllerTest(t)
	order := createRecurringOrder(t, recurringService)

	body := `{"config": {"type": "weekly", "hour": 18, "minute": 30, "days_of_week": [1, 4]}}`
	w := doJSON(t, router, http.MethodPut, "/api/v1/recurring-orders/"+order.ID+"/config", body)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := recurringService.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecurrenceWeekly, updated.Config.Type)
	assert.Equal(t, []int{1, 4}, updated.Config.DaysOfWeek)

	// Weekly without days is rejected.
	invalid := `{"config": {"type": "weekly", "hour": 18, "minute": 30}}`
	w = doJSON(t, router, http.MethodPut, "/api/v1/recurring-orders/"+order.ID+"/config", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "RECURRING_INVALID_CONFIG")
}

func TestRecurringOrderController_ToggleAndDelete(t *testing.T) {
	router, recurringService := setupRecurringControllerTest(t)
	order := createRecurringOrder(t, recurringService)

	w := doJSON(t, router, http.MethodPost, "/api/v1/recurring-orders/"+order.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":false`)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/recurring-orders/"+order.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/recurring-orders/"+order.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecurringOrderController_Upcoming(t *testing.T) {
	router, recurringService := setupRecurringControllerTest(t)
	createRecurringOrder(t, recurringService) // next fires 09:00, clock is 08:00

	w := doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/upcoming", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/upcoming?within_hours=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/upcoming?within_hours=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecurringOrderController_Stats(t *testing.T) {
	router, recurringService := setupRecurringControllerTest(t)
	order := createRecurringOrder(t, recurringService)
	_, err := recurringService.MarkExecuted(order.ID, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/api/v1/recurring-orders/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_count":1`)
	assert.Contains(t, w.Body.String(), `"total_executions":1`)
	assert.Contains(t, w.Body.String(), `"total_value_executed":"9000"`)
}
