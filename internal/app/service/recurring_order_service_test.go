package service

import (
	"testing"
	"time"

	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/repository"
	"github.com/ikkim/babdal-backend/internal/kvstore"
	"github.com/ikkim/babdal-backend/internal/persist"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recurringTestEnv struct {
	service RecurringOrderService
	store   *kvstore.MemoryStore
	writer  *persist.Writer
	now     *time.Time
}

func setupRecurringOrderTest(t *testing.T) *recurringTestEnv {
	store := kvstore.NewMemoryStore()
	writer := persist.NewWriter()
	t.Cleanup(writer.Close)

	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	env := &recurringTestEnv{store: store, writer: writer, now: &now}
	repo := repository.NewRecurringOrderRepository(store)
	env.service = NewRecurringOrderService(repo, writer, func() time.Time { return *env.now })
	return env
}

func testSnapshot(total string) model.OrderSnapshot {
	return model.OrderSnapshot{
		Items: []model.CartLineItem{
			{
				ID:        "line-1",
				ProductID: "p1",
				UnitPrice: decimal.RequireFromString(total),
				Quantity:  1,
				Subtotal:  decimal.RequireFromString(total),
			},
		},
		Merchant:          model.MerchantRef{ID: "m1", Name: "Kimbap Heaven"},
		Total:             decimal.RequireFromString(total),
		DeliveryAddressID: "addr-1",
		PaymentMethodID:   "pm-1",
	}
}

func dailyAt(hour, minute int) model.RecurrenceConfig {
	return model.RecurrenceConfig{Type: model.RecurrenceDaily, Hour: hour, Minute: minute}
}

func TestRecurringOrderService_Create(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.True(t, order.IsActive)
	assert.Equal(t, 0, order.ExecutionCount)
	assert.Nil(t, order.LastExecutedAt)
	require.NotNil(t, order.NextExecutionAt)
	// Clock is 08:00, so today's 09:00 is still ahead.
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), *order.NextExecutionAt)
	assert.Equal(t, *env.now, order.CreatedAt)
}

func TestRecurringOrderService_Create_InvalidConfig(t *testing.T) {
	env := setupRecurringOrderTest(t)

	_, err := env.service.Create(testSnapshot("15000"), model.RecurrenceConfig{
		Type: model.RecurrenceWeekly, Hour: 9, Minute: 0,
	})
	assert.ErrorIs(t, err, model.ErrInvalidRecurrence)
	assert.Empty(t, env.service.List())
}

func TestRecurringOrderService_SnapshotIsFrozen(t *testing.T) {
	env := setupRecurringOrderTest(t)

	snapshot := testSnapshot("15000")
	order, err := env.service.Create(snapshot, dailyAt(9, 0))
	require.NoError(t, err)

	// Mutating the caller's snapshot must not leak into the definition.
	snapshot.Items[0].Quantity = 99

	stored, err := env.service.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Snapshot.Items[0].Quantity)
}

func TestRecurringOrderService_ToggleActive(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	// Toggle off: schedule cleared.
	toggled, err := env.service.ToggleActive(order.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.Nil(t, toggled.NextExecutionAt)

	// Advance the clock past today's slot, then toggle back on: the next
	// execution comes from the current time, not the creation time.
	*env.now = env.now.Add(6 * time.Hour) // 14:00

	toggled, err = env.service.ToggleActive(order.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	require.NotNil(t, toggled.NextExecutionAt)
	assert.Equal(t, time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC), *toggled.NextExecutionAt)
}

func TestRecurringOrderService_ToggleActive_NotFound(t *testing.T) {
	env := setupRecurringOrderTest(t)
	_, err := env.service.ToggleActive("missing")
	assert.ErrorIs(t, err, ErrRecurringOrderNotFound)
}

func TestRecurringOrderService_UpdateConfig(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	updated, err := env.service.UpdateConfig(order.ID, model.RecurrenceConfig{
		Type: model.RecurrenceCustom, Hour: 12, Minute: 0, IntervalDays: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.NextExecutionAt)
	assert.Equal(t, time.Date(2025, time.March, 13, 12, 0, 0, 0, time.UTC), *updated.NextExecutionAt)
}

func TestRecurringOrderService_UpdateConfig_InactiveKeepsNilSchedule(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)
	_, err = env.service.ToggleActive(order.ID)
	require.NoError(t, err)

	updated, err := env.service.UpdateConfig(order.ID, dailyAt(18, 30))
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.NextExecutionAt)
}

func TestRecurringOrderService_UpdateConfig_NotFound(t *testing.T) {
	env := setupRecurringOrderTest(t)
	_, err := env.service.UpdateConfig("missing", dailyAt(9, 0))
	assert.ErrorIs(t, err, ErrRecurringOrderNotFound)
}

func TestRecurringOrderService_Delete(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	require.NoError(t, env.service.Delete(order.ID))
	assert.Empty(t, env.service.List())
	assert.ErrorIs(t, env.service.Delete(order.ID), ErrRecurringOrderNotFound)
}

func TestRecurringOrderService_Upcoming(t *testing.T) {
	env := setupRecurringOrderTest(t)

	// Clock is 08:00. Next executions: 10:00 today (2h away) and 07:00
	// tomorrow (23h away).
	soon, err := env.service.Create(testSnapshot("10000"), dailyAt(10, 0))
	require.NoError(t, err)
	later, err := env.service.Create(testSnapshot("20000"), dailyAt(7, 0))
	require.NoError(t, err)
	inactive, err := env.service.Create(testSnapshot("30000"), dailyAt(10, 30))
	require.NoError(t, err)
	_, err = env.service.ToggleActive(inactive.ID)
	require.NoError(t, err)

	within24 := env.service.Upcoming(24)
	require.Len(t, within24, 2)
	// Sorted ascending by next execution.
	assert.Equal(t, soon.ID, within24[0].ID)
	assert.Equal(t, later.ID, within24[1].ID)

	within1 := env.service.Upcoming(1)
	assert.Empty(t, within1)

	within2 := env.service.Upcoming(2)
	require.Len(t, within2, 1)
	assert.Equal(t, soon.ID, within2[0].ID)
}

func TestRecurringOrderService_MarkExecuted(t *testing.T) {
	env := setupRecurringOrderTest(t)

	order, err := env.service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	executedAt := time.Date(2025, time.March, 10, 9, 0, 30, 0, time.UTC)
	executed, err := env.service.MarkExecuted(order.ID, executedAt)
	require.NoError(t, err)

	assert.Equal(t, 1, executed.ExecutionCount)
	require.NotNil(t, executed.LastExecutedAt)
	assert.Equal(t, executedAt, *executed.LastExecutedAt)
	require.NotNil(t, executed.NextExecutionAt)
	assert.Equal(t, time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC), *executed.NextExecutionAt)
}

func TestRecurringOrderService_Stats(t *testing.T) {
	env := setupRecurringOrderTest(t)

	first, err := env.service.Create(testSnapshot("10000"), dailyAt(9, 0))
	require.NoError(t, err)
	second, err := env.service.Create(testSnapshot("2500.50"), dailyAt(10, 0))
	require.NoError(t, err)
	_, err = env.service.ToggleActive(second.ID)
	require.NoError(t, err)

	_, err = env.service.MarkExecuted(first.ID, *env.now)
	require.NoError(t, err)
	_, err = env.service.MarkExecuted(first.ID, env.now.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = env.service.MarkExecuted(second.ID, *env.now)
	require.NoError(t, err)

	stats := env.service.Stats()
	assert.Equal(t, 1, stats.ActiveCount)
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 3, stats.TotalExecutions)
	// 2*10000 + 1*2500.50
	assert.True(t, stats.TotalValueExecuted.Equal(decimal.RequireFromString("22500.50")),
		"total value executed = %s", stats.TotalValueExecuted)
}

func TestRecurringOrderService_PersistsAndRestores(t *testing.T) {
	store := kvstore.NewMemoryStore()
	writer := persist.NewWriter()
	repo := repository.NewRecurringOrderRepository(store)
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	service := NewRecurringOrderService(repo, writer, clock)
	order, err := service.Create(testSnapshot("15000"), dailyAt(9, 0))
	require.NoError(t, err)

	writer.Flush()
	writer.Close()

	restored := NewRecurringOrderService(repo, persist.NewWriter(), clock)
	orders := restored.List()
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.True(t, orders[0].IsActive)
	assert.True(t, orders[0].Snapshot.Total.Equal(decimal.RequireFromString("15000")))
	require.NotNil(t, orders[0].NextExecutionAt)
	assert.True(t, order.NextExecutionAt.Equal(*orders[0].NextExecutionAt))
}
