package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/kvstore"
)

// RecurringOrdersKey is the store key holding the serialized collection of
// recurring-order definitions.
const RecurringOrdersKey = "recurring_orders"

type RecurringOrderRepository interface {
	Load(ctx context.Context) ([]model.RecurringOrder, error)
	Save(ctx context.Context, orders []model.RecurringOrder) error
}

type recurringOrderRepository struct {
	store kvstore.Store
}

func NewRecurringOrderRepository(store kvstore.Store) RecurringOrderRepository {
	return &recurringOrderRepository{store: store}
}

// Load restores the definition collection. A missing key yields the empty
// collection with no error; unreadable bytes yield the empty collection and
// the decode error so the caller can log the fallback.
func (r *recurringOrderRepository) Load(ctx context.Context) ([]model.RecurringOrder, error) {
	raw, err := r.store.Get(ctx, RecurringOrdersKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load recurring orders: %w", err)
	}

	var orders []model.RecurringOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("decode recurring orders: %w", err)
	}
	return orders, nil
}

func (r *recurringOrderRepository) Save(ctx context.Context, orders []model.RecurringOrder) error {
	if orders == nil {
		orders = []model.RecurringOrder{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode recurring orders: %w", err)
	}
	return r.store.Set(ctx, RecurringOrdersKey, raw)
}
