package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/kvstore"
)

// CartStateKey is the store key holding the serialized cart state.
const CartStateKey = "cart_state"

type CartRepository interface {
	Load(ctx context.Context) (model.CartState, error)
	Save(ctx context.Context, state model.CartState) error
}

type cartRepository struct {
	store kvstore.Store
}

func NewCartRepository(store kvstore.Store) CartRepository {
	return &cartRepository{store: store}
}

// Load restores the cart state. A missing key yields the empty cart with no
// error; unreadable bytes yield the empty cart and the decode error so the
// caller can log the fallback.
func (r *cartRepository) Load(ctx context.Context) (model.CartState, error) {
	raw, err := r.store.Get(ctx, CartStateKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return model.EmptyCartState(), nil
		}
		return model.EmptyCartState(), fmt.Errorf("load cart state: %w", err)
	}

	var state model.CartState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.EmptyCartState(), fmt.Errorf("decode cart state: %w", err)
	}
	state.Recompute()
	return state, nil
}

func (r *cartRepository) Save(ctx context.Context, state model.CartState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart state: %w", err)
	}
	return r.store.Set(ctx, CartStateKey, raw)
}
