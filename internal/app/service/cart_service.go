package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/repository"
	"github.com/ikkim/babdal-backend/internal/persist"
	"github.com/ikkim/babdal-backend/pkg/logger"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidProduct  = errors.New("product reference is missing id or merchant")
	ErrLineNotFound    = errors.New("cart line not found")
)

// CartService owns the in-progress order. All mutations run synchronously
// against in-memory state and schedule a fire-and-forget write of the whole
// state; queries never touch the store.
type CartService interface {
	State() model.CartState
	CanAddItem(product model.Product) bool
	LineQuantity(productID string, toppingIDs []string, instructions string) int
	AddItem(product model.Product, quantity int, toppings []model.Topping, instructions string) (model.CartLineItem, error)
	UpdateQuantity(lineID string, quantity int) error
	RemoveItem(lineID string) error
	Clear()
}

type cartService struct {
	repo   repository.CartRepository
	writer *persist.Writer

	// Guards state: the engine itself is single-owner, but HTTP handlers
	// may call concurrently.
	mu    sync.Mutex
	state model.CartState
}

// NewCartService restores the cart from the store. Load failures fall back
// to the empty cart with a logged warning; startup never fails on bad
// snapshot bytes.
func NewCartService(repo repository.CartRepository, writer *persist.Writer) CartService {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("Failed to restore cart state, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		state = model.EmptyCartState()
	}

	logger.Info("Cart state restored", map[string]interface{}{
		"lines":      len(state.Items),
		"item_count": state.ItemCount,
	})

	return &cartService{
		repo:   repo,
		writer: writer,
		state:  state,
	}
}

func (s *cartService) State() model.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *cartService) CanAddItem(product model.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Merchant == nil || s.state.Merchant.ID == product.MerchantID
}

func (s *cartService) LineQuantity(productID string, toppingIDs []string, instructions string) int {
	key := model.LineKey(productID, toppingIDs, instructions)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if item.Key() == key {
			return item.Quantity
		}
	}
	return 0
}

// AddItem validates before touching state, then either replaces the whole
// cart (merchant switch), merges into the line sharing the identity key, or
// appends a new line. The merchant-switch path destroys existing lines
// unconditionally: the confirmation prompt is the caller's responsibility.
func (s *cartService) AddItem(product model.Product, quantity int, toppings []model.Topping, instructions string) (model.CartLineItem, error) {
	if quantity < 1 {
		logger.Warn("Rejected cart add: invalid quantity", map[string]interface{}{
			"product_id": product.ID,
			"quantity":   quantity,
		})
		return model.CartLineItem{}, ErrInvalidQuantity
	}
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.MerchantID) == "" {
		logger.Warn("Rejected cart add: incomplete product reference", map[string]interface{}{
			"product_id":  product.ID,
			"merchant_id": product.MerchantID,
		})
		return model.CartLineItem{}, ErrInvalidProduct
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Merchant != nil && s.state.Merchant.ID != product.MerchantID {
		logger.Info("Merchant switch: replacing cart contents", map[string]interface{}{
			"old_merchant": s.state.Merchant.ID,
			"new_merchant": product.MerchantID,
			"dropped":      len(s.state.Items),
		})
		s.state = model.EmptyCartState()
	}

	line := model.CartLineItem{
		ID:                  uuid.NewString(),
		ProductID:           product.ID,
		ProductName:         product.Name,
		UnitPrice:           product.UnitPrice,
		MerchantID:          product.MerchantID,
		MerchantName:        product.MerchantName,
		Quantity:            quantity,
		Toppings:            toppings,
		SpecialInstructions: instructions,
	}

	merged := false
	key := line.Key()
	for n, existing := range s.state.Items {
		if existing.Key() != key {
			continue
		}
		// Merge: keep the existing line's toppings and instructions, only
		// the quantity accumulates.
		existing.Quantity += quantity
		existing.Subtotal = existing.ComputeSubtotal()
		s.state.Items[n] = existing
		line = existing
		merged = true
		break
	}

	if !merged {
		line.Subtotal = line.ComputeSubtotal()
		s.state.Items = append(s.state.Items, line)
	}

	if s.state.Merchant == nil {
		s.state.Merchant = &model.MerchantRef{ID: product.MerchantID, Name: product.MerchantName}
	}
	s.state.Recompute()
	s.persistLocked()

	logger.Info("Cart item added", map[string]interface{}{
		"line_id":    line.ID,
		"product_id": product.ID,
		"quantity":   line.Quantity,
		"merged":     merged,
		"total":      s.state.Total.String(),
	})
	return line.Clone(), nil
}

// UpdateQuantity replaces the line's quantity; zero or negative behaves as
// removal.
func (s *cartService) UpdateQuantity(lineID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(lineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for n, item := range s.state.Items {
		if item.ID != lineID {
			continue
		}
		item.Quantity = quantity
		item.Subtotal = item.ComputeSubtotal()
		s.state.Items[n] = item
		s.state.Recompute()
		s.persistLocked()

		logger.Info("Cart line quantity updated", map[string]interface{}{
			"line_id":  lineID,
			"quantity": quantity,
		})
		return nil
	}

	logger.Warn("Cart line not found for update", map[string]interface{}{
		"line_id": lineID,
	})
	return ErrLineNotFound
}

func (s *cartService) RemoveItem(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n, item := range s.state.Items {
		if item.ID != lineID {
			continue
		}
		s.state.Items = append(s.state.Items[:n], s.state.Items[n+1:]...)
		s.state.Recompute()
		s.persistLocked()

		logger.Info("Cart line removed", map[string]interface{}{
			"line_id":   lineID,
			"remaining": len(s.state.Items),
		})
		return nil
	}

	logger.Warn("Cart line not found for removal", map[string]interface{}{
		"line_id": lineID,
	})
	return ErrLineNotFound
}

func (s *cartService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = model.EmptyCartState()
	s.persistLocked()
	logger.Info("Cart cleared", nil)
}

// persistLocked schedules a write of the current state. Must be called with
// the mutex held; the snapshot is taken by value so the in-flight write is
// unaffected by later mutations.
func (s *cartService) persistLocked() {
	snapshot := s.state.Clone()
	s.writer.Enqueue(repository.CartStateKey, func(ctx context.Context) error {
		return s.repo.Save(ctx, snapshot)
	})
}
