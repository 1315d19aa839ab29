package service

import (
	"context"
	"errors"

	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/pkg/logger"
)

var ErrEmptyCart = errors.New("cart is empty")

// OrderPlacer is the order-placement collaborator. The engine never calls
// the ordering API directly; the integration (remote HTTP client, test
// fake) is injected here.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, snapshot model.OrderSnapshot) (string, error)
}

// CheckoutRequest carries the caller-chosen fulfillment references and the
// optional opt-in recurrence rule.
type CheckoutRequest struct {
	DeliveryAddressID string
	PaymentMethodID   string
	Recurrence        *model.RecurrenceConfig
}

type CheckoutResult struct {
	OrderID        string                `json:"order_id"`
	Snapshot       model.OrderSnapshot   `json:"snapshot"`
	RecurringOrder *model.RecurringOrder `json:"recurring_order,omitempty"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
}

type checkoutService struct {
	cart      CartService
	recurring RecurringOrderService
	placer    OrderPlacer
}

func NewCheckoutService(cart CartService, recurring RecurringOrderService, placer OrderPlacer) CheckoutService {
	return &checkoutService{
		cart:      cart,
		recurring: recurring,
		placer:    placer,
	}
}

// Checkout snapshots the cart, places the order through the collaborator,
// optionally registers a recurring definition from the same snapshot, then
// clears the cart. Validation happens before any side effect.
func (s *checkoutService) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	state := s.cart.State()
	if len(state.Items) == 0 {
		logger.Warn("Checkout rejected: cart is empty", nil)
		return CheckoutResult{}, ErrEmptyCart
	}
	if req.Recurrence != nil {
		if err := req.Recurrence.Validate(); err != nil {
			logger.Warn("Checkout rejected: invalid recurrence config", map[string]interface{}{
				"type": string(req.Recurrence.Type),
			})
			return CheckoutResult{}, err
		}
	}

	snapshot := model.OrderSnapshot{
		Items:             state.Items,
		Merchant:          *state.Merchant,
		Total:             state.Total,
		DeliveryAddressID: req.DeliveryAddressID,
		PaymentMethodID:   req.PaymentMethodID,
	}

	orderID, err := s.placer.PlaceOrder(ctx, snapshot)
	if err != nil {
		logger.Error("Order placement failed", err, map[string]interface{}{
			"merchant": snapshot.Merchant.ID,
			"total":    snapshot.Total.String(),
		})
		return CheckoutResult{}, err
	}

	result := CheckoutResult{OrderID: orderID, Snapshot: snapshot.Clone()}

	if req.Recurrence != nil {
		recurring, err := s.recurring.Create(snapshot, *req.Recurrence)
		if err != nil {
			// Config was validated up front; reaching this is unexpected
			// and must not lose the already-placed order.
			logger.Error("Failed to create recurring order after placement", err, map[string]interface{}{
				"order_id": orderID,
			})
		} else {
			result.RecurringOrder = &recurring
		}
	}

	s.cart.Clear()

	logger.Info("Checkout completed", map[string]interface{}{
		"order_id":  orderID,
		"merchant":  snapshot.Merchant.ID,
		"total":     snapshot.Total.String(),
		"recurring": result.RecurringOrder != nil,
	})
	return result, nil
}
