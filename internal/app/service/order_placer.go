package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/pkg/logger"
)

// loggingOrderPlacer is the development stand-in for the remote ordering
// API: it assigns an order id and logs the placement.
type loggingOrderPlacer struct{}

func NewLoggingOrderPlacer() OrderPlacer {
	return &loggingOrderPlacer{}
}

func (p *loggingOrderPlacer) PlaceOrder(_ context.Context, snapshot model.OrderSnapshot) (string, error) {
	orderID := uuid.NewString()
	logger.Info("Order placed", map[string]interface{}{
		"order_id": orderID,
		"merchant": snapshot.Merchant.ID,
		"lines":    len(snapshot.Items),
		"total":    snapshot.Total.String(),
	})
	return orderID, nil
}
