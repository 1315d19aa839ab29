package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/babdal-backend/internal/app/service"
	"github.com/ikkim/babdal-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// RecurringOrderRunner 정기 주문 실행 러너
//
// Polls for due definitions every minute and fires them through the order
// placer. There is no exactly-once guarantee: a failed placement is logged
// and the definition stays due for the next tick.
type RecurringOrderRunner struct {
	cron        *cron.Cron
	recurring   service.RecurringOrderService
	placer      service.OrderPlacer
	windowHours int
}

func NewRecurringOrderRunner(recurring service.RecurringOrderService, placer service.OrderPlacer, windowHours int) *RecurringOrderRunner {
	if windowHours < 1 {
		windowHours = 1
	}
	return &RecurringOrderRunner{
		cron:        cron.New(),
		recurring:   recurring,
		placer:      placer,
		windowHours: windowHours,
	}
}

// Start registers the per-minute tick and starts the cron loop.
func (r *RecurringOrderRunner) Start() error {
	_, err := r.cron.AddFunc("* * * * *", r.runDue)
	if err != nil {
		logger.Error("Failed to add cron job for recurring orders", err)
		return err
	}

	r.cron.Start()
	logger.Info("Recurring order runner started", map[string]interface{}{
		"window_hours": r.windowHours,
	})
	return nil
}

// Stop 러너 중지
func (r *RecurringOrderRunner) Stop() {
	logger.Info("Stopping recurring order runner...", nil)
	r.cron.Stop()
	logger.Info("Recurring order runner stopped", nil)
}

func (r *RecurringOrderRunner) runDue() {
	now := time.Now()
	for _, order := range r.recurring.Upcoming(r.windowHours) {
		if order.NextExecutionAt == nil || order.NextExecutionAt.After(now) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		orderID, err := r.placer.PlaceOrder(ctx, order.Snapshot)
		cancel()
		if err != nil {
			logger.Error("Failed to place recurring order", err, map[string]interface{}{
				"id": order.ID,
			})
			continue
		}

		if _, err := r.recurring.MarkExecuted(order.ID, now); err != nil {
			logger.Error("Failed to record recurring order execution", err, map[string]interface{}{
				"id":       order.ID,
				"order_id": orderID,
			})
			continue
		}

		logger.Info("Recurring order executed", map[string]interface{}{
			"id":       order.ID,
			"order_id": orderID,
		})
	}
}
