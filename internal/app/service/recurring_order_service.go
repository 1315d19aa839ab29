package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/babdal-backend/internal/app/model"
	"github.com/ikkim/babdal-backend/internal/app/repository"
	"github.com/ikkim/babdal-backend/internal/persist"
	"github.com/ikkim/babdal-backend/internal/recurrence"
	"github.com/ikkim/babdal-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

var ErrRecurringOrderNotFound = errors.New("recurring order not found")

// RecurringOrderStats is the aggregate view over all definitions.
type RecurringOrderStats struct {
	ActiveCount        int             `json:"active_count"`
	TotalCount         int             `json:"total_count"`
	TotalExecutions    int             `json:"total_executions"`
	TotalValueExecuted decimal.Decimal `json:"total_value_executed"`
}

// RecurringOrderService owns the collection of recurring-order definitions.
// It only maintains when each definition next fires; actually placing the
// order is the executor's job (scheduler.RecurringOrderRunner or any other
// caller of MarkExecuted).
type RecurringOrderService interface {
	List() []model.RecurringOrder
	Get(id string) (model.RecurringOrder, error)
	Create(snapshot model.OrderSnapshot, cfg model.RecurrenceConfig) (model.RecurringOrder, error)
	UpdateConfig(id string, cfg model.RecurrenceConfig) (model.RecurringOrder, error)
	ToggleActive(id string) (model.RecurringOrder, error)
	Delete(id string) error
	Upcoming(withinHours int) []model.RecurringOrder
	Stats() RecurringOrderStats
	MarkExecuted(id string, at time.Time) (model.RecurringOrder, error)
}

type recurringOrderService struct {
	repo   repository.RecurringOrderRepository
	writer *persist.Writer
	now    func() time.Time

	mu     sync.Mutex
	orders []model.RecurringOrder
}

// NewRecurringOrderService restores the definition collection from the
// store, falling back to an empty collection on load failure. An optional
// clock can be injected for tests.
func NewRecurringOrderService(repo repository.RecurringOrderRepository, writer *persist.Writer, clock ...func() time.Time) RecurringOrderService {
	now := time.Now
	if len(clock) > 0 && clock[0] != nil {
		now = clock[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orders, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("Failed to restore recurring orders, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
		orders = nil
	}

	logger.Info("Recurring orders restored", map[string]interface{}{
		"count": len(orders),
	})

	return &recurringOrderService{
		repo:   repo,
		writer: writer,
		now:    now,
		orders: orders,
	}
}

func (s *recurringOrderService) List() []model.RecurringOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.RecurringOrder, len(s.orders))
	for n, order := range s.orders {
		out[n] = order.Clone()
	}
	return out
}

func (s *recurringOrderService) Get(id string) (model.RecurringOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.ID == id {
			return order.Clone(), nil
		}
	}
	return model.RecurringOrder{}, ErrRecurringOrderNotFound
}

func (s *recurringOrderService) Create(snapshot model.OrderSnapshot, cfg model.RecurrenceConfig) (model.RecurringOrder, error) {
	if err := cfg.Validate(); err != nil {
		logger.Warn("Rejected recurring order: invalid config", map[string]interface{}{
			"type": string(cfg.Type),
		})
		return model.RecurringOrder{}, err
	}

	now := s.now()
	next := recurrence.NextExecution(cfg, now)
	order := model.RecurringOrder{
		ID:              uuid.NewString(),
		Snapshot:        snapshot.Clone(),
		Config:          cfg,
		IsActive:        true,
		CreatedAt:       now,
		ExecutionCount:  0,
		NextExecutionAt: &next,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	s.persistLocked()

	logger.Info("Recurring order created", map[string]interface{}{
		"id":       order.ID,
		"type":     string(cfg.Type),
		"next":     next.Format(time.RFC3339),
		"merchant": snapshot.Merchant.ID,
	})
	return order.Clone(), nil
}

func (s *recurringOrderService) UpdateConfig(id string, cfg model.RecurrenceConfig) (model.RecurringOrder, error) {
	if err := cfg.Validate(); err != nil {
		return model.RecurringOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for n, order := range s.orders {
		if order.ID != id {
			continue
		}
		order.Config = cfg
		if order.IsActive {
			next := recurrence.NextExecution(cfg, s.now())
			order.NextExecutionAt = &next
		} else {
			order.NextExecutionAt = nil
		}
		s.orders[n] = order
		s.persistLocked()

		logger.Info("Recurring order config updated", map[string]interface{}{
			"id":   id,
			"type": string(cfg.Type),
		})
		return order.Clone(), nil
	}

	logger.Warn("Recurring order not found for config update", map[string]interface{}{
		"id": id,
	})
	return model.RecurringOrder{}, ErrRecurringOrderNotFound
}

// ToggleActive flips the active flag. Reactivating recomputes the next
// execution from the current time, not from the original creation time.
func (s *recurringOrderService) ToggleActive(id string) (model.RecurringOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n, order := range s.orders {
		if order.ID != id {
			continue
		}
		order.IsActive = !order.IsActive
		if order.IsActive {
			next := recurrence.NextExecution(order.Config, s.now())
			order.NextExecutionAt = &next
		} else {
			order.NextExecutionAt = nil
		}
		s.orders[n] = order
		s.persistLocked()

		logger.Info("Recurring order toggled", map[string]interface{}{
			"id":     id,
			"active": order.IsActive,
		})
		return order.Clone(), nil
	}

	logger.Warn("Recurring order not found for toggle", map[string]interface{}{
		"id": id,
	})
	return model.RecurringOrder{}, ErrRecurringOrderNotFound
}

func (s *recurringOrderService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n, order := range s.orders {
		if order.ID != id {
			continue
		}
		s.orders = append(s.orders[:n], s.orders[n+1:]...)
		s.persistLocked()

		logger.Info("Recurring order deleted", map[string]interface{}{
			"id": id,
		})
		return nil
	}

	logger.Warn("Recurring order not found for delete", map[string]interface{}{
		"id": id,
	})
	return ErrRecurringOrderNotFound
}

// Upcoming returns active definitions due within the window, sorted
// ascending by next execution time.
func (s *recurringOrderService) Upcoming(withinHours int) []model.RecurringOrder {
	deadline := s.now().Add(time.Duration(withinHours) * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.RecurringOrder
	for _, order := range s.orders {
		if !order.IsActive || order.NextExecutionAt == nil {
			continue
		}
		if order.NextExecutionAt.After(deadline) {
			continue
		}
		out = append(out, order.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextExecutionAt.Before(*out[j].NextExecutionAt)
	})
	return out
}

func (s *recurringOrderService) Stats() RecurringOrderStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := RecurringOrderStats{TotalValueExecuted: decimal.Zero}
	for _, order := range s.orders {
		stats.TotalCount++
		if order.IsActive {
			stats.ActiveCount++
		}
		stats.TotalExecutions += order.ExecutionCount
		executed := order.Snapshot.Total.Mul(decimal.NewFromInt(int64(order.ExecutionCount)))
		stats.TotalValueExecuted = stats.TotalValueExecuted.Add(executed)
	}
	return stats
}

// MarkExecuted records one firing of the definition: increments the
// execution count, stamps the execution time, and recomputes the next
// execution from it.
func (s *recurringOrderService) MarkExecuted(id string, at time.Time) (model.RecurringOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n, order := range s.orders {
		if order.ID != id {
			continue
		}
		order.ExecutionCount++
		executedAt := at
		order.LastExecutedAt = &executedAt
		if order.IsActive {
			next := recurrence.NextExecution(order.Config, at)
			order.NextExecutionAt = &next
		}
		s.orders[n] = order
		s.persistLocked()

		logger.Info("Recurring order execution recorded", map[string]interface{}{
			"id":    id,
			"count": order.ExecutionCount,
		})
		return order.Clone(), nil
	}

	logger.Warn("Recurring order not found for execution record", map[string]interface{}{
		"id": id,
	})
	return model.RecurringOrder{}, ErrRecurringOrderNotFound
}

// persistLocked schedules a write of the whole collection. Must be called
// with the mutex held.
func (s *recurringOrderService) persistLocked() {
	snapshot := make([]model.RecurringOrder, len(s.orders))
	for n, order := range s.orders {
		snapshot[n] = order.Clone()
	}
	s.writer.Enqueue(repository.RecurringOrdersKey, func(ctx context.Context) error {
		return s.repo.Save(ctx, snapshot)
	})
}
