package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type RecurrenceType string // 반복 주기 유형

const (
	RecurrenceDaily   RecurrenceType = "daily"   // 매일
	RecurrenceWeekly  RecurrenceType = "weekly"  // 매주 지정 요일
	RecurrenceMonthly RecurrenceType = "monthly" // 매월 같은 날
	RecurrenceCustom  RecurrenceType = "custom"  // N일 간격
)

var ErrInvalidRecurrence = errors.New("invalid recurrence config")

// RecurrenceConfig is the rule governing when a recurring order next fires.
// Type selects the variant; DaysOfWeek applies to weekly configs only
// (0 = Sunday .. 6 = Saturday), IntervalDays to custom configs only.
//
// Monthly configs follow Go's AddDate month arithmetic: a day-of-month that
// does not exist in the target month rolls over into the following month
// (Jan 31 + 1 month = Mar 2/3).
type RecurrenceConfig struct {
	Type         RecurrenceType `json:"type"`
	Hour         int            `json:"hour"`
	Minute       int            `json:"minute"`
	DaysOfWeek   []int          `json:"days_of_week,omitempty"`
	IntervalDays int            `json:"interval_days,omitempty"`
}

// Validate checks the variant invariants.
func (c RecurrenceConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return ErrInvalidRecurrence
	}
	switch c.Type {
	case RecurrenceDaily, RecurrenceMonthly:
		return nil
	case RecurrenceWeekly:
		if len(c.DaysOfWeek) == 0 {
			return ErrInvalidRecurrence
		}
		for _, d := range c.DaysOfWeek {
			if d < 0 || d > 6 {
				return ErrInvalidRecurrence
			}
		}
		return nil
	case RecurrenceCustom:
		if c.IntervalDays < 1 {
			return ErrInvalidRecurrence
		}
		return nil
	default:
		return ErrInvalidRecurrence
	}
}

// OrderSnapshot is the frozen copy of a composed order taken at checkout.
// It is never re-derived from the live cart.
type OrderSnapshot struct {
	Items             []CartLineItem  `json:"items"`
	Merchant          MerchantRef     `json:"merchant"`
	Total             decimal.Decimal `json:"total"`
	DeliveryAddressID string          `json:"delivery_address_id,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s OrderSnapshot) Clone() OrderSnapshot {
	out := s
	if s.Items != nil {
		out.Items = make([]CartLineItem, len(s.Items))
		for n, item := range s.Items {
			out.Items[n] = item.Clone()
		}
	}
	return out
}

// RecurringOrder 정기 주문 정의
//
// ExecutionCount and LastExecutedAt are written only through MarkExecuted
// (the executor-side bookkeeping); NextExecutionAt is nil whenever the
// definition is inactive.
type RecurringOrder struct {
	ID              string           `json:"id"`
	Snapshot        OrderSnapshot    `json:"snapshot"`
	Config          RecurrenceConfig `json:"config"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	ExecutionCount  int              `json:"execution_count"`
	LastExecutedAt  *time.Time       `json:"last_executed_at,omitempty"`
	NextExecutionAt *time.Time       `json:"next_execution_at,omitempty"`
}

// Clone returns a deep copy of the definition.
func (r RecurringOrder) Clone() RecurringOrder {
	out := r
	out.Snapshot = r.Snapshot.Clone()
	if r.Config.DaysOfWeek != nil {
		out.Config.DaysOfWeek = make([]int, len(r.Config.DaysOfWeek))
		copy(out.Config.DaysOfWeek, r.Config.DaysOfWeek)
	}
	if r.LastExecutedAt != nil {
		t := *r.LastExecutedAt
		out.LastExecutedAt = &t
	}
	if r.NextExecutionAt != nil {
		t := *r.NextExecutionAt
		out.NextExecutionAt = &t
	}
	return out
}
