// Package recurrence computes when a recurring order next fires. The
// functions are pure; the caller supplies the reference time.
package recurrence

import (
	"time"

	"github.com/ikkim/babdal-backend/internal/app/model"
)

// NextExecution returns the first execution time strictly derived from the
// config and the given reference time. The config is assumed valid
// (model.RecurrenceConfig.Validate).
//
// The anchor is `from` with the configured hour and minute and zeroed
// seconds. Daily configs fire at the anchor if it is still ahead of `from`,
// otherwise the next day. Weekly configs scan forward up to seven days for
// the nearest configured weekday whose anchor is ahead of `from`. Monthly
// configs add one calendar month with Go's AddDate normalization. Custom
// configs add the configured interval in days.
func NextExecution(cfg model.RecurrenceConfig, from time.Time) time.Time {
	anchor := time.Date(from.Year(), from.Month(), from.Day(), cfg.Hour, cfg.Minute, 0, 0, from.Location())

	switch cfg.Type {
	case model.RecurrenceDaily:
		if !anchor.After(from) {
			anchor = anchor.AddDate(0, 0, 1)
		}
		return anchor

	case model.RecurrenceWeekly:
		days := make(map[int]bool, len(cfg.DaysOfWeek))
		for _, d := range cfg.DaysOfWeek {
			days[d] = true
		}
		for offset := 0; offset <= 7; offset++ {
			candidate := anchor.AddDate(0, 0, offset)
			if candidate.After(from) && days[int(candidate.Weekday())] {
				return candidate
			}
		}
		// Unreachable for a validated config: any weekday recurs within
		// seven days.
		return anchor.AddDate(0, 0, 7)

	case model.RecurrenceMonthly:
		return anchor.AddDate(0, 1, 0)

	case model.RecurrenceCustom:
		return anchor.AddDate(0, 0, cfg.IntervalDays)
	}

	return anchor
}
