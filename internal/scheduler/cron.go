package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Tenders/internal/domain"
)

// cronParser — стандартный пятипольный формат (без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextDue вычисляет следующее время запуска после from.
//
// Cron-выражение вычисляется в часовом поясе расписания
// (пустой или неизвестный пояс — UTC), интервал просто добавляется.
// Результат всегда в UTC.
func NextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc := time.UTC
	if sched.Timezone != "" {
		if l, err := time.LoadLocation(sched.Timezone); err == nil {
			loc = l
		}
	}
	return nextDueIn(sched, from, loc)
}

func nextDueIn(sched *domain.Schedule, from time.Time, loc *time.Location) (time.Time, error) {
	switch {
	case sched.IsCron():
		spec, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", sched.CronExpr, err)
		}
		return spec.Next(from.In(loc)).UTC(), nil

	case sched.IsInterval():
		return from.Add(sched.Interval()).UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("schedule %q has neither cron nor interval_sec", sched.Name)
	}
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}
