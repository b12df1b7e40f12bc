package domain

import "time"

// Schedule — правило периодического запуска синхронизации.
// Задаётся в конфигурации: cron-выражение или интервал в секундах.
// Cron имеет приоритет, если заданы оба.
type Schedule struct {
	Name string `json:"name" toml:"name"`

	// CronExpr — пятипольный cron ("0 * * * *" — раз в час).
	CronExpr string `json:"cron_expr,omitempty" toml:"cron"`

	IntervalSec int `json:"interval_sec,omitempty" toml:"interval_sec"`

	// Timezone — IANA-пояс для cron (пусто — UTC).
	Timezone string `json:"timezone" toml:"timezone"`

	Enabled bool `json:"enabled" toml:"enabled"`

	// Settings — параметры каждого запуска по этому расписанию.
	Settings SyncSettings `json:"settings" toml:"settings"`

	// Состояние в памяти scheduler, в конфигурацию не попадает.
	NextDueAt *time.Time `json:"next_due_at,omitempty" toml:"-"`
	LastRunAt *time.Time `json:"last_run_at,omitempty" toml:"-"`
}

// IsCron — расписание задано cron-выражением.
func (s *Schedule) IsCron() bool { return s.CronExpr != "" }

// IsInterval — расписание задано интервалом (и cron не задан).
func (s *Schedule) IsInterval() bool { return !s.IsCron() && s.IntervalSec > 0 }

// Interval возвращает IntervalSec как time.Duration.
func (s *Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalSec) * time.Second
}

// IsDue — включено, NextDueAt вычислен и уже наступил.
func (s *Schedule) IsDue(now time.Time) bool {
	return s.Enabled && s.NextDueAt != nil && !now.Before(*s.NextDueAt)
}

// RecordRun фиксирует запуск в at и следующий срок nextDue.
func (s *Schedule) RecordRun(at, nextDue time.Time) {
	s.LastRunAt, s.NextDueAt = &at, &nextDue
}
