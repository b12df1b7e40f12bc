// Package scheduler запускает синхронизацию тендеров по расписанию.
//
// Расписания задаются в конфигурации (cron или интервал). Scheduler
// периодически проверяет NextDueAt и запускает синхронизацию: через
// очередь sync.requested (если настроен RabbitMQ) или синхронно.
//
// Структура:
//   - scheduler.go — Scheduler (New, Tick, Run)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Schedules:  cfg.Sync.Schedules,
//	    Runner:     syncer,
//	    Dispatcher: publisher, // опционально
//	    Logger:     logger,
//	})
//	sched.Run(ctx, time.Second)
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Tick вызывается только лидером.
package scheduler
