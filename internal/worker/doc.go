// Package worker выполняет синхронизации, поставленные в очередь.
//
// # Обзор
//
// Worker — stateless процесс, который потребляет сообщения sync.requested
// из RabbitMQ и для каждого запускает синхронизацию через Runner
// (*syncer.Syncer) с идентификатором и параметрами из сообщения.
// Сообщения публикуют API (POST /api/v1/sync?async=true) и Scheduler.
//
//	w := worker.New(worker.Config{
//	    Runner: syncer,
//	    Conn:   mqConn,
//	    Logger: logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Подтверждение сообщений
//
//   - Синхронизация выполнена (успешно или нет) — ack
//   - Неверный тип сообщения или payload — nack в DLQ (mq.ErrPermanent)
//   - Воркер остановлен посреди синхронизации — nack с возвратом в очередь;
//     если сообщение уже было доставлено повторно, оно уходит в DLQ
//
// Повторов внутри воркера нет: неуспешная синхронизация уже записана
// в журнал, следующую запустит планировщик или пользователь.
package worker
