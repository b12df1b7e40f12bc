// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go        — Handler с DI (syncer, publisher, журнал, индекс, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (request id, recovery, logging, metrics)
//   - response.go       — унифицированные JSON-ответы и обработка ошибок
//   - dto.go            — Data Transfer Objects
//   - sync_handler.go   — запуск синхронизации и журнал (/sync)
//   - tender_handler.go — сводка и последние тендеры (/tenders), /healthz
//
// Ответы оборачиваются в {"data": ...}, ошибки — в {"error": {"code", "message"}}.
// Каждый ответ несёт X-Request-ID; тот же id попадает в логи запроса
// и синхронного запуска.
package api
