// Package telemetry — логирование и метрики процессов tenders-*.
//
// Логи: slog, JSON по умолчанию (LOG_FORMAT=text для разработки),
// уровень из LOG_LEVEL. Каждая запись несёт service; контекстные
// поля добавляются хелперами With*: sync_id, schedule, message_id
// и request_id.
//
// Метрики (Prometheus, отдаются на /metrics):
//
//	tenders_sync_runs_total{outcome}
//	tenders_sync_documents_total{result}
//	tenders_sync_duration_seconds
//	tenders_sync_stage_duration_seconds{stage}
//	tenders_http_requests_total{service}
package telemetry
