// Package syncer — оркестратор синхронизации тендеров.
//
// Один запуск (Syncer.Run) проходит этапы:
//
//	NORMALIZING   — SyncSettings → query-параметры
//	FETCHING      — запрос к внешнему API (source.Fetcher)
//	TRANSFORMING  — documentId, дедупликация, служебные поля (normalize)
//	INDEXING      — _bulk в индекс и классификация результатов (Indexer)
//	LOGGING       — запись в sync_logs (Recorder)
//	DONE
//
// Сбой FETCHING или INDEXING завершает запуск с Success=false и
// сообщением с префиксом этапа. Сбой LOGGING только логируется.
//
// Счётчики: total = полученные записи; added + updated + failed + duplicates == total.
package syncer
