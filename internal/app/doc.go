// Package app собирает зависимости процессов tenders-api, tenders-worker
// и tenders-scheduler из config.Config: хранилище журнала, клиент индекса,
// источник, брокер и Syncer.
package app
