// Package repo — хранилище журнала синхронизаций.
//
// Поддерживаются два драйвера:
//   - postgres — основной, через пул pgx (sync_log_repo.go)
//   - sqlite   — встроенный, для локального запуска и тестов (sqlite.go)
//
// Open выбирает реализацию по имени драйвера и создаёт схему.
// Журнал только пополняется: записи не обновляются и не удаляются.
package repo
