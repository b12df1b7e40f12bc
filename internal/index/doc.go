// Package index — доступ к поисковому индексу тендеров (Elasticsearch).
//
// Структура:
//   - client.go  — Client и его конфигурация (адрес, учётные данные, имя индекса)
//   - bulk.go    — пакетная запись документов (_bulk, refresh=true)
//   - mapping.go — проверка соединения и создание индекса с маппингом
//   - stats.go   — чтение: Count, Stats для дашборда, Recent
//   - errors.go  — ErrIndexing, ErrQuery
//
// Client создаётся явно в main и передаётся зависимым компонентам.
// Ошибки чтения возвращаются вызывающей стороне как есть:
// подстановки демонстрационных данных нет.
package index
