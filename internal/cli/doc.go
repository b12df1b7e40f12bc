// Package cli реализует инструмент командной строки Tenders.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Tenders API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Tenders API. Инкапсулирует HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	result, err := client.RunSync(cli.SyncRequest{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, статусные сообщения в stderr
// (в JSON-режиме они подавляются), поэтому работает
// tenders-cli tenders recent --json | jq .
// Пустая таблица печатает "No records found.".
//
// ## Commands
//
//   - sync: run, logs
//   - tenders: stats, recent
//
// Группы создаются фабричными функциями (NewSyncCmd, NewTendersCmd),
// принимающими clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
