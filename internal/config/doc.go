// Package config загружает конфигурацию сервисов: значения по умолчанию,
// затем TOML-файл, затем переменные окружения.
//
// Переменные окружения:
//
//	DB_DRIVER, DB_URL                       — журнал синхронизаций
//	ELASTICSEARCH_URL (через запятую)       — узлы кластера
//	ELASTICSEARCH_USERNAME, _PASSWORD       — basic auth
//	ELASTICSEARCH_TENDERS_INDEX             — имя индекса
//	ELASTICSEARCH_VERIFY_SSL                — проверка TLS (true/false)
//	TENDERS_API_URL, TENDERS_API_TIMEOUT    — внешний API
//	RABBITMQ_URL                            — брокер
//	API_PORT                                — порт HTTP API
//	SYNC_CRON                               — заменяет расписания одним cron
package config
