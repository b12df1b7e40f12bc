// Package mq — очередь запусков синхронизации на RabbitMQ.
//
// Поток сообщений:
//
//	api / scheduler ──sync.requested──▶ tenders.sync ──▶ tenders-worker
//	syncer         ──sync.completed──▶ tenders.sync ──▶ внешние подписчики
//
// Нечитаемые сообщения и повторно упавшие после redelivery уходят
// через tenders.dlq в очередь dlq.sync. Connection переподключается
// сам; Consumer после этого заново подписывается на очередь.
package mq
