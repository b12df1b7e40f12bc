package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnexpectedMessage — в очередь sync.requested пришло сообщение другого типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")

	// ErrInterrupted — синхронизация прервана остановкой воркера.
	ErrInterrupted = errors.New("sync interrupted")
)
