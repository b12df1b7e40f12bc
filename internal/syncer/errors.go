package syncer

import "errors"

// ErrLogPersistence — запись журнала синхронизации не сохранена.
// Не влияет на результат запуска: данные уже в индексе.
var ErrLogPersistence = errors.New("sync log persistence failed")
