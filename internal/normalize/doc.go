// Package normalize превращает разнородные записи внешнего API в документы индекса.
//
// Нормализация не завершается ошибкой: записи без идентификатора
// отклоняются (считаются failed), повторы внутри запуска отбрасываются
// (считаются duplicates), остальные получают documentId, added_date и source.
package normalize
