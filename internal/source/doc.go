// Package source отвечает за получение записей тендеров из внешнего API.
//
// Структура:
//   - params.go  — преобразование SyncSettings в query-параметры запроса
//   - fetcher.go — HTTP-запрос с таймаутом и разбор конверта ответа
//   - errors.go  — ErrFetch, ErrMalformedResponse, StatusError
//
// Внешний API считается ненадёжным: таймауты, невалидные тела ответа
// и пустые массивы встречаются на практике. Fetcher не повторяет запросы:
// повтор — забота вызывающей стороны (например, следующего тика планировщика).
package source
