// Package api — локальный HTTP-интерфейс воркера.
//
// Структура:
//   - handler.go    — Handler и обработчик /api/v1/status
//   - routes.go     — регистрация маршрутов (/healthz, /metrics, /api/v1/status)
//   - middleware.go — middleware (logging, recovery)
//   - response.go   — JSON-ответы и ответы с ошибкой
//
// Интерфейс только для чтения: воркер управляется координатором, а не через API.
package api
