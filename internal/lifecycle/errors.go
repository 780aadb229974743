package lifecycle

import "errors"

// Ошибки жизненного цикла.
var (
	// ErrInvalidTransition — переход статуса недопустим.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTaskInFlight — воркер уже обрабатывает другой task.
	ErrTaskInFlight = errors.New("another task is in flight")

	// ErrReporterClosed — Reporter остановлен.
	ErrReporterClosed = errors.New("reporter closed")
)
