package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusUpdate — одно исходящее обновление статуса task.
//
// Отправляется координатору и, опционально, в журнал и шину событий.
// Доставка best-effort: потерянное обновление не откатывает переход.
type StatusUpdate struct {
	// ID — идентификатор обновления (для идемпотентности в журнале и MQ).
	ID uuid.UUID `json:"id"`

	TaskID        string     `json:"task_id"`
	WalletAddress string     `json:"wallet_address"`
	Status        TaskStatus `json:"status"`

	// Progress — доля выполнения в [0, 1].
	Progress float64 `json:"progress"`

	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
