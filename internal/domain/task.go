package domain

import (
	"encoding/json"
	"time"
)

// Task — единица работы, выданная координатором воркеру.
//
// Task создаётся при получении от координатора (GET next-task)
// и изменяется только трекером жизненного цикла (lifecycle.Tracker).
// После перехода в терминальный статус task освобождается.
type Task struct {
	// ID — непрозрачный идентификатор task на стороне координатора.
	ID string `json:"task_id"`

	// RawSequence — последовательность в том виде, в каком её прислал координатор
	// (строка или массив однобуквенных строк).
	RawSequence json.RawMessage `json:"sequence"`

	// Sequence — провалидированная последовательность.
	// Заполняется через ParseSequence перед запуском pipeline.
	Sequence Sequence `json:"-"`

	// WalletAddress — идентичность исполнителя (кошелёк воркера).
	WalletAddress string `json:"wallet_address,omitempty"`

	// PointerWallet — вторичная идентичность для общих входных данных (опционально).
	PointerWallet string `json:"pointer_wallet,omitempty"`

	// Status — текущий статус task.
	Status TaskStatus `json:"status,omitempty"`

	// StartedAt — время начала обработки.
	StartedAt *time.Time `json:"-"`

	// FinishedAt — время перехода в терминальный статус.
	FinishedAt *time.Time `json:"-"`

	// Error — текст ошибки при неудаче.
	Error string `json:"-"`
}

// Duration возвращает продолжительность обработки.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если task завершён.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// MarkPending переводит task в начальный статус pending.
func (t *Task) MarkPending() {
	now := time.Now()
	t.Status = TaskStatusPending
	t.StartedAt = &now
	t.FinishedAt = nil
	t.Error = ""
}

// MarkStatus переводит task в нетерминальный статус.
func (t *Task) MarkStatus(status TaskStatus) {
	t.Status = status
}

// MarkCompleted переводит task в статус completed.
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.FinishedAt = &now
}

// MarkFailed переводит task в статус failed с ошибкой.
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.FinishedAt = &now
	t.Error = err
}
