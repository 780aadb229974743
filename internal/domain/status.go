package domain

// TaskStatus — статус обработки task на стороне воркера.
//
// Жизненный цикл:
//
//	pending → processing → uploading → completed
//	   ↘           ↘            ↘
//	                 failed (из любого нетерминального статуса)
//
// Значения совпадают с теми, что ожидает координатор в task-progress.
type TaskStatus string

const (
	// TaskStatusPending — task получен, идёт поиск выравниваний.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusProcessing — выравнивания объединены, идёт предсказание структуры.
	TaskStatusProcessing TaskStatus = "processing"

	// TaskStatusUploading — артефакты загружаются координатору.
	TaskStatusUploading TaskStatus = "uploading"

	// TaskStatusCompleted — task успешно завершён.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed — task завершился с ошибкой.
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// CanTransition проверяет, допустим ли переход из s в next.
//
// Failed достижим из любого нетерминального статуса.
// Completed достижим только из Uploading.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case TaskStatusFailed:
		return true
	case TaskStatusProcessing:
		return s == TaskStatusPending
	case TaskStatusUploading:
		return s == TaskStatusProcessing
	case TaskStatusCompleted:
		return s == TaskStatusUploading
	default:
		return false
	}
}
