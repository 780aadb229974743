package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUploadFailed — хотя бы один артефакт не загружен.
	ErrUploadFailed = errors.New("artifact upload failed")

	// ErrTaskPanicked — pipeline завершился panic.
	ErrTaskPanicked = errors.New("task panicked")

	// ErrNoTaskID — координатор выдал task без идентификатора.
	ErrNoTaskID = errors.New("task without id")
)
