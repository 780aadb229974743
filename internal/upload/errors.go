package upload

import "errors"

// Ошибки загрузки.
var (
	// ErrRetryExhausted — все попытки загрузки артефакта исчерпаны.
	ErrRetryExhausted = errors.New("upload retry attempts exhausted")

	// ErrArtifactMissing — файл артефакта не удалось открыть. Не ретраится.
	ErrArtifactMissing = errors.New("artifact file missing")
)
