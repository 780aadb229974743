package predict

import "errors"

// Ошибки стадии предсказания.
var (
	// ErrEngineUnavailable — бинарь предсказания или релаксации не запускается.
	ErrEngineUnavailable = errors.New("prediction engine unavailable")

	// ErrPredictionFailed — движок завершился с ошибкой или вернул некорректный вывод.
	ErrPredictionFailed = errors.New("prediction failed")

	// ErrEmptyStructure — движок не вернул структуру.
	ErrEmptyStructure = errors.New("empty predicted structure")
)
