package search

import "errors"

// Ошибки поиска.
var (
	// ErrNoResults — ни одна база не дала попаданий.
	ErrNoResults = errors.New("no search results from any source")

	// ErrEngineUnavailable — движок поиска не удалось запустить.
	// Фатально для task, не поглощается на уровне базы.
	ErrEngineUnavailable = errors.New("search engine unavailable")

	// ErrEngineFailed — движок завершился с ошибкой на базе.
	ErrEngineFailed = errors.New("search engine failed")

	// ErrMalformedOutput — вывод движка не разбирается как FASTA.
	ErrMalformedOutput = errors.New("malformed search output")
)
