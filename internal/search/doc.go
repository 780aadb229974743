// Package search выполняет поиск гомологов по нескольким референсным базам.
//
// # Обзор
//
// Каждая база (domain.SourceConfig) разбита на ChunkCount чанков, которые
// движок поиска обрабатывает последовательно. Orchestrator вызывает движок
// один раз на базу и task, на каждый завершённый чанк публикует
// domain.ProgressEvent и обновляет progress.Aggregator.
//
// # Деградация
//
// Ошибка движка на одной базе логируется и превращает базу в "ноль попаданий".
// Базы без попаданий выбрасываются из объединения с предупреждением.
// Если пусто везде — ErrNoResults.
//
// Невозможность запустить движок (ErrEngineUnavailable) не поглощается
// и прерывает task сразу.
//
// # Временные файлы
//
// FASTA-файл запроса создаётся во временном каталоге на время одного вызова
// Search и удаляется на любом пути выхода.
//
// # ExecEngine
//
// Адаптер к внешнему бинарю поиска. Бинарь вызывается на каждый чанк:
//
//	BIN [args...] --query QUERY.fasta --database ROOT/FILE.N --z-value Z
//
// и печатает попадания в stdout в формате FASTA.
package search
