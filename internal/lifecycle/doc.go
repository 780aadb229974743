// Package lifecycle ведёт task по конечному автомату статусов и доставляет
// обновления наружу.
//
// # Автомат
//
//	pending → processing → uploading → completed
//	                     ↘ failed (из любого нетерминального статуса)
//
// Tracker проверяет каждый переход через domain.TaskStatus.CanTransition,
// ограничивает прогресс отрезком [0, 1] и сбрасывает его в 0 при Failed.
// Терминальный статус освобождает Registry — воркер держит не более одного
// task одновременно.
//
// # Доставка
//
// Reporter — ограниченная очередь с одним потребителем. Переходы статуса
// ставятся в очередь с ожиданием места (Send), прогресс чанков — без ожидания
// (Offer) и при переполнении отбрасывается. Ошибки Sink логируются и никогда
// не возвращаются в pipeline.
package lifecycle
