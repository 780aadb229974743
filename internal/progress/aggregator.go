// Package progress агрегирует прогресс поиска по нескольким базам.
//
// Глобальный прогресс — сумма завершённых чанков по всем базам, делённая
// на сумму их ChunkCount. Вес базы определяется её размером в чанках,
// а не временем поиска, поэтому метрика детерминирована.
//
// Aggregator создаётся на один task и передаётся в оркестратор поиска;
// наружу отдаются только неизменяемые Snapshot.
package progress

import (
	"sync"

	"github.com/shaiso/foldnode/internal/domain"
)

// SourceProgress — прогресс одной базы.
type SourceProgress struct {
	Name  string
	Done  int
	Total int
}

// Snapshot — неизменяемый срез прогресса на момент вызова.
type Snapshot struct {
	Done    int
	Total   int
	Sources []SourceProgress
}

// Fraction возвращает глобальный прогресс в [0, 1].
func (s Snapshot) Fraction() float64 {
	if s.Total <= 0 {
		return 0
	}
	if s.Done >= s.Total {
		return 1
	}
	return float64(s.Done) / float64(s.Total)
}

// Source возвращает прогресс базы по имени.
func (s Snapshot) Source(name string) (SourceProgress, bool) {
	for _, sp := range s.Sources {
		if sp.Name == name {
			return sp, true
		}
	}
	return SourceProgress{}, false
}

// Aggregator — потокобезопасный счётчик чанков по базам.
type Aggregator struct {
	mu     sync.Mutex
	order  []string
	totals map[string]int
	done   map[string]int
	total  int
}

// NewAggregator создаёт Aggregator для набора баз.
func NewAggregator(sources []domain.SourceConfig) *Aggregator {
	a := &Aggregator{
		order:  make([]string, 0, len(sources)),
		totals: make(map[string]int, len(sources)),
		done:   make(map[string]int, len(sources)),
	}

	for _, src := range sources {
		if _, dup := a.totals[src.Name]; dup || src.ChunkCount <= 0 {
			continue
		}
		a.order = append(a.order, src.Name)
		a.totals[src.Name] = src.ChunkCount
		a.total += src.ChunkCount
	}

	return a
}

// Update применяет событие и возвращает новый Snapshot.
//
// Прогресс базы не уменьшается: событие с меньшим UnitsDone игнорируется.
// UnitsDone ограничивается сверху объявленным ChunkCount. События
// неизвестных баз не меняют состояние.
func (a *Aggregator) Update(ev domain.ProgressEvent) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if total, ok := a.totals[ev.SourceName]; ok {
		done := min(ev.UnitsDone, total)
		if done > a.done[ev.SourceName] {
			a.done[ev.SourceName] = done
		}
	}

	return a.snapshotLocked()
}

// Complete помечает базу полностью обработанной.
// Используется, когда движок завершился раньше последнего чанка (ошибка базы).
func (a *Aggregator) Complete(source string) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if total, ok := a.totals[source]; ok {
		a.done[source] = total
	}

	return a.snapshotLocked()
}

// Snapshot возвращает текущий прогресс.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Total:   a.total,
		Sources: make([]SourceProgress, len(a.order)),
	}

	for i, name := range a.order {
		done := a.done[name]
		snap.Done += done
		snap.Sources[i] = SourceProgress{Name: name, Done: done, Total: a.totals[name]}
	}

	return snap
}
