// Package alignment объединяет результаты поиска по базам в одно выравнивание
// и сериализует его в артефакты task.
package alignment

import (
	"fmt"
	"slices"

	"github.com/shaiso/foldnode/internal/domain"
)

// Result — объединённое выравнивание вместе с исходными блоками по базам.
type Result struct {
	// Merged — глобально дедуплицированные последовательности.
	Merged domain.MergedAlignment

	// Blocks — сохранённые попадания каждой непустой базы в порядке баз.
	Blocks []domain.SearchResult

	// Rows — провенанс строк Merged в том же порядке.
	Rows []Row
}

// Row — строка объединённого выравнивания.
type Row struct {
	Descriptor string `json:"descriptor"`
	Sequence   string `json:"sequence"`
	Source     string `json:"source"`
}

// Merge объединяет результаты в порядке баз.
//
// Последовательности сравниваются по точному тексту, первое появление
// побеждает и определяет атрибуцию. Пустые результаты пропускаются.
func Merge(results []domain.SearchResult) (*Result, error) {
	res := &Result{
		Merged: domain.MergedAlignment{
			Attribution: make(map[string]string),
		},
	}

	for _, r := range results {
		if r.IsEmpty() {
			continue
		}
		res.Blocks = append(res.Blocks, domain.SearchResult{
			SourceName: r.SourceName,
			Hits:       slices.Clone(r.Hits),
		})

		for _, h := range r.Hits {
			if _, seen := res.Merged.Attribution[h.Sequence]; seen {
				continue
			}
			res.Merged.Attribution[h.Sequence] = r.SourceName
			res.Merged.Sequences = append(res.Merged.Sequences, h.Sequence)
			res.Rows = append(res.Rows, Row{
				Descriptor: h.Descriptor,
				Sequence:   h.Sequence,
				Source:     r.SourceName,
			})
		}
	}

	if res.Merged.Depth() == 0 {
		return nil, fmt.Errorf("%w: %d results merged", ErrEmptyAlignment, len(results))
	}

	return res, nil
}

// SourceCounts возвращает число строк Merged, атрибутированных каждой базе.
func (r *Result) SourceCounts() map[string]int {
	counts := make(map[string]int, len(r.Blocks))
	for _, row := range r.Rows {
		counts[row.Source]++
	}
	return counts
}
