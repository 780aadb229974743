package domain

import "time"

// Hit — одно попадание поиска: описание и выровненная последовательность.
type Hit struct {
	Descriptor string `json:"descriptor"`
	Sequence   string `json:"sequence"`
}

// SearchResult — результат поиска по одной базе для одного task.
// Живёт только до объединения.
type SearchResult struct {
	SourceName string `json:"source_name"`
	Hits       []Hit  `json:"hits"`
}

// IsEmpty возвращает true, если попаданий нет.
func (r SearchResult) IsEmpty() bool {
	return len(r.Hits) == 0
}

// MergedAlignment — объединённое выравнивание по всем базам.
//
// Инвариант: в Sequences нет двух одинаковых строк; порядок соответствует
// первому появлению в порядке баз.
type MergedAlignment struct {
	// Sequences — уникальные последовательности в порядке первого появления.
	Sequences []string `json:"sequences"`

	// Attribution — база, в которой последовательность встретилась впервые.
	Attribution map[string]string `json:"attribution"`
}

// Depth возвращает глубину выравнивания.
func (m *MergedAlignment) Depth() int {
	return len(m.Sequences)
}

// ProgressEvent — событие завершения чанка в одной базе.
// Передаётся сразу в трекер, нигде не сохраняется.
type ProgressEvent struct {
	SourceName string    `json:"source_name"`
	UnitsDone  int       `json:"units_done"`
	UnitsTotal int       `json:"units_total"`
	Timestamp  time.Time `json:"timestamp"`
}
