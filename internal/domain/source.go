package domain

import "strings"

// SourceConfig — конфигурация одной референсной базы для поиска.
//
// Список SourceConfig формируется один раз при старте (после выбора зеркала)
// и далее только читается.
type SourceConfig struct {
	// Name — имя базы ("uniref90", "smallbfd", "mgnify").
	Name string `json:"name"`

	// RootPath — корень выбранного зеркала (с завершающим "/").
	RootPath string `json:"root_path"`

	// FileName — имя файла базы относительно RootPath.
	FileName string `json:"file_name"`

	// ChunkCount — количество последовательно стримящихся чанков (> 0).
	ChunkCount int `json:"chunk_count"`

	// ExpectedPopulation — ожидаемое число последовательностей в базе (Z-value).
	// Используется движком для нормализации, на корректность не влияет.
	ExpectedPopulation int64 `json:"expected_population"`

	// MaxHits — максимальное число попаданий, сохраняемых после дедупликации.
	// 0 — без ограничения.
	MaxHits int `json:"max_hits,omitempty"`
}

// DatabasePath возвращает полный путь к базе (без суффикса чанка).
func (c SourceConfig) DatabasePath() string {
	return c.RootPath + c.FileName
}

// DefaultMirrors — варианты суффиксов зеркал в порядке приоритета.
var DefaultMirrors = []string{"", "-europe", "-asia"}

// MirrorRootPattern — шаблон корня зеркала; %s заменяется суффиксом из DefaultMirrors.
const MirrorRootPattern = "https://storage.googleapis.com/alphafold-colab%s/latest/"

// MirrorProbeFile — файл, наличие которого проверяется на зеркале.
const MirrorProbeFile = "uniref90_2022_01.fasta.1"

// DefaultSources возвращает стандартный набор баз, привязанный к корню root.
func DefaultSources(root string) []SourceConfig {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}

	return []SourceConfig{
		{
			Name:               "uniref90",
			RootPath:           root,
			FileName:           "uniref90_2022_01.fasta",
			ChunkCount:         62,
			ExpectedPopulation: 144_113_457,
			MaxHits:            10_000,
		},
		{
			Name:               "smallbfd",
			RootPath:           root,
			FileName:           "bfd-first_non_consensus_sequences.fasta",
			ChunkCount:         17,
			ExpectedPopulation: 65_984_053,
			MaxHits:            5_000,
		},
		{
			Name:               "mgnify",
			RootPath:           root,
			FileName:           "mgy_clusters_2022_05.fasta",
			ChunkCount:         120,
			ExpectedPopulation: 623_796_864,
			MaxHits:            501,
		},
	}
}
