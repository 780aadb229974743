package alignment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaiso/foldnode/internal/domain"
)

// Имена файлов артефактов в рабочем каталоге task.
const (
	StockholmFile = "stockholm.txt"
	FeaturesFile  = "features.json"
)

// FeatureBundle — набор признаков для модели предсказания.
type FeatureBundle struct {
	Query        string         `json:"query"`
	QueryLength  int            `json:"query_length"`
	Depth        int            `json:"depth"`
	Rows         []Row          `json:"rows"`
	SourceCounts map[string]int `json:"source_counts"`
}

// Features строит FeatureBundle для последовательности запроса.
func (r *Result) Features(query domain.Sequence) FeatureBundle {
	return FeatureBundle{
		Query:        query.String(),
		QueryLength:  query.Len(),
		Depth:        r.Merged.Depth(),
		Rows:         r.Rows,
		SourceCounts: r.SourceCounts(),
	}
}

// Paths — пути к записанным артефактам.
type Paths struct {
	Stockholm string
	Features  string
}

// WriteArtifacts пишет stockholm.txt и features.json в dir.
func (r *Result) WriteArtifacts(dir string, query domain.Sequence) (Paths, error) {
	paths := Paths{
		Stockholm: filepath.Join(dir, StockholmFile),
		Features:  filepath.Join(dir, FeaturesFile),
	}

	f, err := os.Create(paths.Stockholm)
	if err != nil {
		return Paths{}, fmt.Errorf("create stockholm: %w", err)
	}
	if err := r.WriteStockholm(f); err != nil {
		f.Close()
		return Paths{}, fmt.Errorf("write stockholm: %w", err)
	}
	if err := f.Close(); err != nil {
		return Paths{}, fmt.Errorf("close stockholm: %w", err)
	}

	data, err := json.Marshal(r.Features(query))
	if err != nil {
		return Paths{}, fmt.Errorf("marshal features: %w", err)
	}
	if err := os.WriteFile(paths.Features, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write features: %w", err)
	}

	return paths, nil
}
