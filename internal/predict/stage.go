// Package predict запускает предсказание и релаксацию структуры
// и готовит артефакты для загрузки.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
)

// Имена файлов артефактов.
const (
	StructureFile = "prediction.pdb"
	MetricsFile   = "metrics.json"
	PAEFile       = "pae.json"
	unrelaxedFile = "unrelaxed.pdb"
)

// Stage — стадия предсказания: predict → relax → артефакты.
type Stage struct {
	predictor Predictor
	relaxer   Relaxer
	logger    *slog.Logger
}

// StageConfig — конфигурация Stage.
type StageConfig struct {
	Predictor Predictor

	// Relaxer (опционально; без него загружается нерелаксированная структура).
	Relaxer Relaxer

	Logger *slog.Logger
}

// NewStage создаёт Stage.
func NewStage(cfg StageConfig) *Stage {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Stage{
		predictor: cfg.Predictor,
		relaxer:   cfg.Relaxer,
		logger:    logger,
	}
}

// Output — результат стадии.
type Output struct {
	// Items — артефакты для загрузки в порядке загрузки.
	Items []domain.UploadItem

	Metrics Metrics
}

// Run предсказывает структуру по featuresPath и пишет артефакты в workDir.
func (s *Stage) Run(ctx context.Context, featuresPath, workDir string) (*Output, error) {
	start := time.Now()

	pred, err := s.predictor.Predict(ctx, featuresPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	unrelaxed := filepath.Join(workDir, unrelaxedFile)
	if err := os.WriteFile(unrelaxed, []byte(pred.Structure), 0o644); err != nil {
		return nil, fmt.Errorf("write unrelaxed structure: %w", err)
	}

	structure := pred.Structure
	metrics := ComputeMetrics(pred)

	if s.relaxer != nil {
		relaxed, err := s.relaxer.Relax(ctx, unrelaxed, workDir)
		if err != nil {
			return nil, fmt.Errorf("relax: %w", err)
		}
		structure = relaxed.Structure
		metrics.Violations = relaxed.Violations
	}

	structurePath := filepath.Join(workDir, StructureFile)
	if err := os.WriteFile(structurePath, []byte(structure), 0o644); err != nil {
		return nil, fmt.Errorf("write structure: %w", err)
	}

	metricsPath := filepath.Join(workDir, MetricsFile)
	if err := writeJSON(metricsPath, metrics); err != nil {
		return nil, fmt.Errorf("write metrics: %w", err)
	}

	out := &Output{
		Items: []domain.UploadItem{
			{Kind: domain.ArtifactPrediction, Path: structurePath},
			{Kind: domain.ArtifactMetrics, Path: metricsPath},
		},
		Metrics: metrics,
	}

	if len(pred.PAE) > 0 {
		paePath := filepath.Join(workDir, PAEFile)
		pae := map[string]any{
			"predicted_aligned_error":     pred.PAE,
			"max_predicted_aligned_error": pred.MaxPAE,
		}
		if err := writeJSON(paePath, pae); err != nil {
			return nil, fmt.Errorf("write pae: %w", err)
		}
		out.Items = append(out.Items, domain.UploadItem{Kind: domain.ArtifactPAE, Path: paePath})
	}

	s.logger.Info("structure predicted",
		"residues", metrics.Residues,
		"mean_plddt", metrics.MeanPLDDT,
		"violations", metrics.Violations,
		"duration", time.Since(start),
	)

	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
