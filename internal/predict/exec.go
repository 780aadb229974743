package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prediction — сырой вывод модели предсказания.
type Prediction struct {
	// PLDDT — уверенность по остаткам, 0–100.
	PLDDT []float64 `json:"plddt"`

	// PAE — predicted aligned error (опционально).
	PAE [][]float64 `json:"pae,omitempty"`

	// MaxPAE — верхняя граница шкалы PAE (опционально).
	MaxPAE float64 `json:"max_pae,omitempty"`

	// Structure — структура в формате PDB.
	Structure string `json:"structure"`
}

// Relaxed — результат релаксации структуры.
type Relaxed struct {
	Structure  string `json:"structure"`
	Violations int    `json:"violations"`
}

// Predictor предсказывает структуру по набору признаков.
type Predictor interface {
	Predict(ctx context.Context, featuresPath, workDir string) (*Prediction, error)
}

// Relaxer релаксирует предсказанную структуру.
type Relaxer interface {
	Relax(ctx context.Context, structurePath, workDir string) (*Relaxed, error)
}

// ExecPredictor запускает внешний бинарь предсказания:
//
//	BIN --features F --params DIR --output OUT.json
type ExecPredictor struct {
	Binary    string
	ParamsDir string

	// Env — дополнительные переменные окружения (GPU-настройки).
	Env []string
}

// Predict запускает бинарь и читает его JSON-вывод.
func (p *ExecPredictor) Predict(ctx context.Context, featuresPath, workDir string) (*Prediction, error) {
	out := filepath.Join(workDir, "prediction.raw.json")

	err := runBinary(ctx, p.Binary, p.Env,
		"--features", featuresPath,
		"--params", p.ParamsDir,
		"--output", out,
	)
	if err != nil {
		return nil, err
	}

	var pred Prediction
	if err := readJSON(out, &pred); err != nil {
		return nil, err
	}
	if strings.TrimSpace(pred.Structure) == "" {
		return nil, ErrEmptyStructure
	}
	return &pred, nil
}

// ExecRelaxer запускает внешний бинарь релаксации:
//
//	BIN --input IN.pdb --output OUT.json
type ExecRelaxer struct {
	Binary string
	Env    []string
}

// Relax запускает бинарь и читает его JSON-вывод.
func (r *ExecRelaxer) Relax(ctx context.Context, structurePath, workDir string) (*Relaxed, error) {
	out := filepath.Join(workDir, "relaxed.raw.json")

	if err := runBinary(ctx, r.Binary, r.Env, "--input", structurePath, "--output", out); err != nil {
		return nil, err
	}

	var relaxed Relaxed
	if err := readJSON(out, &relaxed); err != nil {
		return nil, err
	}
	if strings.TrimSpace(relaxed.Structure) == "" {
		return nil, ErrEmptyStructure
	}
	return &relaxed, nil
}

// runBinary запускает бинарь и ждёт завершения.
func runBinary(ctx context.Context, binary string, env []string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrEngineUnavailable, binary, err)
	}
	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrPredictionFailed, filepath.Base(binary), err, msg)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read output: %v", ErrPredictionFailed, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode output: %v", ErrPredictionFailed, err)
	}
	return nil
}
