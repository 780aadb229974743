package predict

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

// --- Test Helpers ---

type fakePredictor struct {
	pred *Prediction
	err  error
}

func (f *fakePredictor) Predict(context.Context, string, string) (*Prediction, error) {
	return f.pred, f.err
}

type fakeRelaxer struct {
	input string
}

func (f *fakeRelaxer) Relax(_ context.Context, structurePath, _ string) (*Relaxed, error) {
	data, err := os.ReadFile(structurePath)
	if err != nil {
		return nil, err
	}
	f.input = string(data)
	return &Relaxed{Structure: "RELAXED\n", Violations: 2}, nil
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// --- Confidence Tests ---

func TestBand(t *testing.T) {
	tests := []struct {
		plddt float64
		want  int
	}{
		{10, 0},
		{49.9, 0},
		{50, 1},
		{69.9, 1},
		{70, 2},
		{89.9, 2},
		{90, 3},
		{99, 3},
	}

	for _, tt := range tests {
		if got := Band(tt.plddt); got != tt.want {
			t.Errorf("Band(%v): expected %d, got %d", tt.plddt, tt.want, got)
		}
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(&Prediction{PLDDT: []float64{40, 60, 80, 100}, MaxPAE: 31.75})

	if m.Residues != 4 || m.MeanPLDDT != 70 {
		t.Errorf("unexpected summary: %+v", m)
	}
	if m.BandCounts != [4]int{1, 1, 1, 1} {
		t.Errorf("unexpected band counts: %v", m.BandCounts)
	}
	if m.MaxPAE != 31.75 {
		t.Errorf("expected max PAE to be carried, got %v", m.MaxPAE)
	}
}

// --- Stage Tests ---

func TestStage_Run(t *testing.T) {
	dir := t.TempDir()
	relaxer := &fakeRelaxer{}

	s := NewStage(StageConfig{
		Predictor: &fakePredictor{pred: &Prediction{
			PLDDT:     []float64{95, 85},
			PAE:       [][]float64{{0, 1}, {1, 0}},
			MaxPAE:    31.75,
			Structure: "UNRELAXED\n",
		}},
		Relaxer: relaxer,
		Logger:  telemetry.Discard(),
	})

	out, err := s.Run(context.Background(), filepath.Join(dir, "features.json"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if relaxer.input != "UNRELAXED\n" {
		t.Errorf("relaxer should receive unrelaxed structure, got %q", relaxer.input)
	}

	wantKinds := []domain.ArtifactKind{domain.ArtifactPrediction, domain.ArtifactMetrics, domain.ArtifactPAE}
	if len(out.Items) != len(wantKinds) {
		t.Fatalf("expected %d items, got %d", len(wantKinds), len(out.Items))
	}
	for i, k := range wantKinds {
		if out.Items[i].Kind != k {
			t.Errorf("item %d: expected %s, got %s", i, k, out.Items[i].Kind)
		}
	}

	pdb, _ := os.ReadFile(out.Items[0].Path)
	if string(pdb) != "RELAXED\n" {
		t.Errorf("expected relaxed structure in artifact, got %q", pdb)
	}

	var m Metrics
	data, _ := os.ReadFile(out.Items[1].Path)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if m.MeanPLDDT != 90 || m.Violations != 2 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestStage_NoPAENoRelaxer(t *testing.T) {
	dir := t.TempDir()
	s := NewStage(StageConfig{
		Predictor: &fakePredictor{pred: &Prediction{PLDDT: []float64{50}, Structure: "ATOM\n"}},
		Logger:    telemetry.Discard(),
	})

	out, err := s.Run(context.Background(), "features.json", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("expected 2 items without PAE, got %d", len(out.Items))
	}
}

func TestStage_PredictorError(t *testing.T) {
	s := NewStage(StageConfig{
		Predictor: &fakePredictor{err: ErrEngineUnavailable},
		Logger:    telemetry.Discard(),
	})

	_, err := s.Run(context.Background(), "features.json", t.TempDir())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

// --- Exec Tests ---

func TestExecPredictor(t *testing.T) {
	script := writeScript(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift ;;
    --params) params="$2"; shift ;;
  esac
  shift
done
[ "$params" = "/models" ] || { echo "bad params $params" >&2; exit 2; }
[ "$FOLD_GPU" = "1" ] || { echo "gpu env missing" >&2; exit 3; }
printf '%s' '{"plddt":[70,90],"structure":"ATOM 1\nEND\n"}' > "$out"
`)

	p := &ExecPredictor{Binary: script, ParamsDir: "/models", Env: []string{"FOLD_GPU=1"}}

	pred, err := p.Predict(context.Background(), "features.json", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pred.PLDDT) != 2 || pred.Structure != "ATOM 1\nEND\n" {
		t.Errorf("unexpected prediction: %+v", pred)
	}
}

func TestExecPredictor_Failure(t *testing.T) {
	script := writeScript(t, "echo 'out of memory' >&2\nexit 1\n")

	p := &ExecPredictor{Binary: script}
	if _, err := p.Predict(context.Background(), "f.json", t.TempDir()); !errors.Is(err, ErrPredictionFailed) {
		t.Errorf("expected ErrPredictionFailed, got %v", err)
	}
}

func TestExecPredictor_EmptyStructure(t *testing.T) {
	script := writeScript(t, `
while [ $# -gt 0 ]; do
  case "$1" in --output) out="$2"; shift ;; esac
  shift
done
echo '{"plddt":[]}' > "$out"
`)

	p := &ExecPredictor{Binary: script}
	if _, err := p.Predict(context.Background(), "f.json", t.TempDir()); !errors.Is(err, ErrEmptyStructure) {
		t.Errorf("expected ErrEmptyStructure, got %v", err)
	}
}

func TestExecRelaxer(t *testing.T) {
	script := writeScript(t, `
while [ $# -gt 0 ]; do
  case "$1" in
    --input) in="$2"; shift ;;
    --output) out="$2"; shift ;;
  esac
  shift
done
[ -f "$in" ] || exit 4
echo '{"structure":"RELAXED","violations":1}' > "$out"
`)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdb")
	os.WriteFile(in, []byte("ATOM"), 0o644)

	r := &ExecRelaxer{Binary: script}
	relaxed, err := r.Relax(context.Background(), in, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if relaxed.Structure != "RELAXED" || relaxed.Violations != 1 {
		t.Errorf("unexpected relax result: %+v", relaxed)
	}
}

func TestExecRelaxer_MissingBinary(t *testing.T) {
	r := &ExecRelaxer{Binary: filepath.Join(t.TempDir(), "missing")}
	if _, err := r.Relax(context.Background(), "in.pdb", t.TempDir()); !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}
