package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

// --- Sequence Tests ---

func TestParseSequence_String(t *testing.T) {
	seq, err := ParseSequence(json.RawMessage(`"mkt aYIAK\n"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != "MKTAYIAK" {
		t.Errorf("expected MKTAYIAK, got %q", seq)
	}
	if seq.Len() != 8 {
		t.Errorf("expected length 8, got %d", seq.Len())
	}
}

func TestParseSequence_LetterArray(t *testing.T) {
	seq, err := ParseSequence(json.RawMessage(`["M","K","T"]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != "MKT" {
		t.Errorf("expected MKT, got %q", seq)
	}
}

func TestParseSequence_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"null", `null`, ErrEmptySequence},
		{"empty raw", ``, ErrEmptySequence},
		{"empty string", `""`, ErrEmptySequence},
		{"whitespace only", `"  \n"`, ErrEmptySequence},
		{"digit", `"MK1T"`, ErrInvalidResidue},
		{"unknown letter", `"MKXT"`, ErrInvalidResidue},
		{"number", `42`, ErrMalformedSequence},
		{"object", `{"seq":"MKT"}`, ErrMalformedSequence},
		{"multi-letter element", `["MK","T"]`, ErrMalformedSequence},
		{"non-string element", `[1,2]`, ErrMalformedSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSequence(json.RawMessage(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSequence_FASTA(t *testing.T) {
	seq := Sequence("MKT")
	if got := seq.FASTA(); got != ">query\nMKT" {
		t.Errorf("unexpected FASTA: %q", got)
	}
}

// --- Status Tests ---

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{TaskStatusPending, TaskStatusProcessing, true},
		{TaskStatusProcessing, TaskStatusUploading, true},
		{TaskStatusUploading, TaskStatusCompleted, true},
		{TaskStatusPending, TaskStatusCompleted, false},
		{TaskStatusProcessing, TaskStatusCompleted, false},
		{TaskStatusPending, TaskStatusUploading, false},
		{TaskStatusUploading, TaskStatusProcessing, false},
		{TaskStatusPending, TaskStatusFailed, true},
		{TaskStatusProcessing, TaskStatusFailed, true},
		{TaskStatusUploading, TaskStatusFailed, true},
		{TaskStatusCompleted, TaskStatusFailed, false},
		{TaskStatusFailed, TaskStatusProcessing, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.ok {
			t.Errorf("%s → %s: expected %v, got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	if !TaskStatusCompleted.IsTerminal() || !TaskStatusFailed.IsTerminal() {
		t.Error("completed and failed should be terminal")
	}
	if TaskStatusPending.IsTerminal() || TaskStatusUploading.IsTerminal() {
		t.Error("pending and uploading should not be terminal")
	}
}

// --- Task Tests ---

func TestTask_Marks(t *testing.T) {
	task := &Task{ID: "t1"}

	task.MarkPending()
	if task.Status != TaskStatusPending || task.StartedAt == nil {
		t.Fatal("MarkPending should set status and StartedAt")
	}

	task.MarkFailed("boom")
	if !task.IsFinished() {
		t.Error("task should be finished")
	}
	if task.Error != "boom" {
		t.Errorf("expected error boom, got %q", task.Error)
	}
	if task.Duration() < 0 {
		t.Error("duration should not be negative")
	}
}

// --- Source Tests ---

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources("https://mirror/latest")

	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}

	wantChunks := map[string]int{"uniref90": 62, "smallbfd": 17, "mgnify": 120}
	for _, s := range sources {
		if s.ChunkCount != wantChunks[s.Name] {
			t.Errorf("%s: expected %d chunks, got %d", s.Name, wantChunks[s.Name], s.ChunkCount)
		}
	}

	if got := sources[0].DatabasePath(); got != "https://mirror/latest/uniref90_2022_01.fasta" {
		t.Errorf("unexpected database path: %s", got)
	}
}
