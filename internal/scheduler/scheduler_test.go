package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/foldnode/internal/telemetry"
)

func TestParseSchedule_Next(t *testing.T) {
	from := time.Date(2026, 5, 1, 10, 17, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"0 * * * *", time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC)},
		{"*/15 * * * *", time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"@every 1h", time.Date(2026, 5, 1, 11, 17, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		schedule, err := ParseSchedule(tt.expr)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.expr, err)
		}
		if got := schedule.Next(from); !got.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.expr, tt.want, got)
		}
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	for _, expr := range []string{"", "not a cron", "* * *", "61 * * * *"} {
		if _, err := ParseSchedule(expr); !errors.Is(err, ErrInvalidCronExpr) {
			t.Errorf("%q: expected ErrInvalidCronExpr, got %v", expr, err)
		}
	}
}

func TestScheduler_Tick(t *testing.T) {
	runs := 0
	s, err := New(Config{
		Name:   "test",
		Expr:   "0 * * * *",
		Job:    func(context.Context) { runs++ },
		Logger: telemetry.Discard(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	start := time.Date(2026, 5, 1, 10, 17, 0, 0, time.UTC)

	if s.Tick(ctx, start) {
		t.Error("job should not run before the first due time")
	}
	if !s.Tick(ctx, start.Add(43*time.Minute)) {
		t.Error("job should run at 11:00")
	}
	if s.Tick(ctx, start.Add(44*time.Minute)) {
		t.Error("job should not run twice within the hour")
	}
	if !s.Tick(ctx, start.Add(2*time.Hour)) {
		t.Error("job should run again after the next due time")
	}

	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s, err := New(Config{Expr: "@every 1h", Job: func(context.Context) {}, TickInterval: time.Millisecond, Logger: telemetry.Discard()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
