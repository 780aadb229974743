package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronExpr — cron-выражение не разбирается.
var ErrInvalidCronExpr = errors.New("invalid cron expression")

const defaultTickInterval = time.Second

// Job — периодическая задача. Ошибки обрабатывает сама.
type Job func(ctx context.Context)

// Scheduler запускает Job по cron-расписанию.
type Scheduler struct {
	name     string
	schedule cron.Schedule
	job      Job
	tick     time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	next time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	// Name — имя задачи для логов.
	Name string

	// Expr — cron-выражение.
	Expr string

	Job Job

	// TickInterval — период проверки расписания (default: 1s).
	TickInterval time.Duration

	Logger *slog.Logger
}

// New создаёт Scheduler. Ошибка — только при невалидном Expr.
func New(cfg Config) (*Scheduler, error) {
	schedule, err := ParseSchedule(cfg.Expr)
	if err != nil {
		return nil, err
	}

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		name:     cfg.Name,
		schedule: schedule,
		job:      cfg.Job,
		tick:     tick,
		logger:   logger,
	}, nil
}

// Run проверяет расписание каждый тик до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "job", s.name, "next_run", s.Next(time.Now()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Next возвращает запланированное время следующего запуска.
func (s *Scheduler) Next(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next.IsZero() {
		s.next = s.schedule.Next(now)
	}
	return s.next
}

// Tick запускает Job, если время пришло. Возвращает true, если Job запускался.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) bool {
	due := s.Next(now)
	if now.Before(due) {
		return false
	}

	s.mu.Lock()
	s.next = s.schedule.Next(now)
	next := s.next
	s.mu.Unlock()

	s.logger.Debug("running scheduled job", "job", s.name, "next_run", next)
	s.job(ctx)
	return true
}
