// Package upload загружает артефакты task координатору с повторными попытками.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

// Sender отправляет тело артефакта. Любая ошибка считается временной.
type Sender interface {
	UploadArtifact(ctx context.Context, taskID string, kind domain.ArtifactKind, name string, body io.Reader) error
}

// Policy — политика повторов.
type Policy struct {
	// MaxAttempts — максимум попыток на артефакт, включая первую.
	MaxAttempts int

	// InitialDelay — задержка перед второй попыткой; далее удваивается.
	InitialDelay time.Duration

	// MaxDelay — верхняя граница задержки.
	MaxDelay time.Duration
}

// DefaultPolicy: 3 попытки, задержки 4s и 8s, потолок 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 4 * time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// SleepFunc ждёт d или отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Uploader загружает артефакты по одному.
type Uploader struct {
	sender Sender
	policy Policy
	sleep  SleepFunc
	logger *slog.Logger
}

// Config — конфигурация Uploader.
type Config struct {
	Sender Sender

	// Policy (опционально; нулевые поля заменяются DefaultPolicy).
	Policy Policy

	// Sleep (опционально; по умолчанию — таймер с учётом ctx).
	Sleep SleepFunc

	Logger *slog.Logger
}

// New создаёт Uploader.
func New(cfg Config) *Uploader {
	def := DefaultPolicy()
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = def.InitialDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Uploader{
		sender: cfg.Sender,
		policy: policy,
		sleep:  sleep,
		logger: logger,
	}
}

// ItemFunc вызывается после обработки каждого артефакта (i — индекс с 0).
type ItemFunc func(i, total int, item domain.UploadItem, err error)

// UploadAll загружает артефакты по порядку.
//
// Ошибка одного артефакта не прерывает остальные; onItem вызывается после
// каждого. Возвращает объединение ошибок всех неудачных артефактов.
func (u *Uploader) UploadAll(ctx context.Context, taskID string, items []domain.UploadItem, onItem ItemFunc) error {
	var errs []error

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := u.Upload(ctx, taskID, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.Kind, err))
		}

		if onItem != nil {
			onItem(i, len(items), item, err)
		}
	}

	return errors.Join(errs...)
}

// Upload загружает один артефакт с повторами.
func (u *Uploader) Upload(ctx context.Context, taskID string, item domain.UploadItem) error {
	name := filepath.Base(item.Path)
	logger := u.logger.With("task_id", taskID, "kind", item.Kind, "file", name)

	var lastErr error
	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		err := u.attempt(ctx, taskID, item, name)
		if err == nil {
			telemetry.UploadAttemptsTotal.WithLabelValues(string(item.Kind), "success").Inc()
			logger.Info("artifact uploaded", "attempt", attempt)
			return nil
		}

		if errors.Is(err, ErrArtifactMissing) {
			telemetry.UploadAttemptsTotal.WithLabelValues(string(item.Kind), "missing").Inc()
			return err
		}

		telemetry.UploadAttemptsTotal.WithLabelValues(string(item.Kind), "error").Inc()
		lastErr = err

		if attempt == u.policy.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt, u.policy)
		logger.Warn("artifact upload failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		if err := u.sleep(ctx, delay); err != nil {
			return err
		}
	}

	logger.Error("artifact upload failed", "attempts", u.policy.MaxAttempts, "error", lastErr)
	return fmt.Errorf("%w: %d attempts: %v", ErrRetryExhausted, u.policy.MaxAttempts, lastErr)
}

// attempt выполняет одну попытку. Файл открывается заново на каждую попытку.
func (u *Uploader) attempt(ctx context.Context, taskID string, item domain.UploadItem, name string) error {
	f, err := os.Open(item.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactMissing, err)
	}
	defer f.Close()

	return u.sender.UploadArtifact(ctx, taskID, item.Kind, name, f)
}

// calculateBackoff вычисляет задержку после неудачной попытки attempt:
// InitialDelay * 2^(attempt-1), не больше MaxDelay.
func calculateBackoff(attempt int, policy Policy) time.Duration {
	delay := policy.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > policy.MaxDelay {
			return policy.MaxDelay
		}
	}

	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
