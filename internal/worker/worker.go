package worker

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shaiso/foldnode/internal/coordinator"
	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/lifecycle"
	"github.com/shaiso/foldnode/internal/predict"
	"github.com/shaiso/foldnode/internal/search"
	"github.com/shaiso/foldnode/internal/telemetry"
	"github.com/shaiso/foldnode/internal/upload"
)

// Default configuration values.
const (
	defaultPollInterval = 100 * time.Second
	defaultCoolDown     = 5 * time.Second
	defaultFlushTimeout = 30 * time.Second
)

// Coordinator — операции координатора, нужные циклу.
type Coordinator interface {
	NextTask(ctx context.Context) (coordinator.Acquisition, error)
	CompleteTask(ctx context.Context, task *domain.Task) error
	AccountInfo(ctx context.Context) (map[string]any, error)
}

// Searcher ищет гомологи по всем базам.
type Searcher interface {
	Search(ctx context.Context, req search.Request) ([]domain.SearchResult, error)
}

// Predictor строит структуру и артефакты по набору признаков.
type Predictor interface {
	Run(ctx context.Context, featuresPath, workDir string) (*predict.Output, error)
}

// Uploader загружает артефакты task.
type Uploader interface {
	UploadAll(ctx context.Context, taskID string, items []domain.UploadItem, onItem upload.ItemFunc) error
}

// Flusher дожидается доставки поставленных обновлений статуса.
type Flusher interface {
	Flush(ctx context.Context) error
}

// SleepFunc ждёт d или отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Worker — цикл получения и обработки task.
type Worker struct {
	coord     Coordinator
	search    Searcher
	predictor Predictor
	uploader  Uploader
	lifecycle *lifecycle.Manager
	flusher   Flusher

	workDir      string
	keepWorkDirs bool
	pollInterval time.Duration
	coolDown     time.Duration
	sleep        SleepFunc

	// accountMu сериализует печать таблиц: cron-задача и цикл пишут в один accountOut.
	accountMu  sync.Mutex
	accountOut io.Writer
	logger     *slog.Logger
}

// Config — конфигурация Worker.
type Config struct {
	Coordinator Coordinator
	Search      Searcher
	Predict     Predictor
	Uploader    Uploader
	Lifecycle   *lifecycle.Manager

	// Flusher (опционально) — вызывается после каждого task.
	Flusher Flusher

	// WorkDir — корень рабочих каталогов task (default: системный временный каталог).
	WorkDir string

	// KeepWorkDirs — не удалять рабочий каталог после task.
	KeepWorkDirs bool

	PollInterval time.Duration // интервал polling (default: 100s)
	CoolDown     time.Duration // пауза после неудачного task (default: 5s)

	// Sleep (опционально; для тестов).
	Sleep SleepFunc

	// AccountOut — куда печатается таблица сведений о кошельке (default: stdout).
	AccountOut io.Writer

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	coolDown := cfg.CoolDown
	if coolDown <= 0 {
		coolDown = defaultCoolDown
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	accountOut := cfg.AccountOut
	if accountOut == nil {
		accountOut = os.Stdout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		coord:        cfg.Coordinator,
		search:       cfg.Search,
		predictor:    cfg.Predict,
		uploader:     cfg.Uploader,
		lifecycle:    cfg.Lifecycle,
		flusher:      cfg.Flusher,
		workDir:      workDir,
		keepWorkDirs: cfg.KeepWorkDirs,
		pollInterval: pollInterval,
		coolDown:     coolDown,
		sleep:        sleep,
		accountOut:   accountOut,
		logger:       logger,
	}
}

// Run крутит цикл до сентинела координатора или отмены ctx.
//
// Возвращает nil при штатной остановке по сентинелу и ctx.Err() при отмене.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"work_dir", w.workDir,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		acq, err := w.coord.NextTask(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("failed to get next task", "error", err)
			if err := w.sleep(ctx, w.pollInterval); err != nil {
				return err
			}
			continue
		}

		switch acq.Kind {
		case coordinator.Unauthorized:
			w.logger.Warn("coordinator refused wallet, shutting down", "reason", acq.Reason)
			return nil

		case coordinator.NoTaskAvailable:
			w.logger.Info("no tasks available", "next_poll", w.pollInterval)
			if err := w.sleep(ctx, w.pollInterval); err != nil {
				return err
			}

		case coordinator.TaskAcquired:
			if err := w.processTask(ctx, acq.Task); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Warn("task failed, cooling down",
					"task_id", acq.Task.ID,
					"cool_down", w.coolDown,
					"error", err,
				)
				if err := w.sleep(ctx, w.coolDown); err != nil {
					return err
				}
				continue
			}

			w.ReportAccount(ctx)
			if err := w.sleep(ctx, w.pollInterval); err != nil {
				return err
			}
		}
	}
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

// flush ждёт доставки обновлений статуса после task.
func (w *Worker) flush(ctx context.Context) {
	if w.flusher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFlushTimeout)
	defer cancel()

	if err := w.flusher.Flush(ctx); err != nil {
		w.logger.Warn("status updates not flushed", "error", err)
	}
}

// logger для task.
func (w *Worker) taskLogger(task *domain.Task) *slog.Logger {
	return telemetry.WithTaskID(w.logger, task.ID)
}
