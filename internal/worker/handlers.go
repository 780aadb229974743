package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/foldnode/internal/alignment"
	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/lifecycle"
	"github.com/shaiso/foldnode/internal/progress"
	"github.com/shaiso/foldnode/internal/search"
)

// Точки шкалы прогресса task.
const (
	progressSearchEnd  = 0.4
	progressProcessing = 0.4
	progressUploading  = 0.5
	progressUploadBase = 0.6
	progressUploadSpan = 0.3
	progressCompleted  = 1.0
)

// processTask проводит task через pipeline. Panic переводится в ошибку.
func (w *Worker) processTask(ctx context.Context, task *domain.Task) (err error) {
	if task == nil || task.ID == "" {
		return ErrNoTaskID
	}

	logger := w.taskLogger(task)

	tr, err := w.lifecycle.Begin(ctx, task, "Task received")
	if err != nil {
		return err
	}

	logger.Info("task started", "pointer_wallet", task.PointerWallet)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}

		if err != nil {
			if failErr := tr.Fail(context.WithoutCancel(ctx), err); failErr != nil {
				logger.Warn("failed to mark task failed", "error", failErr)
			}
			logger.Warn("task failed", "error", err, "duration", task.Duration())
		} else {
			logger.Info("task completed", "duration", task.Duration())
		}

		w.flush(ctx)
	}()

	return w.runPipeline(ctx, tr)
}

// runPipeline выполняет стадии task по порядку.
func (w *Worker) runPipeline(ctx context.Context, tr *lifecycle.Tracker) error {
	task := tr.Task()

	// 1. Валидируем последовательность
	seq, err := domain.ParseSequence(task.RawSequence)
	if err != nil {
		return fmt.Errorf("parse sequence: %w", err)
	}
	task.Sequence = seq

	// 2. Рабочий каталог task
	dir, err := w.makeTaskDir(task.ID)
	if err != nil {
		return err
	}
	if !w.keepWorkDirs {
		defer os.RemoveAll(dir)
	}

	// 3. Поиск по базам
	results, err := w.search.Search(ctx, searchRequest(task, tr))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	// 4. Объединение выравнивания
	aln, err := alignment.Merge(results)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	paths, err := aln.WriteArtifacts(dir, seq)
	if err != nil {
		return fmt.Errorf("write alignment: %w", err)
	}

	// 5. Предсказание структуры
	if err := tr.Transition(ctx, domain.TaskStatusProcessing, progressProcessing, "Predicting structure"); err != nil {
		return err
	}

	items := []domain.UploadItem{{Kind: domain.ArtifactAlignment, Path: paths.Stockholm}}
	if w.predictor != nil {
		out, err := w.predictor.Run(ctx, paths.Features, dir)
		if err != nil {
			return fmt.Errorf("prediction: %w", err)
		}
		items = append(items, out.Items...)
	}

	// 6. Загрузка артефактов
	if err := tr.Transition(ctx, domain.TaskStatusUploading, progressUploading, "Uploading results"); err != nil {
		return err
	}

	err = w.uploader.UploadAll(ctx, task.ID, items, func(i, total int, item domain.UploadItem, itemErr error) {
		msg := fmt.Sprintf("Uploaded %s (%d/%d)", item.Kind, i+1, total)
		if itemErr != nil {
			msg = fmt.Sprintf("Upload of %s failed (%d/%d)", item.Kind, i+1, total)
		}
		tr.Advance(ctx, progressUploadBase+progressUploadSpan*float64(i+1)/float64(total), msg)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	// 7. Завершение
	if err := w.coord.CompleteTask(ctx, task); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}

	return tr.Transition(ctx, domain.TaskStatusCompleted, progressCompleted, "Task completed successfully")
}

// searchRequest строит запрос поиска, отображающий прогресс чанков на 0.0–0.4.
func searchRequest(task *domain.Task, tr *lifecycle.Tracker) search.Request {
	return search.Request{
		TaskID:   task.ID,
		Sequence: task.Sequence,
		OnProgress: func(ev domain.ProgressEvent, snap progress.Snapshot) {
			tr.Report(progressSearchEnd*snap.Fraction(),
				fmt.Sprintf("Searching %s (chunk %d/%d)", ev.SourceName, ev.UnitsDone, ev.UnitsTotal))
		},
	}
}

// makeTaskDir создаёт уникальный рабочий каталог task.
func (w *Worker) makeTaskDir(taskID string) (string, error) {
	dir := filepath.Join(w.workDir, safeName(taskID)+"-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// safeName оставляет в идентификаторе только безопасные для пути символы.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
