package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shaiso/foldnode/internal/domain"
)

// Execer — подмножество pgxpool.Pool, нужное журналу.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const journalSchema = `
	CREATE TABLE IF NOT EXISTS task_events (
		id             UUID PRIMARY KEY,
		task_id        TEXT NOT NULL,
		wallet_address TEXT NOT NULL,
		status         TEXT NOT NULL,
		progress       DOUBLE PRECISION NOT NULL,
		message        TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS task_events_task_id_idx ON task_events (task_id, created_at);
`

// JournalRepo — журнал обновлений статуса task.
type JournalRepo struct {
	db Execer
}

// NewJournalRepo создаёт JournalRepo.
func NewJournalRepo(db Execer) *JournalRepo {
	return &JournalRepo{db: db}
}

// EnsureSchema создаёт таблицу task_events, если её нет.
func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("create task_events: %w", err)
	}
	return nil
}

// Append записывает обновление. Повторная запись с тем же ID — ErrAlreadyExists.
func (r *JournalRepo) Append(ctx context.Context, u domain.StatusUpdate) error {
	query := `
		INSERT INTO task_events (id, task_id, wallet_address, status, progress, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		u.ID,
		u.TaskID,
		u.WalletAddress,
		u.Status,
		u.Progress,
		u.Message,
		u.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert task event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Deliver реализует lifecycle.Sink. Дубликаты не считаются ошибкой.
func (r *JournalRepo) Deliver(ctx context.Context, u domain.StatusUpdate) error {
	if err := r.Append(ctx, u); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return nil
}
