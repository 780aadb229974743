package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

// Publisher — очередь исходящих обновлений. Реализуется Reporter.
type Publisher interface {
	Send(ctx context.Context, u domain.StatusUpdate) error
	Offer(u domain.StatusUpdate) bool
}

// Manager создаёт Tracker для каждого нового task.
type Manager struct {
	publisher Publisher
	registry  *Registry
	wallet    string
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	active *Tracker
}

// Config — конфигурация Manager.
type Config struct {
	Publisher Publisher

	// Registry (опционально; если nil — создаётся новый).
	Registry *Registry

	// Wallet — кошелёк воркера, подставляется в каждое обновление.
	Wallet string

	Logger *slog.Logger
}

// New создаёт Manager.
func New(cfg Config) *Manager {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		publisher: cfg.Publisher,
		registry:  registry,
		wallet:    cfg.Wallet,
		logger:    logger,
		now:       time.Now,
	}
}

// Registry возвращает блокировку эксклюзивности.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Active возвращает снимок task в работе.
func (m *Manager) Active() (Snapshot, bool) {
	m.mu.Lock()
	tr := m.active
	m.mu.Unlock()

	if tr == nil {
		return Snapshot{}, false
	}
	return tr.Snapshot(), true
}

func (m *Manager) setActive(tr *Tracker) {
	m.mu.Lock()
	m.active = tr
	m.mu.Unlock()
}

func (m *Manager) clearActive(tr *Tracker) {
	m.mu.Lock()
	if m.active == tr {
		m.active = nil
	}
	m.mu.Unlock()
}

// Begin захватывает task и переводит его в pending с прогрессом 0.
func (m *Manager) Begin(ctx context.Context, task *domain.Task, message string) (*Tracker, error) {
	if err := m.registry.Acquire(task.ID); err != nil {
		return nil, err
	}

	task.MarkPending()

	tr := &Tracker{
		manager: m,
		task:    task,
		status:  domain.TaskStatusPending,
		logger:  telemetry.WithTaskID(m.logger, task.ID),
	}
	m.setActive(tr)
	tr.send(ctx, message)

	return tr, nil
}

// Tracker ведёт один task по автомату статусов.
type Tracker struct {
	manager *Manager
	task    *domain.Task
	logger  *slog.Logger

	mu       sync.Mutex
	status   domain.TaskStatus
	progress float64
}

// Task возвращает отслеживаемый task.
func (t *Tracker) Task() *domain.Task {
	return t.task
}

// Snapshot — состояние task для локального status API.
type Snapshot struct {
	TaskID    string            `json:"task_id"`
	Status    domain.TaskStatus `json:"status"`
	Progress  float64           `json:"progress"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
}

// Snapshot возвращает текущее состояние.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		TaskID:    t.task.ID,
		Status:    t.status,
		Progress:  t.progress,
		StartedAt: t.task.StartedAt,
	}
}

// Status возвращает текущий статус.
func (t *Tracker) Status() domain.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Progress возвращает последний зафиксированный прогресс.
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Transition переводит task в next с прогрессом progress.
//
// Недопустимый переход возвращает ErrInvalidTransition и ничего не меняет.
// Failed → Failed — no-op.
func (t *Tracker) Transition(ctx context.Context, next domain.TaskStatus, progress float64, message string) error {
	t.mu.Lock()

	if next == domain.TaskStatusFailed && t.status == domain.TaskStatusFailed {
		t.mu.Unlock()
		return nil
	}

	if !t.status.CanTransition(next) {
		from := t.status
		t.mu.Unlock()
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, next)
	}

	if next == domain.TaskStatusFailed {
		progress = 0
	}

	t.status = next
	t.progress = clamp(progress)

	switch next {
	case domain.TaskStatusCompleted:
		t.task.MarkCompleted()
	case domain.TaskStatusFailed:
		t.task.MarkFailed(message)
	default:
		t.task.MarkStatus(next)
	}

	update := t.updateLocked(message)
	t.mu.Unlock()

	t.logger.Info("task status changed",
		"status", next,
		"progress", update.Progress,
		"message", message,
	)

	if err := t.manager.publisher.Send(ctx, update); err != nil {
		t.logger.Warn("status update not enqueued", "status", next, "error", err)
	}

	if next.IsTerminal() {
		t.manager.clearActive(t)
		t.manager.registry.Release(t.task.ID)
		telemetry.TasksTotal.WithLabelValues(next.String()).Inc()
		telemetry.TaskDuration.Observe(t.task.Duration().Seconds())
	}

	return nil
}

// Report публикует прогресс внутри текущего статуса без ожидания места в очереди.
// В терминальном статусе игнорируется.
func (t *Tracker) Report(progress float64, message string) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.progress = clamp(progress)
	update := t.updateLocked(message)
	t.mu.Unlock()

	t.manager.publisher.Offer(update)
}

// Advance фиксирует прогресс внутри текущего статуса и ждёт места в очереди,
// поэтому обновление не теряется при переполнении. В терминальном статусе игнорируется.
func (t *Tracker) Advance(ctx context.Context, progress float64, message string) {
	t.mu.Lock()
	if t.status.IsTerminal() {
		t.mu.Unlock()
		return
	}
	t.progress = clamp(progress)
	update := t.updateLocked(message)
	t.mu.Unlock()

	if err := t.manager.publisher.Send(ctx, update); err != nil {
		t.logger.Warn("status update not enqueued", "status", update.Status, "error", err)
	}
}

// Fail переводит task в failed с текстом ошибки.
func (t *Tracker) Fail(ctx context.Context, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return t.Transition(ctx, domain.TaskStatusFailed, 0, msg)
}

// send отправляет текущее состояние с ожиданием места в очереди.
func (t *Tracker) send(ctx context.Context, message string) {
	t.mu.Lock()
	update := t.updateLocked(message)
	t.mu.Unlock()

	if err := t.manager.publisher.Send(ctx, update); err != nil {
		t.logger.Warn("status update not enqueued", "status", update.Status, "error", err)
	}
}

func (t *Tracker) updateLocked(message string) domain.StatusUpdate {
	return domain.StatusUpdate{
		ID:            uuid.New(),
		TaskID:        t.task.ID,
		WalletAddress: t.manager.wallet,
		Status:        t.status,
		Progress:      t.progress,
		Message:       message,
		Timestamp:     t.manager.now().UTC(),
	}
}

// clamp ограничивает прогресс отрезком [0, 1].
func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
