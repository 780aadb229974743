package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

// Default configuration values.
const (
	defaultQueueSize       = 64
	defaultDeliveryTimeout = 30 * time.Second
)

// Sink — получатель обновлений статуса (координатор, журнал, шина событий).
type Sink interface {
	Deliver(ctx context.Context, u domain.StatusUpdate) error
}

// SinkFunc адаптирует функцию к Sink.
type SinkFunc func(ctx context.Context, u domain.StatusUpdate) error

// Deliver вызывает f.
func (f SinkFunc) Deliver(ctx context.Context, u domain.StatusUpdate) error {
	return f(ctx, u)
}

// NamedSink — Sink с именем для логов.
type NamedSink struct {
	Name string
	Sink Sink
}

// queueItem — элемент очереди: обновление или барьер Flush.
type queueItem struct {
	update  domain.StatusUpdate
	barrier chan struct{}
}

// Reporter доставляет обновления статуса в одном фоновом потребителе.
type Reporter struct {
	queue   chan queueItem
	sinks   []NamedSink
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// ReporterConfig — конфигурация Reporter.
type ReporterConfig struct {
	// Sinks — получатели в порядке доставки.
	Sinks []NamedSink

	// QueueSize — ёмкость очереди (default: 64).
	QueueSize int

	// DeliveryTimeout — таймаут доставки одному Sink (default: 30s).
	DeliveryTimeout time.Duration

	// Logger (опционально).
	Logger *slog.Logger
}

// NewReporter создаёт Reporter. Потребитель запускается через Start.
func NewReporter(cfg ReporterConfig) *Reporter {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reporter{
		queue:   make(chan queueItem, queueSize),
		sinks:   cfg.Sinks,
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start запускает потребителя очереди.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.closed {
		return
	}
	r.started = true

	go r.consume()
}

// Stop закрывает очередь и ждёт доставки уже принятых обновлений.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	started := r.started
	r.mu.Unlock()

	if started {
		<-r.done
	}
}

// Send ставит обновление в очередь, ожидая свободного места.
func (r *Reporter) Send(ctx context.Context, u domain.StatusUpdate) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrReporterClosed
	}

	select {
	case r.queue <- queueItem{update: u}:
		return nil
	case <-ctx.Done():
		telemetry.StatusUpdatesTotal.WithLabelValues("dropped").Inc()
		return ctx.Err()
	}
}

// Offer ставит обновление в очередь без ожидания.
// Возвращает false, если очередь заполнена и обновление отброшено.
func (r *Reporter) Offer(u domain.StatusUpdate) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}

	select {
	case r.queue <- queueItem{update: u}:
		return true
	default:
		telemetry.StatusUpdatesTotal.WithLabelValues("dropped").Inc()
		r.logger.Debug("status update dropped, queue full",
			"task_id", u.TaskID,
			"status", u.Status,
			"progress", u.Progress,
		)
		return false
	}
}

// Flush ждёт, пока все ранее поставленные обновления будут обработаны.
func (r *Reporter) Flush(ctx context.Context) error {
	barrier := make(chan struct{})

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrReporterClosed
	}
	select {
	case r.queue <- queueItem{barrier: barrier}:
	case <-ctx.Done():
		r.mu.RUnlock()
		return ctx.Err()
	}
	r.mu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consume — цикл единственного потребителя.
func (r *Reporter) consume() {
	defer close(r.done)

	for item := range r.queue {
		if item.barrier != nil {
			close(item.barrier)
			continue
		}
		r.deliver(item.update)
	}
}

// deliver отправляет обновление всем Sink. Ошибки только логируются.
func (r *Reporter) deliver(u domain.StatusUpdate) {
	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := s.Sink.Deliver(ctx, u)
		cancel()

		if err != nil {
			telemetry.StatusUpdatesTotal.WithLabelValues("failed").Inc()
			r.logger.Warn("failed to deliver status update",
				"sink", s.Name,
				"task_id", u.TaskID,
				"status", u.Status,
				"error", err,
			)
			continue
		}

		telemetry.StatusUpdatesTotal.WithLabelValues("delivered").Inc()
	}
}
