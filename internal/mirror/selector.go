// Package mirror выбирает доступное зеркало референсных баз.
//
// Кандидаты проверяются HEAD-запросом к пробному файлу с ограничением
// времени на каждую пробу. Пробы идут параллельно, но побеждает кандидат
// с наименьшим индексом среди успешных — результат детерминирован
// порядком списка. Если не ответил ни один, возвращается зеркало
// по умолчанию: Select никогда не возвращает ошибку.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

const defaultProbeTimeout = 10 * time.Second

// Selector выбирает корень зеркала.
type Selector struct {
	candidates []string
	fallback   string
	probeFile  string
	timeout    time.Duration
	client     *http.Client
	logger     *slog.Logger
}

// Config — конфигурация Selector.
type Config struct {
	// Candidates — корни зеркал в порядке приоритета (с завершающим "/").
	Candidates []string

	// Default — корень, возвращаемый если все кандидаты недоступны.
	// Если пусто — первый кандидат.
	Default string

	// ProbeFile — файл относительно корня, наличие которого проверяется.
	ProbeFile string

	// ProbeTimeout — таймаут одной пробы (default: 10s).
	ProbeTimeout time.Duration

	// HTTPClient (опционально; если nil — http.Client без общего таймаута).
	HTTPClient *http.Client

	// Logger
	Logger *slog.Logger
}

// DefaultCandidates возвращает корни стандартных зеркал.
func DefaultCandidates() []string {
	roots := make([]string, len(domain.DefaultMirrors))
	for i, suffix := range domain.DefaultMirrors {
		roots[i] = fmt.Sprintf(domain.MirrorRootPattern, suffix)
	}
	return roots
}

// New создаёт Selector.
func New(cfg Config) *Selector {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	fallback := cfg.Default
	if fallback == "" && len(cfg.Candidates) > 0 {
		fallback = cfg.Candidates[0]
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Selector{
		candidates: cfg.Candidates,
		fallback:   fallback,
		probeFile:  cfg.ProbeFile,
		timeout:    timeout,
		client:     client,
		logger:     logger,
	}
}

// Select возвращает первый (по порядку списка) доступный корень или Default.
func (s *Selector) Select(ctx context.Context) string {
	ok := make([]bool, len(s.candidates))

	// Успех кандидата i отменяет пробы всех менее приоритетных кандидатов
	var mu sync.Mutex
	ctxs := make([]context.Context, len(s.candidates))
	cancels := make([]context.CancelFunc, len(s.candidates))
	for i := range s.candidates {
		ctxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	// Ошибки проб не прерывают группу — каждая горутина возвращает nil
	var g errgroup.Group
	for i, root := range s.candidates {
		i, root := i, root
		g.Go(func() error {
			if err := s.probe(ctxs[i], root); err != nil {
				s.logger.Debug("mirror probe failed", "root", root, "error", err)
				return nil
			}
			mu.Lock()
			ok[i] = true
			for _, cancel := range cancels[i+1:] {
				cancel()
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, root := range s.candidates {
		if ok[i] {
			s.logger.Info("using mirror", "root", root)
			telemetry.MirrorSelections.WithLabelValues(root, "false").Inc()
			return root
		}
	}

	s.logger.Warn("all mirrors failed, using default mirror (degraded mode)",
		"default", s.fallback,
		"candidates", len(s.candidates),
	)
	telemetry.MirrorSelections.WithLabelValues(s.fallback, "true").Inc()
	return s.fallback
}

// probe выполняет HEAD-запрос к пробному файлу кандидата.
func (s *Selector) probe(ctx context.Context, root string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, root+s.probeFile, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
