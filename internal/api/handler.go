package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/lifecycle"
)

// ActiveSource отдаёт состояние task в работе. Реализуется lifecycle.Manager.
type ActiveSource interface {
	Active() (lifecycle.Snapshot, bool)
}

// Handler — обработчики локального API.
type Handler struct {
	active  ActiveSource
	version string
	wallet  string
	sources []string
	started time.Time
	logger  *slog.Logger
}

// Config — конфигурация Handler.
type Config struct {
	Active  ActiveSource
	Version string
	Wallet  string

	// Sources — базы поиска (после выбора зеркала).
	Sources []domain.SourceConfig

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	names := make([]string, len(cfg.Sources))
	for i, src := range cfg.Sources {
		names[i] = src.Name
	}

	return &Handler{
		active:  cfg.Active,
		version: cfg.Version,
		wallet:  cfg.Wallet,
		sources: names,
		started: time.Now(),
		logger:  logger,
	}
}

// StatusResponse — ответ GET /api/v1/status.
type StatusResponse struct {
	Version       string              `json:"version"`
	WalletAddress string              `json:"wallet_address"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Sources       []string            `json:"sources"`
	Task          *lifecycle.Snapshot `json:"task"`
}

// Status возвращает сведения о воркере и task в работе (null, если воркер простаивает).
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Version:       h.version,
		WalletAddress: h.wallet,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Sources:       h.sources,
	}

	if h.active != nil {
		if snap, ok := h.active.Active(); ok {
			resp.Task = &snap
		}
	}

	Success(w, resp)
}

// Healthz отвечает 200, пока процесс жив.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
