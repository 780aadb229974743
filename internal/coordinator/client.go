// Package coordinator — HTTP-клиент координатора задач.
//
// Клиент привязан к одному кошельку: он подставляется в запросы next-task,
// обновления прогресса, загрузки и завершения.
package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/telemetry"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody — сколько байт тела ошибки попадает в StatusError.
const maxErrorBody = 512

// --- Request types ---

// progressRequest — тело POST /tasks/{id}/progress.
type progressRequest struct {
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	Message       string  `json:"message"`
	Timestamp     string  `json:"timestamp"`
	WalletAddress string  `json:"wallet_address"`
}

// completeRequest — тело POST /tasks/complete.
type completeRequest struct {
	TaskID        string `json:"task_id"`
	WalletAddress string `json:"wallet_address"`
	PointerWallet string `json:"pointer_wallet,omitempty"`
}

// --- Client ---

// Client — HTTP-клиент координатора.
type Client struct {
	baseURL    string
	wallet     string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// BaseURL — адрес координатора без завершающего "/".
	BaseURL string

	// Wallet — кошелёк воркера.
	Wallet string

	// HTTPClient (опционально; по умолчанию — клиент с таймаутом 30s).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient создаёт клиент.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		wallet:     cfg.Wallet,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Wallet возвращает кошелёк клиента.
func (c *Client) Wallet() string {
	return c.wallet
}

// NextTask запрашивает следующий task.
func (c *Client) NextTask(ctx context.Context) (Acquisition, error) {
	params := url.Values{}
	params.Set("wallet_address", c.wallet)

	resp, err := c.do(ctx, http.MethodGet, "/tasks/next?"+params.Encode(), "", nil)
	if err != nil {
		telemetry.PollsTotal.WithLabelValues("error").Inc()
		return Acquisition{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus("next task", resp); err != nil {
		telemetry.PollsTotal.WithLabelValues("error").Inc()
		return Acquisition{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.PollsTotal.WithLabelValues("error").Inc()
		return Acquisition{}, fmt.Errorf("read next task: %w", err)
	}

	acq, err := parseAcquisition(body, c.wallet)
	if err != nil {
		telemetry.PollsTotal.WithLabelValues("error").Inc()
		return Acquisition{}, err
	}

	telemetry.PollsTotal.WithLabelValues(acq.Kind.String()).Inc()
	return acq, nil
}

// UpdateProgress отправляет обновление статуса task.
func (c *Client) UpdateProgress(ctx context.Context, u domain.StatusUpdate) error {
	wallet := u.WalletAddress
	if wallet == "" {
		wallet = c.wallet
	}

	req := progressRequest{
		Status:        u.Status.String(),
		Progress:      u.Progress,
		Message:       u.Message,
		Timestamp:     u.Timestamp.UTC().Format(time.RFC3339Nano),
		WalletAddress: wallet,
	}

	return c.postJSON(ctx, "update progress", "/tasks/"+url.PathEscape(u.TaskID)+"/progress", req)
}

// Deliver реализует lifecycle.Sink.
func (c *Client) Deliver(ctx context.Context, u domain.StatusUpdate) error {
	return c.UpdateProgress(ctx, u)
}

// UploadArtifact загружает файл артефакта multipart-формой (поле "file").
func (c *Client) UploadArtifact(ctx context.Context, taskID string, kind domain.ArtifactKind, name string, body io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	params := url.Values{}
	params.Set("task_id", taskID)
	params.Set("file_type", string(kind))
	params.Set("wallet", c.wallet)

	path := "/storage/" + url.PathEscape(taskID) + "/upload?" + params.Encode()

	resp, err := c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("upload "+string(kind), resp)
}

// CompleteTask сообщает координатору о завершении task.
func (c *Client) CompleteTask(ctx context.Context, task *domain.Task) error {
	req := completeRequest{
		TaskID:        task.ID,
		WalletAddress: c.wallet,
		PointerWallet: task.PointerWallet,
	}
	return c.postJSON(ctx, "complete task", "/tasks/complete", req)
}

// AccountInfo возвращает сведения о вознаграждениях кошелька.
func (c *Client) AccountInfo(ctx context.Context) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "/incentives/customer/"+url.PathEscape(c.wallet), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("account info", resp); err != nil {
		return nil, err
	}

	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode account info: %v", ErrUnexpectedResponse, err)
	}
	return info, nil
}

// --- HTTP helpers ---

func (c *Client) postJSON(ctx context.Context, op, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		if resp.StatusCode == http.StatusUnprocessableEntity {
			c.logger.Error("coordinator rejected request", "op", op, "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// checkStatus возвращает StatusError для не-2xx ответов.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Op:   op,
		Code: resp.StatusCode,
		Body: strings.TrimSpace(string(data)),
	}
}
