// Foldnode — воркер поиска гомологов и предсказания структуры белка.
//
// Воркер:
//   - Опрашивает координатор и берёт по одному task
//   - Ищет гомологи по референсным базам и объединяет выравнивание
//   - Запускает предсказание структуры и загружает артефакты
//   - Сообщает статус координатору (и, опционально, в PostgreSQL/RabbitMQ)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/foldnode/internal/api"
	"github.com/shaiso/foldnode/internal/config"
	"github.com/shaiso/foldnode/internal/coordinator"
	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/lifecycle"
	"github.com/shaiso/foldnode/internal/mirror"
	"github.com/shaiso/foldnode/internal/mq"
	"github.com/shaiso/foldnode/internal/predict"
	"github.com/shaiso/foldnode/internal/repo"
	"github.com/shaiso/foldnode/internal/scheduler"
	"github.com/shaiso/foldnode/internal/search"
	"github.com/shaiso/foldnode/internal/telemetry"
	"github.com/shaiso/foldnode/internal/upload"
	"github.com/shaiso/foldnode/internal/worker"
	"github.com/spf13/cobra"
)

// version задаётся при сборке через -ldflags.
var version = "dev"

func main() {
	var (
		wallet string
		apiURL string
	)

	rootCmd := &cobra.Command{
		Use:           "foldnode",
		Short:         "Foldnode worker: homology search and structure prediction",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(wallet, apiURL)
			if err != nil {
				return err
			}
			return runWorker(cmd.Context(), settings)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&wallet, "wallet", "w", "", "wallet address (env: WALLET_ADDRESS)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "coordinator URL (env: API_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "account",
		Short: "Print account info for the wallet and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(wallet, apiURL)
			if err != nil {
				return err
			}
			client := coordinator.NewClient(coordinator.Config{
				BaseURL: settings.APIBase(),
				Wallet:  settings.WalletAddress,
				Logger:  telemetry.Discard(),
			})
			info, err := client.AccountInfo(cmd.Context())
			if err != nil {
				return err
			}
			return worker.WriteAccountTable(cmd.OutOrStdout(), info)
		},
	})

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil || (errors.Is(err, context.Canceled) && ctx.Err() != nil) {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// loadSettings читает окружение и накладывает флаги поверх.
func loadSettings(wallet, apiURL string) (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if wallet != "" {
		settings.WalletAddress = wallet
	}
	if apiURL != "" {
		settings.APIURL = apiURL
	}
	if settings.WalletAddress == "" {
		return nil, fmt.Errorf("%w: wallet address is required (--wallet or WALLET_ADDRESS)", config.ErrInvalidSetting)
	}
	return settings, nil
}

func runWorker(ctx context.Context, settings *config.Settings) error {
	// Инициализируем structured logging
	logger := telemetry.WithWallet(telemetry.SetupLogger(), settings.WalletAddress)
	logger.Info("starting foldnode", "version", version)

	// Порт занимается до старта воркера: ошибка bind — ошибка запуска
	ln, err := net.Listen("tcp", ":"+settings.WorkerPort)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Зеркало баз выбирается один раз
	selector := mirror.New(mirror.Config{
		Candidates:   mirror.DefaultCandidates(),
		ProbeFile:    domain.MirrorProbeFile,
		ProbeTimeout: settings.ProbeTimeout,
		Logger:       logger,
	})
	sources := domain.DefaultSources(selector.Select(ctx))

	client := coordinator.NewClient(coordinator.Config{
		BaseURL: settings.APIBase(),
		Wallet:  settings.WalletAddress,
		Logger:  logger,
	})

	// Получатели обновлений статуса: координатор всегда, журнал и брокер по настройке
	sinks := []lifecycle.NamedSink{{Name: "coordinator", Sink: client}}

	if settings.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		journal := repo.NewJournalRepo(pool)
		if err := journal.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure journal schema: %w", err)
		}
		sinks = append(sinks, lifecycle.NamedSink{Name: "journal", Sink: journal})
		logger.Info("database connected")
	}

	if settings.RabbitMQURL != "" {
		if sink := dialBroker(ctx, settings.RabbitMQURL, logger); sink != nil {
			defer sink.close()
			sinks = append(sinks, lifecycle.NamedSink{Name: "rabbitmq", Sink: sink.publisher})
		}
	}

	reporter := lifecycle.NewReporter(lifecycle.ReporterConfig{
		Sinks:  sinks,
		Logger: logger,
	})
	reporter.Start()
	defer reporter.Stop()

	manager := lifecycle.New(lifecycle.Config{
		Publisher: reporter,
		Wallet:    settings.WalletAddress,
		Logger:    logger,
	})

	gpuEnv := settings.GPUEnv()

	searcher := search.New(search.Config{
		Engine: &search.ExecEngine{
			Binary: settings.SearchBinary,
			Env:    gpuEnv,
			Logger: logger,
		},
		Sources: sources,
		TempDir: settings.WorkDir,
		Logger:  logger,
	})

	stage := predict.NewStage(predict.StageConfig{
		Predictor: &predict.ExecPredictor{
			Binary:    settings.PredictBinary,
			ParamsDir: settings.ModelParamsDir,
			Env:       gpuEnv,
		},
		Relaxer: &predict.ExecRelaxer{
			Binary: settings.RelaxBinary,
			Env:    gpuEnv,
		},
		Logger: logger,
	})

	uploader := upload.New(upload.Config{
		Sender: client,
		Logger: logger,
	})

	if err := os.MkdirAll(settings.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	// HTTP: /healthz, /metrics, /api/v1/status
	handler := api.NewHandler(api.Config{
		Active:  manager,
		Version: version,
		Wallet:  settings.WalletAddress,
		Sources: sources,
		Logger:  logger,
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{Handler: mux}
	srvErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			srvErr <- err
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		srv.Shutdown(shutdownCtx)
	}()

	w := worker.New(worker.Config{
		Coordinator:  client,
		Search:       searcher,
		Predict:      stage,
		Uploader:     uploader,
		Lifecycle:    manager,
		Flusher:      reporter,
		WorkDir:      settings.WorkDir,
		PollInterval: settings.PollInterval,
		Logger:       logger,
	})

	if settings.AccountInfoSchedule != "" {
		sched, err := scheduler.New(scheduler.Config{
			Name:   "account-info",
			Expr:   settings.AccountInfoSchedule,
			Job:    w.ReportAccount,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		go sched.Run(ctx)
	}

	err = w.Run(ctx)
	logger.Info("foldnode stopped")

	select {
	case serveErr := <-srvErr:
		return fmt.Errorf("http server: %w", serveErr)
	default:
		return err
	}
}

// broker — подключение к RabbitMQ и publisher поверх него.
type broker struct {
	conn      *mq.Connection
	publisher *mq.Publisher
}

func (b *broker) close() {
	b.conn.Close()
}

// dialBroker подключается к RabbitMQ. Недоступность брокера не мешает работе воркера.
func dialBroker(ctx context.Context, url string, logger *slog.Logger) *broker {
	conn, err := mq.Dial(url, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, status events are not published", "error", err)
		return nil
	}

	// Создаём топологию
	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}
	logger.Info("RabbitMQ connected")

	return &broker{conn: conn, publisher: mq.NewPublisher(conn, logger)}
}
