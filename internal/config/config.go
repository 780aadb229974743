// Package config собирает настройки воркера из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultAPIURL           = "http://ds.opmentis.xyz:8000"
	DefaultPollInterval     = 100 * time.Second
	DefaultModelParamsDir   = "./alphafold/data/"
	DefaultWorkDir          = "./work"
	DefaultSearchBinary     = "jackhmmer-adapter"
	DefaultPredictBinary    = "fold-predict"
	DefaultRelaxBinary      = "fold-relax"
	DefaultProbeTimeout     = 10 * time.Second
	DefaultWorkerPort       = "8082"
	DefaultUnifiedMemory    = 1
	DefaultMemFraction      = 4.0
	envUnifiedMemory        = "TF_FORCE_UNIFIED_MEMORY"
	envXLAClientMemFraction = "XLA_PYTHON_CLIENT_MEM_FRACTION"
)

// ErrInvalidSetting — значение переменной окружения не разбирается.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings — настройки воркера.
type Settings struct {
	// API
	APIURL       string
	PollInterval time.Duration

	// Модель
	ModelParamsDir string
	UseGPU         bool

	// GPU — пробрасываются в окружение движков, если UseGPU.
	UnifiedMemory int
	MemFraction   float64

	// Идентичность
	WalletAddress string

	// Движки и рабочий каталог
	WorkDir       string
	SearchBinary  string
	PredictBinary string
	RelaxBinary   string
	ProbeTimeout  time.Duration

	// Опциональная инфраструктура (пусто — выключено)
	DatabaseURL         string
	RabbitMQURL         string
	AccountInfoSchedule string

	// HTTP /healthz + /metrics
	WorkerPort string
}

// Load читает Settings из окружения процесса.
func Load() (*Settings, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Settings, error) {
	s := &Settings{
		APIURL:              stringOr(getenv("API_URL"), DefaultAPIURL),
		PollInterval:        DefaultPollInterval,
		ModelParamsDir:      stringOr(getenv("MODEL_PARAMS_DIR"), DefaultModelParamsDir),
		UnifiedMemory:       DefaultUnifiedMemory,
		MemFraction:         DefaultMemFraction,
		WalletAddress:       getenv("WALLET_ADDRESS"),
		WorkDir:             stringOr(getenv("WORK_DIR"), DefaultWorkDir),
		SearchBinary:        stringOr(getenv("SEARCH_BIN"), DefaultSearchBinary),
		PredictBinary:       stringOr(getenv("PREDICT_BIN"), DefaultPredictBinary),
		RelaxBinary:         stringOr(getenv("RELAX_BIN"), DefaultRelaxBinary),
		ProbeTimeout:        DefaultProbeTimeout,
		DatabaseURL:         getenv("DB_URL"),
		RabbitMQURL:         getenv("RABBITMQ_URL"),
		AccountInfoSchedule: getenv("ACCOUNT_INFO_SCHEDULE"),
		WorkerPort:          stringOr(getenv("WORKER_PORT"), DefaultWorkerPort),
	}

	// TASK_POLL_INTERVAL задаётся в секундах
	if v := getenv("TASK_POLL_INTERVAL"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("%w: TASK_POLL_INTERVAL=%q", ErrInvalidSetting, v)
		}
		s.PollInterval = time.Duration(sec) * time.Second
	}

	if v := getenv("MIRROR_PROBE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: MIRROR_PROBE_TIMEOUT=%q", ErrInvalidSetting, v)
		}
		s.ProbeTimeout = d
	}

	if v := getenv("USE_GPU"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: USE_GPU=%q", ErrInvalidSetting, v)
		}
		s.UseGPU = b
	}

	if v := getenv(envUnifiedMemory); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, envUnifiedMemory, v)
		}
		s.UnifiedMemory = n
	}

	if v := getenv(envXLAClientMemFraction); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, envXLAClientMemFraction, v)
		}
		s.MemFraction = f
	}

	return s, nil
}

// GPUEnv возвращает GPU-настройки в формате KEY=VALUE для окружения движков.
// Если GPU выключен — nil.
func (s *Settings) GPUEnv() []string {
	if !s.UseGPU {
		return nil
	}
	return []string{
		envUnifiedMemory + "=" + strconv.Itoa(s.UnifiedMemory),
		envXLAClientMemFraction + "=" + strconv.FormatFloat(s.MemFraction, 'f', -1, 64),
	}
}

// APIBase возвращает APIURL без завершающего "/".
func (s *Settings) APIBase() string {
	return strings.TrimRight(s.APIURL, "/")
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
