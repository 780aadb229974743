package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/shaiso/foldnode/internal/domain"
	"github.com/shaiso/foldnode/internal/progress"
	"github.com/shaiso/foldnode/internal/telemetry"
)

// ProgressFunc получает событие чанка и снимок агрегированного прогресса.
type ProgressFunc func(ev domain.ProgressEvent, snap progress.Snapshot)

// Orchestrator выполняет поиск по всем базам для одного task.
type Orchestrator struct {
	engine  Engine
	sources []domain.SourceConfig
	tempDir string
	logger  *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Engine — движок поиска (обязательно).
	Engine Engine

	// Sources — базы в порядке поиска и объединения.
	Sources []domain.SourceConfig

	// TempDir — родительский каталог для временных файлов запроса.
	// Пустая строка — системный временный каталог.
	TempDir string

	// Logger (опционально).
	Logger *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		engine:  cfg.Engine,
		sources: slices.Clone(cfg.Sources),
		tempDir: cfg.TempDir,
		logger:  logger,
	}
}

// Sources возвращает копию списка баз.
func (o *Orchestrator) Sources() []domain.SourceConfig {
	return slices.Clone(o.sources)
}

// Request — запрос на поиск для одного task.
type Request struct {
	TaskID   string
	Sequence domain.Sequence

	// Progress — агрегатор прогресса. Если nil, создаётся по Sources.
	Progress *progress.Aggregator

	// OnProgress вызывается синхронно на каждый завершённый чанк.
	OnProgress ProgressFunc
}

// Search ищет гомологи последовательности во всех базах последовательно.
//
// Возвращает непустые результаты в порядке баз. Ошибки движка на отдельной
// базе поглощаются. Если все базы пусты — ErrNoResults.
func (o *Orchestrator) Search(ctx context.Context, req Request) ([]domain.SearchResult, error) {
	if req.Sequence.Len() == 0 {
		return nil, domain.ErrEmptySequence
	}

	agg := req.Progress
	if agg == nil {
		agg = progress.NewAggregator(o.sources)
	}

	queryDir, err := os.MkdirTemp(o.tempDir, "query-*")
	if err != nil {
		return nil, fmt.Errorf("create query dir: %w", err)
	}
	defer os.RemoveAll(queryDir)

	queryPath := filepath.Join(queryDir, "query.fasta")
	if err := os.WriteFile(queryPath, []byte(req.Sequence.FASTA()+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write query: %w", err)
	}

	query := Query{Path: queryPath, Sequence: req.Sequence}
	logger := telemetry.WithTaskID(o.logger, req.TaskID)

	results := make([]domain.SearchResult, 0, len(o.sources))
	for _, src := range o.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hits, err := o.searchSource(ctx, logger, query, src, agg, req.OnProgress)
		if err != nil {
			return nil, err
		}

		if len(hits) == 0 {
			logger.Warn("source returned no hits, excluding from merge", "source", src.Name)
			continue
		}

		results = append(results, domain.SearchResult{SourceName: src.Name, Hits: hits})
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %d sources searched", ErrNoResults, len(o.sources))
	}

	return results, nil
}

// searchSource выполняет поиск по одной базе.
// Возвращает ошибку только для фатальных случаев (движок недоступен, отмена).
func (o *Orchestrator) searchSource(
	ctx context.Context,
	logger *slog.Logger,
	query Query,
	src domain.SourceConfig,
	agg *progress.Aggregator,
	onProgress ProgressFunc,
) ([]domain.Hit, error) {
	logger = telemetry.WithSource(logger, src.Name)
	start := time.Now()

	onChunk := func(chunkIndex int) {
		ev := domain.ProgressEvent{
			SourceName: src.Name,
			UnitsDone:  chunkIndex + 1,
			UnitsTotal: src.ChunkCount,
			Timestamp:  time.Now(),
		}
		telemetry.SearchChunksTotal.WithLabelValues(src.Name).Inc()

		snap := agg.Update(ev)
		if onProgress != nil {
			onProgress(ev, snap)
		}
	}

	hits, err := o.engine.Search(ctx, query, src, onChunk)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		telemetry.SourceFailuresTotal.WithLabelValues(src.Name).Inc()
		logger.Warn("search failed on source, treating as zero hits", "error", err)

		// Недоделанные чанки закрываем, чтобы прогресс оставался монотонным и доходил до 1.
		snap := agg.Complete(src.Name)
		if onProgress != nil {
			onProgress(domain.ProgressEvent{
				SourceName: src.Name,
				UnitsDone:  src.ChunkCount,
				UnitsTotal: src.ChunkCount,
				Timestamp:  time.Now(),
			}, snap)
		}
		return nil, nil
	}

	retained := DedupeHits(hits, src.MaxHits)

	logger.Info("source searched",
		"raw_hits", len(hits),
		"retained", len(retained),
		"duration", time.Since(start),
	)

	return retained, nil
}
