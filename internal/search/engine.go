package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/shaiso/foldnode/internal/domain"
)

// Query — запрос к движку.
type Query struct {
	// Path — путь к FASTA-файлу запроса.
	Path string

	// Sequence — последовательность запроса.
	Sequence domain.Sequence
}

// Engine — движок поиска по одной базе.
//
// onChunk вызывается с индексом чанка (с 0) после его завершения,
// в порядке возрастания. Ошибка, обёрнутая в ErrEngineUnavailable,
// означает, что движок не может работать вообще.
type Engine interface {
	Search(ctx context.Context, q Query, src domain.SourceConfig, onChunk func(chunkIndex int)) ([]domain.Hit, error)
}

// ExecEngine запускает внешний бинарь поиска на каждый чанк базы.
type ExecEngine struct {
	// Binary — путь или имя бинаря.
	Binary string

	// Args — дополнительные аргументы перед стандартными.
	Args []string

	// Env — дополнительные переменные окружения (KEY=VALUE).
	Env []string

	// Logger (опционально).
	Logger *slog.Logger
}

// Search запускает бинарь по чанкам src и собирает попадания.
func (e *ExecEngine) Search(ctx context.Context, q Query, src domain.SourceConfig, onChunk func(chunkIndex int)) ([]domain.Hit, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var hits []domain.Hit
	for i := 0; i < src.ChunkCount; i++ {
		chunkPath := fmt.Sprintf("%s.%d", src.DatabasePath(), i+1)

		args := append(slices.Clone(e.Args),
			"--query", q.Path,
			"--database", chunkPath,
			"--z-value", strconv.FormatInt(src.ExpectedPopulation, 10),
		)

		cmd := exec.CommandContext(ctx, e.Binary, args...)
		cmd.Env = append(os.Environ(), e.Env...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("%w: start %s: %v", ErrEngineUnavailable, e.Binary, err)
		}

		if err := cmd.Wait(); err != nil {
			return nil, fmt.Errorf("%w: %s chunk %d: %v: %s",
				ErrEngineFailed, src.Name, i+1, err, truncate(strings.TrimSpace(stderr.String()), 200))
		}

		chunkHits, err := ParseFASTA(&stdout)
		if err != nil {
			return nil, fmt.Errorf("%s chunk %d: %w", src.Name, i+1, err)
		}

		logger.Debug("search chunk finished",
			"source", src.Name,
			"chunk", i+1,
			"total", src.ChunkCount,
			"hits", len(chunkHits),
		)

		hits = append(hits, chunkHits...)
		if onChunk != nil {
			onChunk(i)
		}
	}

	return hits, nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
