package search

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shaiso/foldnode/internal/domain"
)

// ParseFASTA читает попадания в формате FASTA.
//
// Строка ">" начинает новое попадание, следующие строки до следующего
// заголовка склеиваются в последовательность. Попадания с пустой
// последовательностью пропускаются.
func ParseFASTA(r io.Reader) ([]domain.Hit, error) {
	var (
		hits    []domain.Hit
		current *domain.Hit
		seq     strings.Builder
	)

	flush := func() {
		if current != nil && seq.Len() > 0 {
			current.Sequence = seq.String()
			hits = append(hits, *current)
		}
		current = nil
		seq.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, ">") {
			flush()
			current = &domain.Hit{Descriptor: strings.TrimSpace(text[1:])}
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("%w: line %d: sequence before header", ErrMalformedOutput, line)
		}
		seq.WriteString(text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	flush()
	return hits, nil
}

// DedupeHits удаляет попадания с одинаковой последовательностью (первое побеждает)
// и обрезает результат до maxHits (0 — без ограничения).
func DedupeHits(hits []domain.Hit, maxHits int) []domain.Hit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]domain.Hit, 0, len(hits))

	for _, h := range hits {
		if _, ok := seen[h.Sequence]; ok {
			continue
		}
		seen[h.Sequence] = struct{}{}
		out = append(out, h)

		if maxHits > 0 && len(out) == maxHits {
			break
		}
	}

	return out
}
