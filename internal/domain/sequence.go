package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Ошибки валидации последовательности.
var (
	// ErrEmptySequence — последовательность пуста.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrInvalidResidue — последовательность содержит недопустимый символ.
	ErrInvalidResidue = errors.New("invalid residue symbol")

	// ErrMalformedSequence — последовательность не является строкой или массивом символов.
	ErrMalformedSequence = errors.New("malformed sequence")
)

// ValidResidues — 20 стандартных аминокислот.
const ValidResidues = "ACDEFGHIKLMNPQRSTVWY"

// Sequence — провалидированная аминокислотная последовательность (верхний регистр).
type Sequence string

// Len возвращает количество остатков.
func (s Sequence) Len() int {
	return len(s)
}

// String возвращает строковое представление.
func (s Sequence) String() string {
	return string(s)
}

// FASTA возвращает запись FASTA с заголовком ">query".
func (s Sequence) FASTA() string {
	return ">query\n" + string(s)
}

// NewSequence валидирует строку и возвращает Sequence.
//
// Пробельные символы по краям и внутри отбрасываются, регистр приводится к верхнему.
// Любой другой символ вне ValidResidues — ошибка.
func NewSequence(raw string) (Sequence, error) {
	var b strings.Builder
	b.Grow(len(raw))

	for i, r := range raw {
		switch {
		case r == ' ' || r == '\n' || r == '\r' || r == '\t':
			continue
		case r >= 'a' && r <= 'z':
			r -= 'a' - 'A'
		}
		if !strings.ContainsRune(ValidResidues, r) {
			return "", fmt.Errorf("%w: %q at position %d", ErrInvalidResidue, r, i)
		}
		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return "", ErrEmptySequence
	}

	return Sequence(b.String()), nil
}

// ParseSequence разбирает последовательность из JSON-ответа координатора.
//
// Допустимые формы: строка ("MKT...") или массив однобуквенных строк
// (["M","K","T"]). Всё остальное отклоняется сразу.
func ParseSequence(raw json.RawMessage) (Sequence, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrEmptySequence
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedSequence, err)
		}
		return NewSequence(s)

	case '[':
		var parts []string
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedSequence, err)
		}
		for i, p := range parts {
			if len(p) != 1 {
				return "", fmt.Errorf("%w: element %d is %q, want one symbol", ErrMalformedSequence, i, p)
			}
		}
		return NewSequence(strings.Join(parts, ""))

	default:
		return "", fmt.Errorf("%w: unexpected JSON value %s", ErrMalformedSequence, truncate(string(raw), 32))
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
