package alignment

import "errors"

// ErrEmptyAlignment — после объединения не осталось ни одной последовательности.
var ErrEmptyAlignment = errors.New("empty alignment")
