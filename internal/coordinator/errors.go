package coordinator

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse — ответ координатора не соответствует протоколу.
var ErrUnexpectedResponse = errors.New("unexpected coordinator response")

// StatusError — координатор ответил не-2xx.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}
