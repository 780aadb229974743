package lifecycle

import (
	"fmt"
	"sync"
)

// Registry — блокировка эксклюзивности: не более одного task в работе.
type Registry struct {
	mu      sync.Mutex
	current string
}

// NewRegistry создаёт пустой Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire захватывает блокировку для taskID.
func (r *Registry) Acquire(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != "" {
		return fmt.Errorf("%w: %s", ErrTaskInFlight, r.current)
	}
	r.current = taskID
	return nil
}

// Release освобождает блокировку, если она принадлежит taskID.
func (r *Registry) Release(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == taskID {
		r.current = ""
	}
}

// Current возвращает task, удерживающий блокировку.
func (r *Registry) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != ""
}
