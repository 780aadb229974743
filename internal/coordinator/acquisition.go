package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shaiso/foldnode/internal/domain"
)

// AcquisitionKind — исход запроса next-task.
type AcquisitionKind int

const (
	// NoTaskAvailable — очередь пуста.
	NoTaskAvailable AcquisitionKind = iota

	// TaskAcquired — получен task.
	TaskAcquired

	// Unauthorized — кошелёк не зарегистрирован или не имеет нужной роли.
	// Воркер должен завершиться штатно.
	Unauthorized
)

func (k AcquisitionKind) String() string {
	switch k {
	case NoTaskAvailable:
		return "no_task"
	case TaskAcquired:
		return "task"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Коды-сентинелы, которые координатор возвращает вместо task.
const (
	sentinelNotRegistered = 0
	sentinelWrongRole     = 2
)

// Причины Unauthorized.
const (
	ReasonNotRegistered = "wallet is not registered"
	ReasonWrongRole     = "wallet is not authorized for this role"
)

// Acquisition — результат next-task.
type Acquisition struct {
	Kind   AcquisitionKind
	Task   *domain.Task
	Reason string
}

// parseAcquisition разбирает тело ответа next-task.
func parseAcquisition(body []byte, wallet string) (Acquisition, error) {
	body = bytes.TrimSpace(body)

	switch {
	case len(body) == 0,
		bytes.Equal(body, []byte("null")),
		bytes.Equal(body, []byte("false")),
		bytes.Equal(body, []byte(`""`)),
		bytes.Equal(body, []byte("[]")):
		return Acquisition{Kind: NoTaskAvailable}, nil
	}

	switch body[0] {
	case '{':
		var task domain.Task
		if err := json.Unmarshal(body, &task); err != nil {
			return Acquisition{}, fmt.Errorf("%w: decode task: %v", ErrUnexpectedResponse, err)
		}
		if task.ID == "" {
			if isEmptyObject(body) {
				return Acquisition{Kind: NoTaskAvailable}, nil
			}
			return Acquisition{}, fmt.Errorf("%w: task without task_id", ErrUnexpectedResponse)
		}
		if task.WalletAddress == "" {
			task.WalletAddress = wallet
		}
		return Acquisition{Kind: TaskAcquired, Task: &task}, nil

	default:
		var code json.Number
		if err := json.Unmarshal(body, &code); err != nil {
			return Acquisition{}, fmt.Errorf("%w: %s", ErrUnexpectedResponse, truncate(string(body), 64))
		}

		n, err := code.Int64()
		if err != nil {
			return Acquisition{}, fmt.Errorf("%w: non-integer sentinel %s", ErrUnexpectedResponse, code)
		}

		switch n {
		case sentinelNotRegistered:
			return Acquisition{Kind: Unauthorized, Reason: ReasonNotRegistered}, nil
		case sentinelWrongRole:
			return Acquisition{Kind: Unauthorized, Reason: ReasonWrongRole}, nil
		default:
			return Acquisition{}, fmt.Errorf("%w: unknown sentinel %d", ErrUnexpectedResponse, n)
		}
	}
}

func isEmptyObject(body []byte) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	return len(m) == 0
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
