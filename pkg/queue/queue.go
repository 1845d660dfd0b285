package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueConfig configures the consuming side of a queue.
type QueueConfig struct {
	Workers    int           // 0 means enqueue only
	RetryLimit int           // attempts after the first failure
	RetryDelay time.Duration // delay before a failed message is retried
	PollWait   time.Duration // how long one blocking pop waits
}

// Message is the envelope stored in Redis.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// ParsePayload converts a handler payload into T. Payloads read back from
// Redis arrive as json.RawMessage; in-process callers may pass T directly.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var raw []byte
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case map[string]interface{}:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("queue: re-encode payload: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("queue: unsupported payload %T", payload)
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("queue: decode %T payload: %w", *out, err)
	}
	return out, nil
}
