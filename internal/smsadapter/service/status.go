package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Delivery states as the adapter tracks them. "sent" means the gateway
// accepted the message; "delivered" needs a provider callback.
const (
	StateQueued    = "queued"
	StateSent      = "sent"
	StateDelivered = "delivered"
	StateFailed    = "failed"
)

const (
	statusKeyPrefix = "voicedesk:notify:sms:status:"
	deadLetterKey   = "voicedesk:notify:sms:deadletter"
)

// DeliveryStatus is the per-message record kept in Redis.
type DeliveryStatus struct {
	MessageID    string    `json:"message_id"`
	EscalationID string    `json:"escalation_id"`
	Phone        string    `json:"phone"`
	State        string    `json:"state"`
	Attempts     int       `json:"attempts"`
	Detail       string    `json:"detail,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusStore reads and writes delivery records.
type StatusStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatusStore(rdb *redis.Client, ttl time.Duration) *StatusStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &StatusStore{rdb: rdb, ttl: ttl}
}

func statusKey(messageID string) string { return statusKeyPrefix + messageID }

func (s *StatusStore) Put(ctx context.Context, st *DeliveryStatus) error {
	st.UpdatedAt = time.Now()
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal delivery status: %w", err)
	}
	if err := s.rdb.Set(ctx, statusKey(st.MessageID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("write delivery status: %w", err)
	}
	return nil
}

// Get returns nil when no record exists for the id.
func (s *StatusStore) Get(ctx context.Context, messageID string) (*DeliveryStatus, error) {
	val, err := s.rdb.Get(ctx, statusKey(messageID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read delivery status: %w", err)
	}
	var st DeliveryStatus
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, fmt.Errorf("parse delivery status: %w", err)
	}
	return &st, nil
}
