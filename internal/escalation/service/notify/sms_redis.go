package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/voicedesk/voicedesk/internal/config"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// SMSOutboxKey is the Redis list the SMS gateway adapter drains.
const SMSOutboxKey = "voicedesk:notify:sms:outbox"

// SMSMessage is the wire format queued for the gateway adapter.
type SMSMessage struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	EscalationID string    `json:"escalation_id"`
	UserID       string    `json:"user_id"`
	Phone        string    `json:"phone"`
	Body         string    `json:"body"`
	QueuedAt     time.Time `json:"queued_at"`
}

// RedisSMSTransport queues SMS messages on a Redis list instead of talking
// to the gateway inline. Queued counts as delivered from the dispatcher's
// point of view; gateway-side failures surface through delivery callbacks on
// the adapter.
type RedisSMSTransport struct {
	rdb *redis.Client
}

func NewRedisSMSTransport(rdb *redis.Client) *RedisSMSTransport {
	return &RedisSMSTransport{rdb: rdb}
}

func NewRedisClientFromConfig(c *config.RedisConfig) *redis.Client {
	if c == nil {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
}

func (t *RedisSMSTransport) Send(ctx context.Context, user *model.User, esc *model.Escalation) error {
	if t.rdb == nil {
		return fmt.Errorf("sms transport not configured")
	}
	if user.Phone == "" {
		return fmt.Errorf("user %s has no phone number", user.ID)
	}
	msg := SMSMessage{
		ID:           uuid.NewString(),
		TenantID:     esc.TenantID,
		EscalationID: esc.ID,
		UserID:       user.ID,
		Phone:        user.Phone,
		Body:         escalationBody(esc),
		QueuedAt:     time.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sms message: %w", err)
	}
	if err := t.rdb.LPush(ctx, SMSOutboxKey, payload).Err(); err != nil {
		return fmt.Errorf("queue sms: %w", err)
	}
	return nil
}
