package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/service/notify"
	"github.com/voicedesk/voicedesk/internal/smsadapter/client"
)

// Consumer drains the SMS outbox queue and submits messages to the gateway.
type Consumer struct {
	rdb         *redis.Client
	gateway     *client.GatewayClient
	status      *StatusStore
	pollTimeout time.Duration
	maxAttempts int
}

func NewConsumer(rdb *redis.Client, gateway *client.GatewayClient, status *StatusStore, pollTimeout time.Duration, maxAttempts int) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Consumer{
		rdb:         rdb,
		gateway:     gateway,
		status:      status,
		pollTimeout: pollTimeout,
		maxAttempts: maxAttempts,
	}
}

// Start blocks on the outbox until the context is cancelled. Failed submits
// go back on the queue until maxAttempts, then to the dead letter list.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("sms consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sms consumer stopped")
			return
		default:
		}
		vals, err := c.rdb.BRPop(ctx, c.pollTimeout, notify.SMSOutboxKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("sms outbox pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value]
		if len(vals) != 2 {
			continue
		}
		c.handle(ctx, []byte(vals[1]))
	}
}

type queuedMessage struct {
	notify.SMSMessage
	Attempts int `json:"attempts,omitempty"`
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var msg queuedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Error().Err(err).Msg("dropping malformed sms message")
		return
	}
	msg.Attempts++

	err := c.gateway.Submit(ctx, client.SendRequest{
		MessageID: msg.ID,
		To:        msg.Phone,
		Body:      msg.Body,
	})
	st := &DeliveryStatus{
		MessageID:    msg.ID,
		EscalationID: msg.EscalationID,
		Phone:        msg.Phone,
		Attempts:     msg.Attempts,
	}
	if err == nil {
		st.State = StateSent
		if perr := c.status.Put(ctx, st); perr != nil {
			log.Warn().Err(perr).Str("message", msg.ID).Msg("delivery status write failed")
		}
		log.Info().Str("message", msg.ID).Str("escalation", msg.EscalationID).Msg("sms submitted to gateway")
		return
	}

	st.Detail = err.Error()
	if msg.Attempts >= c.maxAttempts {
		st.State = StateFailed
		if perr := c.status.Put(ctx, st); perr != nil {
			log.Warn().Err(perr).Str("message", msg.ID).Msg("delivery status write failed")
		}
		if raw, merr := json.Marshal(&msg); merr == nil {
			if derr := c.rdb.LPush(ctx, deadLetterKey, raw).Err(); derr != nil {
				log.Error().Err(derr).Str("message", msg.ID).Msg("dead letter push failed")
			}
		}
		log.Error().Err(err).Str("message", msg.ID).Int("attempts", msg.Attempts).Msg("sms gave up after max attempts")
		return
	}

	st.State = StateQueued
	if perr := c.status.Put(ctx, st); perr != nil {
		log.Warn().Err(perr).Str("message", msg.ID).Msg("delivery status write failed")
	}
	if raw, merr := json.Marshal(&msg); merr == nil {
		if rerr := c.rdb.LPush(ctx, notify.SMSOutboxKey, raw).Err(); rerr != nil {
			log.Error().Err(rerr).Str("message", msg.ID).Msg("sms requeue failed")
		}
	}
	log.Warn().Err(err).Str("message", msg.ID).Int("attempts", msg.Attempts).Msg("sms submit failed, requeued")
}
