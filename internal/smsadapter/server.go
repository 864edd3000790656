package smsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/fox-gonic/fox"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/smsadapter/api"
	"github.com/voicedesk/voicedesk/internal/smsadapter/client"
	"github.com/voicedesk/voicedesk/internal/smsadapter/config"
	"github.com/voicedesk/voicedesk/internal/smsadapter/service"
)

// SMSAdapterServer owns the queue consumer and the operational API.
type SMSAdapterServer struct {
	config   *config.SMSAdapterConfig
	rdb      *redis.Client
	consumer *service.Consumer
	status   *service.StatusStore
	api      *api.Api
}

func NewSMSAdapterServer(cfg *config.SMSAdapterConfig) (*SMSAdapterServer, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	gateway := client.NewGatewayClient(cfg.Gateway.URL, cfg.Gateway.SenderID, parseDuration(cfg.Gateway.Timeout, 10*time.Second))
	status := service.NewStatusStore(rdb, parseDuration(cfg.Consumer.StatusTTL, 72*time.Hour))
	consumer := service.NewConsumer(rdb, gateway, status, parseDuration(cfg.Consumer.PollTimeout, 5*time.Second), cfg.Consumer.MaxAttempts)

	log.Info().Str("gateway", cfg.Gateway.URL).Str("redis", cfg.Redis.Addr).Msg("SMS adapter initialized")
	return &SMSAdapterServer{
		config:   cfg,
		rdb:      rdb,
		consumer: consumer,
		status:   status,
	}, nil
}

// Start launches the consumer workers. Non-blocking.
func (s *SMSAdapterServer) Start(ctx context.Context) {
	for i := 0; i < s.config.Consumer.Workers; i++ {
		go s.consumer.Start(ctx)
	}
}

func (s *SMSAdapterServer) UseApi(router *fox.Engine) error {
	var err error
	s.api, err = api.NewApi(s.status, router)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	return nil
}

func (s *SMSAdapterServer) Close() error {
	log.Info().Msg("SMS adapter shutting down")
	return s.rdb.Close()
}

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}
