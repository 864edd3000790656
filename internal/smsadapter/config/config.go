package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// SMSAdapterConfig holds the gateway adapter settings.
type SMSAdapterConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Consumer ConsumerConfig `yaml:"consumer"`
}

type ServerConfig struct {
	BindAddr string `yaml:"bind_addr"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GatewayConfig points at the upstream SMS provider HTTP API.
type GatewayConfig struct {
	URL      string `yaml:"url"`
	Timeout  string `yaml:"timeout"`   // e.g. "10s"
	SenderID string `yaml:"sender_id"` // provider-side originator
}

type ConsumerConfig struct {
	Workers     int    `yaml:"workers"`
	PollTimeout string `yaml:"poll_timeout"` // BRPOP block duration
	MaxAttempts int    `yaml:"max_attempts"`
	StatusTTL   string `yaml:"status_ttl"` // how long delivery records live
}

// LoadConfig reads the YAML config. A missing file is not an error; the
// defaults are enough for a local run against localhost Redis.
func LoadConfig(configPath string) (*SMSAdapterConfig, error) {
	if configPath == "" {
		possiblePaths := []string{
			"config/sms_adapter.yml",
			"internal/smsadapter/config/sms_adapter.yml",
			"./sms_adapter.yml",
		}
		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				log.Info().Str("path", path).Msg("Found config file")
				break
			}
		}
	}

	cfg := defaultConfig()
	if configPath == "" {
		log.Info().Msg("No config file found, using defaults")
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("Config file missing, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *SMSAdapterConfig {
	cfg := &SMSAdapterConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *SMSAdapterConfig) {
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = ":9980"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Gateway.Timeout == "" {
		cfg.Gateway.Timeout = "10s"
	}
	if cfg.Consumer.Workers <= 0 {
		cfg.Consumer.Workers = 1
	}
	if cfg.Consumer.PollTimeout == "" {
		cfg.Consumer.PollTimeout = "5s"
	}
	if cfg.Consumer.MaxAttempts <= 0 {
		cfg.Consumer.MaxAttempts = 3
	}
	if cfg.Consumer.StatusTTL == "" {
		cfg.Consumer.StatusTTL = "72h"
	}
}
