package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Logging    LoggingConfig    `json:"logging"`
	Redis      RedisConfig      `json:"redis"`
	Escalation EscalationConfig `json:"escalation"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type EscalationConfig struct {
	Sweep SweepConfig `json:"sweep"`
	Rules RulesConfig `json:"rules"`
}

type SweepConfig struct {
	Interval    string `json:"interval"` // e.g. "5m"
	Batch       int    `json:"batch"`
	Workers     int    `json:"workers"`
	JobChanSize int    `json:"jobChanSize"`
	WindowDays  int    `json:"windowDays"` // lookback for open feedback
}

type RulesConfig struct {
	ConfigFile string `json:"configFile"`
}

func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()

	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "voicedesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "debug"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Escalation: EscalationConfig{
			Sweep: SweepConfig{
				Interval:    getEnv("SWEEP_INTERVAL", "5m"),
				Batch:       getEnvInt("SWEEP_BATCH", 200),
				Workers:     getEnvInt("NOTIFY_WORKERS", 1),
				JobChanSize: getEnvInt("NOTIFY_JOB_CHAN_SIZE", 1024),
				WindowDays:  getEnvInt("SWEEP_WINDOW_DAYS", 30),
			},
			Rules: RulesConfig{
				ConfigFile: getEnv("SLA_RULES_CONFIG_FILE", ""),
			},
		},
	}

	if *configFile != "" {
		if err := loadFromFile(cfg, *configFile); err != nil {
			log.Err(err)
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Escalation.Sweep.Interval == "" {
		cfg.Escalation.Sweep.Interval = "5m"
	}
	if cfg.Escalation.Sweep.Batch == 0 {
		cfg.Escalation.Sweep.Batch = 200
	}
	if cfg.Escalation.Sweep.Workers == 0 {
		cfg.Escalation.Sweep.Workers = 1
	}
	if cfg.Escalation.Sweep.JobChanSize == 0 {
		cfg.Escalation.Sweep.JobChanSize = 1024
	}
	if cfg.Escalation.Sweep.WindowDays == 0 {
		cfg.Escalation.Sweep.WindowDays = 30
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
