package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voicedesk/voicedesk/internal/config"
	escapi "github.com/voicedesk/voicedesk/internal/escalation/api"
	"github.com/voicedesk/voicedesk/internal/escalation/database"
	"github.com/voicedesk/voicedesk/internal/escalation/metrics"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
	"github.com/voicedesk/voicedesk/internal/escalation/service/engine"
	"github.com/voicedesk/voicedesk/internal/escalation/service/notify"
	"github.com/voicedesk/voicedesk/internal/escalation/service/rulecatalog"
	"github.com/voicedesk/voicedesk/internal/middleware"
)

func main() {
	log.Info().Msg("Starting voicedesk api server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// configure log level from config
	switch strings.ToLower(cfg.Logging.Level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := database.New(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	ruleStore := rulecatalog.NewPgStore(db)
	if n, err := rulecatalog.BootstrapRulesFromConfig(ctx, ruleStore, cfg.Escalation.Rules.ConfigFile); err != nil {
		log.Error().Err(err).Msg("bootstrap sla rules from config failed")
	} else if n > 0 {
		log.Info().Int("rules", n).Msg("sla rules loaded")
	}

	escStore := engine.NewPgEscalationStore(db)
	feedback := engine.NewPgFeedbackSource(db)

	jobs := make(chan engine.NotificationJob, cfg.Escalation.Sweep.JobChanSize)
	eng := engine.New(ruleStore, escStore, feedback, jobs, engine.Options{
		Window: time.Duration(cfg.Escalation.Sweep.WindowDays) * 24 * time.Hour,
		Batch:  cfg.Escalation.Sweep.Batch,
	})

	interval := parseDuration(cfg.Escalation.Sweep.Interval, 5*time.Minute)
	go engine.StartSweeper(ctx, engine.SweeperDeps{Engine: eng, Interval: interval})

	rdb := notify.NewRedisClientFromConfig(&cfg.Redis)
	resolver := notify.NewResolver(notify.NewPgDirectory(db))
	dispatcher := notify.NewDispatcher(map[model.Channel]notify.Transport{
		model.ChannelEmail: notify.NewEmailTransport(notify.LogEmailSender{}),
		model.ChannelSMS:   notify.NewRedisSMSTransport(rdb),
		model.ChannelInApp: notify.NewPgInAppTransport(db),
	})
	workers := cfg.Escalation.Sweep.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		w := notify.NewWorker(resolver, dispatcher, escStore)
		go w.Start(ctx, jobs)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Authentication)
	escapi.NewApi(router, eng, escStore, ruleStore, rdb)
	metrics.Register(router)

	log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("start voicedesk api server failed.")
	}
	log.Info().Msg("voicedesk api server exit...")
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
