package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EscalationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicedesk",
		Subsystem: "escalation",
		Name:      "created_total",
		Help:      "Escalations created, by tier and trigger reason.",
	}, []string{"tier", "reason"})

	NotificationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicedesk",
		Subsystem: "notify",
		Name:      "attempts_total",
		Help:      "Per recipient/channel delivery attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voicedesk",
		Subsystem: "escalation",
		Name:      "sweep_duration_seconds",
		Help:      "Wall time of one sweep pass.",
		Buckets:   prometheus.DefBuckets,
	})

	SweepBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voicedesk",
		Subsystem: "escalation",
		Name:      "sweep_batch_size",
		Help:      "Open feedback items examined per sweep pass.",
		Buckets:   []float64{0, 10, 50, 100, 200, 500, 1000},
	})
)

// Register exposes the default registry on the given router.
func Register(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
