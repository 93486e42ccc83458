package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	webhookEvents      *prometheus.CounterVec
	entitlementChecks  *prometheus.CounterVec
	contextLoadSeconds prometheus.Histogram
)

func initMetrics() {
	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complytrack",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Billing webhook events by type and processing outcome.",
		},
		[]string{"type", "outcome"},
	)

	entitlementChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complytrack",
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Entitlement gate decisions by feature.",
		},
		[]string{"feature", "allowed"},
	)

	contextLoadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "complytrack",
			Subsystem: "entitlement",
			Name:      "context_load_seconds",
			Help:      "Time spent assembling an entitlement snapshot.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	prometheus.MustRegister(webhookEvents, entitlementChecks, contextLoadSeconds)
}

func RecordWebhookEvent(eventType, outcome string) {
	once.Do(initMetrics)
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func RecordDecision(feature string, allowed bool) {
	once.Do(initMetrics)
	entitlementChecks.WithLabelValues(feature, strconv.FormatBool(allowed)).Inc()
}

func ObserveContextLoad(elapsed time.Duration) {
	once.Do(initMetrics)
	contextLoadSeconds.Observe(elapsed.Seconds())
}

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	once.Do(initMetrics)
	return adaptor.HTTPHandler(promhttp.Handler())
}
