// Package metrics holds the Prometheus collectors of the portal.
package metrics

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "metrics").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "metrics").Logger()
}

var (
	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xcm_portal",
			Subsystem: "transfer",
			Name:      "submissions_total",
			Help:      "Total number of transfer submissions",
		},
		[]string{"shape", "status"}, // submitted, build_failed, submit_failed
	)

	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xcm_portal",
			Subsystem: "transfer",
			Name:      "submission_duration_seconds",
			Help:      "Time from build request to node acknowledgment",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"shape"},
	)

	currencyResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xcm_portal",
			Subsystem: "currency",
			Name:      "resolutions_total",
			Help:      "Total number of currency option resolutions",
		},
		[]string{"status"}, // ok, empty, error
	)

	extensionConnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xcm_portal",
			Subsystem: "wallet",
			Name:      "connects_total",
			Help:      "Total number of wallet extension connects",
		},
		[]string{"extension", "result"}, // ok, no_accounts, denied, not_found, error
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "xcm_portal",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of live portal sessions",
		},
	)
)

var registerOnce sync.Once

// Register registers the portal collectors with the default registry.
// Calling it more than once is harmless.
func Register() {
	registerOnce.Do(func() {
		registerIfNotExists(collectors.NewGoCollector(), "go_collector")
		registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector")
		registerIfNotExists(transfersTotal, "transfer_submissions_total")
		registerIfNotExists(transferDuration, "transfer_submission_duration")
		registerIfNotExists(currencyResolutionsTotal, "currency_resolutions_total")
		registerIfNotExists(extensionConnectsTotal, "wallet_connects_total")
		registerIfNotExists(activeSessions, "session_active")
	})
}

func registerIfNotExists(collector prometheus.Collector, name string) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			log.Debug().Str("collector", name).Msg("Already registered")
		} else {
			log.Error().Err(err).Str("collector", name).Msg("Failed to register collector")
		}
	}
}

// Recorder records portal events. The zero value is ready to use.
type Recorder struct{}

// ObserveTransfer records a transfer outcome.
func (Recorder) ObserveTransfer(shape, status string, elapsed time.Duration) {
	transfersTotal.WithLabelValues(shape, status).Inc()
	if status == "submitted" {
		transferDuration.WithLabelValues(shape).Observe(elapsed.Seconds())
	}
}

// ObserveResolution records the outcome of a currency option lookup.
func (Recorder) ObserveResolution(options int, err error) {
	switch {
	case err != nil:
		currencyResolutionsTotal.WithLabelValues("error").Inc()
	case options == 0:
		currencyResolutionsTotal.WithLabelValues("empty").Inc()
	default:
		currencyResolutionsTotal.WithLabelValues("ok").Inc()
	}
}

// ObserveConnect records a wallet connect attempt.
func (Recorder) ObserveConnect(extension, result string) {
	extensionConnectsTotal.WithLabelValues(extension, result).Inc()
}

// SessionOpened and SessionClosed track the number of live sessions.
func (Recorder) SessionOpened() { activeSessions.Inc() }

func (Recorder) SessionClosed() { activeSessions.Dec() }
