package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Metrics holds the client's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	transactions *prometheus.CounterVec
	confirmWait  *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctix_gateway_calls_total",
				Help: "Contract gateway calls by method and outcome",
			},
			[]string{"method", "status"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctix_gateway_call_duration_seconds",
				Help:    "Latency of contract gateway calls",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"method"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ctix_transactions_total",
				Help: "Submitted transactions by method and confirmation outcome",
			},
			[]string{"method", "status"},
		),
		confirmWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ctix_transaction_confirmation_seconds",
				Help:    "Time from submission until a transaction is mined",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeCall(method string, started time.Time, err error) {
	m.callDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
	m.calls.WithLabelValues(method, status(err)).Inc()
}

func (m *Metrics) observeConfirmation(method string, started time.Time, err error) {
	m.confirmWait.WithLabelValues(method).Observe(time.Since(started).Seconds())
	m.transactions.WithLabelValues(method, status(err)).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}
