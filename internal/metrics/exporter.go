// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports instrument state and transaction counters to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

// Result labels for transactions
const (
	ResultOK         = "ok"
	ResultTimeout    = "timeout"
	ResultRejected   = "rejected"
	ResultUnexpected = "unexpected"
	ResultCircuit    = "circuit_open"
	ResultTransport  = "transport"
)

// Exporter manages Prometheus metrics export
type Exporter struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	latency      prometheus.Histogram
	discarded    *prometheus.CounterVec
	status       prometheus.Gauge
	errorCode    prometheus.Gauge
	connected    prometheus.Gauge
	breakerState prometheus.Gauge
}

// NewExporter creates and registers all metrics on a private registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorpion_transactions_total",
				Help: "Total number of command transactions",
			},
			[]string{"command", "result"},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scorpion_transaction_duration_seconds",
				Help:    "Time from writing a command to its reply",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 3, 5},
			},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorpion_discarded_lines_total",
				Help: "Lines skipped while waiting for replies",
			},
			[]string{"kind"}, // echo, blank
		),
		status: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scorpion_status",
				Help: "Last status code (0=okay, 2=error, 4=busy, 16=run finished, -1=unknown)",
			},
		),
		errorCode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scorpion_error_code",
				Help: "Last error code reported by the instrument",
			},
		),
		connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scorpion_connected",
				Help: "1 while the instrument answers",
			},
		),
		breakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scorpion_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
	}

	e.registry.MustRegister(e.transactions, e.latency, e.discarded,
		e.status, e.errorCode, e.connected, e.breakerState)
	e.status.Set(-1)
	return e
}

// ObserveTransaction records a completed transaction. It has the signature
// of a scorpion transaction hook.
func (e *Exporter) ObserveTransaction(tx scorpion.Transaction) {
	e.transactions.WithLabelValues(tx.Command, Result(tx.Err)).Inc()
	if tx.Err == nil {
		e.latency.Observe(tx.Duration.Seconds())
	}
	if tx.Echoes > 0 {
		e.discarded.WithLabelValues("echo").Add(float64(tx.Echoes))
	}
	if tx.Blanks > 0 {
		e.discarded.WithLabelValues("blank").Add(float64(tx.Blanks))
	}
}

// SetStatus records the last polled status.
func (e *Exporter) SetStatus(s scorpion.StatusCode) {
	e.status.Set(float64(s))
}

// SetErrorCode records the last error code.
func (e *Exporter) SetErrorCode(c scorpion.ErrorCode) {
	e.errorCode.Set(float64(c))
}

// SetConnected records whether the instrument is reachable.
func (e *Exporter) SetConnected(ok bool) {
	if ok {
		e.connected.Set(1)
		return
	}
	e.connected.Set(0)
}

// SetBreakerState records the circuit breaker state.
func (e *Exporter) SetBreakerState(state gobreaker.State) {
	e.breakerState.Set(float64(state))
}

// Result maps a transaction error to its result label.
func Result(err error) string {
	var unexpected *scorpion.UnexpectedResponseError
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, scorpion.ErrCircuitOpen):
		return ResultCircuit
	case errors.Is(err, scorpion.ErrTimeout):
		return ResultTimeout
	case errors.Is(err, scorpion.ErrRequest):
		return ResultRejected
	case errors.As(err, &unexpected):
		return ResultUnexpected
	default:
		return ResultTransport
	}
}

// Registry returns the registry holding the metrics.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics HTTP server on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
