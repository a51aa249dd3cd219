// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/blockcms/internal/cache"
)

// Namespace prefixes every metric name.
const Namespace = "blockcms"

// Page save results.
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultDuplicate  = "duplicate"
	ResultError      = "error"
	ResultNotFound   = "not_found"
)

// Metrics holds the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PageSavesTotal    *prometheus.CounterVec
	PageResolvesTotal *prometheus.CounterVec

	JobRunsTotal  *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	CachedPages   prometheus.Gauge
	ExportedPages prometheus.Gauge
}

// New creates a registry with the Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.PageSavesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pages",
			Name:      "saves_total",
			Help:      "Page save attempts from the editor by action and result",
		},
		[]string{"action", "result"},
	)
	m.PageResolvesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "pages",
			Name:      "resolves_total",
			Help:      "Public page lookups by result",
		},
		[]string{"result"},
	)

	m.JobRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result",
		},
		[]string{"job", "result"},
	)
	m.JobDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)
	m.CachedPages = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "cache",
		Name:      "warmed_pages",
		Help:      "Published pages loaded by the last cache warm-up",
	})
	m.ExportedPages = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "export",
		Name:      "pages",
		Help:      "Pages included in the last export",
	})

	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterCacheStats exposes the counters of a cache as gauge functions.
func (m *Metrics) RegisterCacheStats(p cache.StatsProvider) {
	factory := promauto.With(m.registry)
	gauge := func(name, help string, fn func(cache.Stats) float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return fn(p.Stats()) })
	}

	gauge("hits", "Cache hits since start or last reset", func(s cache.Stats) float64 { return float64(s.Hits) })
	gauge("misses", "Cache misses since start or last reset", func(s cache.Stats) float64 { return float64(s.Misses) })
	gauge("items", "Entries currently cached", func(s cache.Stats) float64 { return float64(s.Items) })
}
