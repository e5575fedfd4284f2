package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics regroupe les compteurs exposés sur /metrics. Un *Metrics nil est accepté partout.
type Metrics struct {
	registry *prometheus.Registry

	quotes         *prometheus.CounterVec
	quoteFailures  *prometheus.CounterVec
	settingsWrites *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipping",
			Name:      "quotes_total",
			Help:      "Devis renvoyés, par service_code.",
		}, []string{"service_code"}),
		quoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipping",
			Name:      "quote_failures_total",
			Help:      "Devis refusés, par motif.",
		}, []string{"reason"}),
		settingsWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipping",
			Name:      "settings_writes_total",
			Help:      "Écritures des réglages de livraison, par résultat.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipping",
			Name:      "http_requests_total",
			Help:      "Requêtes HTTP traitées.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shipping",
			Name:      "http_request_duration_seconds",
			Help:      "Durée des requêtes HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.registry.MustRegister(
		m.quotes, m.quoteFailures, m.settingsWrites, m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) QuoteServed(serviceCode string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(serviceCode).Inc()
}

func (m *Metrics) QuoteFailed(reason string) {
	if m == nil {
		return
	}
	m.quoteFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) SettingsWritten(outcome string) {
	if m == nil {
		return
	}
	m.settingsWrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(seconds)
}
