// Package metrics registra las métricas Prometheus de la consola.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalogo_admin"

// Metrics agrupa todas las métricas. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	CatalogRequests *prometheus.CounterVec
	CatalogDuration *prometheus.HistogramVec
	GuardDecisions  *prometheus.CounterVec
	SessionChanges  *prometheus.CounterVec
	Authenticated   prometheus.Gauge
	PDFExports      *prometheus.CounterVec
}

// New crea y registra las métricas en reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CatalogRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_requests_total",
				Help:      "Peticiones al servicio de catálogo por operación y resultado",
			},
			[]string{"op", "outcome"}, // outcome=ok/unauthorized/not_found/transport/validation
		),
		CatalogDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_request_duration_seconds",
				Help:      "Duración de las peticiones al catálogo",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		GuardDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Decisiones del guard por ruta y acción",
			},
			[]string{"route", "action"},
		),
		SessionChanges: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_transitions_total",
				Help:      "Transiciones de sesión por motivo",
			},
			[]string{"reason"},
		),
		Authenticated: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_authenticated",
				Help:      "1 si hay token en la sesión, 0 si no",
			},
		),
		PDFExports: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pdf_exports_total",
				Help:      "Exportaciones PDF del listado",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveCatalog registra una petición al catálogo.
func (m *Metrics) ObserveCatalog(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CatalogRequests.WithLabelValues(op, outcome).Inc()
	m.CatalogDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveGuard registra una decisión del guard.
func (m *Metrics) ObserveGuard(route, action string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.GuardDecisions.WithLabelValues(route, action).Inc()
}

// ObserveSession registra una transición de sesión.
func (m *Metrics) ObserveSession(reason string, authenticated bool) {
	if m == nil {
		return
	}
	m.SessionChanges.WithLabelValues(reason).Inc()
	m.SetAuthenticated(authenticated)
}

// SetAuthenticated fija el gauge sin contar una transición.
func (m *Metrics) SetAuthenticated(authenticated bool) {
	if m == nil {
		return
	}
	if authenticated {
		m.Authenticated.Set(1)
	} else {
		m.Authenticated.Set(0)
	}
}

// ObserveExport registra una exportación PDF.
func (m *Metrics) ObserveExport(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.PDFExports.WithLabelValues(outcome).Inc()
}
