package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus registry and the collectors the service updates.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   prometheus.Gauge

	claimsCreated     prometheus.Counter
	claimTransitions  *prometheus.CounterVec
	loanTransitions   *prometheus.CounterVec
	repayments        *prometheus.CounterVec
	notifications     prometheus.Counter
	pushFailures      prometheus.Counter
	realtimeConnected prometheus.Gauge
	cronRuns          *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry:   r,
		httpReqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total"}, []string{"method", "route", "status"}),
		httpDur:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route"}),
		httpInfl:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_inflight"}),

		claimsCreated:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "claims_created_total"}),
		claimTransitions:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "claim_status_transitions_total"}, []string{"to"}),
		loanTransitions:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "loan_status_transitions_total"}, []string{"to"}),
		repayments:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "repayments_recorded_total"}, []string{"result"}),
		notifications:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_emitted_total"}),
		pushFailures:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "realtime_push_failures_total"}),
		realtimeConnected: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "realtime_clients_connected"}),
		cronRuns:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cron_runs_total"}, []string{"job", "status"}),
	}

	r.MustRegister(m.httpReqCnt, m.httpDur, m.httpInfl,
		m.claimsCreated, m.claimTransitions, m.loanTransitions, m.repayments,
		m.notifications, m.pushFailures, m.realtimeConnected, m.cronRuns)
	return m
}

// Middleware records request count, latency and in-flight requests
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		m.httpInfl.Inc()
		start := time.Now()

		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.httpReqCnt.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpDur.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		m.httpInfl.Dec()
		return err
	}
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ClaimCreated() {
	if m != nil {
		m.claimsCreated.Inc()
	}
}

func (m *Metrics) ClaimTransition(to string) {
	if m != nil {
		m.claimTransitions.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) LoanTransition(to string) {
	if m != nil {
		m.loanTransitions.WithLabelValues(to).Inc()
	}
}

// Repayment counts a repayment by result: recorded, replayed or completed.
func (m *Metrics) Repayment(result string) {
	if m != nil {
		m.repayments.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) NotificationEmitted() {
	if m != nil {
		m.notifications.Inc()
	}
}

func (m *Metrics) PushFailed() {
	if m != nil {
		m.pushFailures.Inc()
	}
}

func (m *Metrics) RealtimeClients(delta float64) {
	if m != nil {
		m.realtimeConnected.Add(delta)
	}
}

func (m *Metrics) CronRun(job, status string) {
	if m != nil {
		m.cronRuns.WithLabelValues(job, status).Inc()
	}
}
