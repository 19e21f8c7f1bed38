// Package metrics exposes Prometheus metrics for the user list.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lllypuk/userlist/internal/domain/user"
	"github.com/lllypuk/userlist/internal/infrastructure/collection"
	"github.com/lllypuk/userlist/internal/userlist"
)

// Call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// Collection operations.
const (
	OpList    = "list"
	OpCreate  = "create"
	OpReplace = "replace"
	OpRemove  = "remove"
)

// Metrics contains the user list metrics.
type Metrics struct {
	CallsTotal     *prometheus.CounterVec
	CallDuration   *prometheus.HistogramVec
	CallsInFlight  prometheus.Gauge
	Users          prometheus.Gauge
	Placeholders   prometheus.Gauge
	ErrorDisplayed prometheus.Gauge
}

// New creates and registers the metrics with the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userlist_collection_calls_total",
				Help: "Total number of collection calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userlist_collection_call_duration_seconds",
				Help:    "Collection call latency",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		CallsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userlist_collection_calls_in_flight",
			Help: "Collection calls issued and not yet settled",
		}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userlist_users",
			Help: "Records currently in the list, placeholders included",
		}),
		Placeholders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userlist_placeholders",
			Help: "Records added locally and not yet confirmed by the collection",
		}),
		ErrorDisplayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userlist_error_displayed",
			Help: "1 while the list shows an error message",
		}),
	}

	registerer.MustRegister(
		m.CallsTotal,
		m.CallDuration,
		m.CallsInFlight,
		m.Users,
		m.Placeholders,
		m.ErrorDisplayed,
	)

	return m
}

// ObserveState updates the list gauges. It has the userlist.Listener shape.
func (m *Metrics) ObserveState(state userlist.State) {
	placeholders := 0
	for _, rec := range state.Users {
		if !rec.IsSaved() {
			placeholders++
		}
	}

	m.Users.Set(float64(len(state.Users)))
	m.Placeholders.Set(float64(placeholders))
	if state.Error != "" {
		m.ErrorDisplayed.Set(1)
	} else {
		m.ErrorDisplayed.Set(0)
	}
}

// Instrument wraps next so that every call is counted and timed.
func (m *Metrics) Instrument(next userlist.CollectionClient) userlist.CollectionClient {
	return &instrumentedClient{next: next, metrics: m}
}

type instrumentedClient struct {
	next    userlist.CollectionClient
	metrics *Metrics
}

var _ userlist.CollectionClient = (*instrumentedClient)(nil)

func (c *instrumentedClient) ListAll(ctx context.Context) ([]user.Record, error) {
	done := c.metrics.begin(OpList)
	users, err := c.next.ListAll(ctx)
	done(err)
	return users, err
}

func (c *instrumentedClient) Create(ctx context.Context, rec user.Record) (user.Record, error) {
	done := c.metrics.begin(OpCreate)
	created, err := c.next.Create(ctx, rec)
	done(err)
	return created, err
}

func (c *instrumentedClient) Replace(ctx context.Context, rec user.Record) (user.Record, error) {
	done := c.metrics.begin(OpReplace)
	updated, err := c.next.Replace(ctx, rec)
	done(err)
	return updated, err
}

func (c *instrumentedClient) Remove(ctx context.Context, id int) error {
	done := c.metrics.begin(OpRemove)
	err := c.next.Remove(ctx, id)
	done(err)
	return err
}

func (m *Metrics) begin(op string) func(err error) {
	start := time.Now()
	m.CallsInFlight.Inc()

	return func(err error) {
		m.CallsInFlight.Dec()
		m.CallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		m.CallsTotal.WithLabelValues(op, outcome(err)).Inc()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case collection.IsCanceled(err):
		return OutcomeCanceled
	default:
		return OutcomeFailure
	}
}
