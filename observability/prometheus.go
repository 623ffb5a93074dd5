package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type and severity.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

// NewPrometheusObserver registers an events_total counter under namespace on
// reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of observability events by type and level",
		},
		[]string{"type", "level"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &PrometheusObserver{events: events}, nil
}

func (o *PrometheusObserver) OnEvent(_ context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}
