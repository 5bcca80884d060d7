package mine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports metric events as prometheus counters.
// The miner core only knows the Recorder interface; serving the
// registry over HTTP is the front-end's business.
type PrometheusRecorder struct {
	iterations *prometheus.CounterVec
	funnel     *prometheus.CounterVec
}

// NewPrometheusRecorder registers the miner metrics on a registry.
func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seqmine",
			Name:      "events_total",
			Help:      "Mining events by kind.",
		}, []string{"kind"}),
		funnel: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seqmine",
			Name:      "funnel_survivors_total",
			Help:      "Candidates that survived a funnel stage, by term count.",
		}, []string{"terms"}),
	}
	registerer.MustRegister(r.iterations, r.funnel)
	return r
}

// Record implements Recorder.
func (r *PrometheusRecorder) Record(event MetricEvent) {
	if event.Kind == EventFunnelSurvivor {
		r.funnel.WithLabelValues(strconv.FormatUint(event.Value, 10)).Inc()
		return
	}
	r.iterations.WithLabelValues(event.Kind.String()).Add(float64(event.Value))
}
