package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Recorder counts conditional upload decisions and node invocations. A nil
*Recorder is valid and records nothing.
*/
type Recorder struct {
	outcomes      *prometheus.CounterVec
	probes        *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	nodeDuration  *prometheus.HistogramVec
}

/*
NewRecorder creates the collectors and registers them on reg. Passing nil
registers on the prometheus default registry.
*/
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3flow_upsert_outcomes_total",
				Help: "Conditional upload outcomes by status",
			},
			[]string{"status"},
		),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3flow_upsert_probes_total",
				Help: "Metadata probes by result",
			},
			[]string{"result"},
		),
		uploadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "s3flow_upsert_uploaded_bytes_total",
				Help: "Body bytes written by uploads",
			},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "s3flow_node_duration_seconds",
				Help:    "Node invocation duration",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"node", "status"},
		),
	}

	for _, collector := range []prometheus.Collector{r.outcomes, r.probes, r.uploadedBytes, r.nodeDuration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ObserveOutcome counts one upload outcome
func (r *Recorder) ObserveOutcome(status string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(status).Inc()
}

// ObserveProbe counts one metadata probe
func (r *Recorder) ObserveProbe(result string) {
	if r == nil {
		return
	}
	r.probes.WithLabelValues(result).Inc()
}

// ObserveUploadedBytes adds to the uploaded byte count
func (r *Recorder) ObserveUploadedBytes(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.uploadedBytes.Add(float64(n))
}

// ObserveNode records how long one node invocation took
func (r *Recorder) ObserveNode(node string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	r.nodeDuration.WithLabelValues(node, status).Observe(elapsed.Seconds())
}
