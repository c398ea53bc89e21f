package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"quantron.io/qs"
)

//	Metrics counts dispatches by outcome and times them.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

//	NewMetrics registers the collectors with registerer, or with the default
//	registry when nil.
func NewMetrics(registerer prometheus.Registerer) (metrics *Metrics, err error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	metrics = &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qs_method_requests_total",
			Help: "Methods delivered, by method name and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qs_method_duration_seconds",
			Help:    "Time from dispatch to delivery.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qs_methods_in_flight",
			Help: "Methods dispatched and not yet delivered.",
		}),
	}
	for _, collector := range []prometheus.Collector{metrics.requests, metrics.duration, metrics.inFlight} {
		if err = registerer.Register(collector); err != nil {
			metrics = nil
			return
		}
	}
	return
}

//	The in-flight gauge and duration follow the method's Done channel, so a
//	method still counts as settled when Release drops the stage before delivery.
func (s *Metrics) WillPerform(m *Method) {
	start := time.Now()
	s.inFlight.Inc()
	go func() {
		<-m.Done()
		s.inFlight.Dec()
		s.duration.WithLabelValues(m.Name()).Observe(time.Since(start).Seconds())
	}()
}

func (s *Metrics) DidComplete(m *Method, result interface{}, err error) {
	s.requests.WithLabelValues(m.Name(), qs.Kind(err)).Inc()
}
