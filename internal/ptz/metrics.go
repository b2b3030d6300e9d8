package ptz

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tapoptz/tapoptz/pkg/onvif"
)

const namespace = "tapoptz"

type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Position *prometheus.GaugeVec
}

// NewMetrics register PTZ metrics, nil registerer creates unregistered metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ptz",
			Name:      "requests_total",
			Help:      "Total PTZ operations by camera, operation and result",
		}, []string{"camera", "operation", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ptz",
			Name:      "request_duration_seconds",
			Help:      "PTZ operation duration including camera round trips",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"camera", "operation"}),
		Position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ptz",
			Name:      "position",
			Help:      "Last known camera position by axis",
		}, []string{"camera", "axis"}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.Position)
	}

	return m
}

// Observe - nil safe
func (m *Metrics) Observe(camera, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(camera, operation, result(err)).Inc()
	m.Duration.WithLabelValues(camera, operation).Observe(d.Seconds())
}

func (m *Metrics) SetPosition(camera string, pan, tilt, zoom float64) {
	if m == nil {
		return
	}
	m.Position.WithLabelValues(camera, "pan").Set(pan)
	m.Position.WithLabelValues(camera, "tilt").Set(tilt)
	m.Position.WithLabelValues(camera, "zoom").Set(zoom)
}

// result - ok, fault (camera answered with SOAP Fault) or error
func result(err error) string {
	if err == nil {
		return "ok"
	}
	var fault *onvif.Fault
	if errors.As(err, &fault) {
		return "fault"
	}
	return "error"
}
