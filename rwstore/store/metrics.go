package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rwstore"

// Metrics instruments admissions and releases of a Store.
type Metrics struct {
	// Admissions counts successful opens, labeled by mode.
	Admissions *prometheus.CounterVec
	// AdmissionWait observes how long opens waited for admission, labeled by mode.
	AdmissionWait *prometheus.HistogramVec
	// CanceledOpens counts opens that gave up before admission, labeled by mode.
	CanceledOpens *prometheus.CounterVec
	// Commits counts writer handles whose content was committed.
	Commits prometheus.Counter
	// RejectedCloses counts closes rejected with ErrInvalidHandle.
	RejectedCloses prometheus.Counter
	// Records tracks the number of records in the store.
	Records prometheus.Gauge
}

// NewMetrics creates the store metrics and registers them with reg when it is not nil.
// Collectors that are already registered (e.g. by a previous store sharing the registry)
// are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "admissions_total",
				Help:      "Total number of record admissions granted",
			},
			[]string{"mode"},
		),
		AdmissionWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "admission_wait_seconds",
				Help:      "Time spent waiting for record admission",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"mode"},
		),
		CanceledOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "canceled_opens_total",
				Help:      "Total number of opens abandoned before admission",
			},
			[]string{"mode"},
		),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commits_total",
			Help:      "Total number of writer handles committed on close",
		}),
		RejectedCloses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_closes_total",
			Help:      "Total number of closes rejected as invalid",
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "records",
			Help:      "Number of records in the store",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error

	m.Admissions, err = register(reg, m.Admissions)
	if err != nil {
		return nil, err
	}

	m.AdmissionWait, err = register(reg, m.AdmissionWait)
	if err != nil {
		return nil, err
	}

	m.CanceledOpens, err = register(reg, m.CanceledOpens)
	if err != nil {
		return nil, err
	}

	m.Commits, err = register(reg, m.Commits)
	if err != nil {
		return nil, err
	}

	m.RejectedCloses, err = register(reg, m.RejectedCloses)
	if err != nil {
		return nil, err
	}

	m.Records, err = register(reg, m.Records)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// observeAdmission records a granted open and its wait time.
func (m *Metrics) observeAdmission(mode Mode, waited time.Duration) {
	label := mode.String()

	m.Admissions.WithLabelValues(label).Inc()
	m.AdmissionWait.WithLabelValues(label).Observe(waited.Seconds())
}

// register registers c with reg, returning the already registered collector on conflict.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}
