package services

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthwatch/internal/models"
)

const metricsNamespace = "healthwatch"

// PrometheusSink mirrors the latest tick into a Prometheus registry, which is
// scraped over HTTP and pushed by PushSink. Unknown readings are removed from
// their vector instead of being reported as zero.
type PrometheusSink struct {
	registry *prometheus.Registry

	usage              *prometheus.GaugeVec
	traffic            *prometheus.GaugeVec
	warning            prometheus.Gauge
	threshold          prometheus.Gauge
	lastTick           prometheus.Gauge
	providerInstances  *prometheus.GaugeVec
	providerLoad       *prometheus.GaugeVec
	providerHealthy    *prometheus.GaugeVec
	forecastUsage      *prometheus.GaugeVec
	forecastTraffic    *prometheus.GaugeVec
	forecastConfidence *prometheus.GaugeVec
	ticks              prometheus.Counter
	sampleFailures     prometheus.Counter
	forecastMisses     prometheus.Counter
	tickDuration       prometheus.Histogram
}

// NewPrometheusSink creates the sink with its own registry. Go runtime and
// process collectors are registered alongside.
func NewPrometheusSink() *PrometheusSink {
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		usage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "resource_usage_percent",
			Help:      "Sampled resource usage.",
		}, []string{"resource"}),
		traffic: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "network_traffic_bytes_per_second",
			Help:      "Bytes sent and received per second across interfaces.",
		}, nil),
		warning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "status_warning",
			Help:      "1 when the last tick was classified WARNING.",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "alert_threshold_percent",
			Help:      "Configured alert threshold.",
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Sample time of the last tick.",
		}),
		providerInstances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "provider_instances",
			Help:      "Running instances per cloud provider.",
		}, []string{"provider"}),
		providerLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "provider_load_percent",
			Help:      "Load per cloud provider.",
		}, []string{"provider"}),
		providerHealthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "provider_healthy",
			Help:      "1 when the provider reports HEALTHY.",
		}, []string{"provider"}),
		forecastUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "forecast_usage_percent",
			Help:      "Predicted resource usage at the end of the forecast window.",
		}, []string{"resource"}),
		forecastTraffic: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "forecast_traffic_bytes_per_second",
			Help:      "Predicted traffic at the end of the forecast window.",
		}, nil),
		forecastConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "forecast_confidence_percent",
			Help:      "Confidence of the last forecast.",
		}, nil),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Ticks reported.",
		}),
		sampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sample_failures_total",
			Help:      "Ticks where no metric could be sampled.",
		}),
		forecastMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "forecast_unavailable_total",
			Help:      "Ticks where the forecast could not be produced.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent sampling and evaluating per tick.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.usage, s.traffic, s.warning, s.threshold, s.lastTick,
		s.providerInstances, s.providerLoad, s.providerHealthy,
		s.forecastUsage, s.forecastTraffic, s.forecastConfidence,
		s.ticks, s.sampleFailures, s.forecastMisses, s.tickDuration,
	)

	return s
}

// Registry returns the registry backing the sink.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func (s *PrometheusSink) Report(ctx context.Context, record models.TickRecord) error {
	snap := record.Snapshot

	for _, m := range models.ThresholdMetrics {
		if v, ok := snap.Value(m); ok {
			s.usage.WithLabelValues(string(m)).Set(v)
		} else {
			s.usage.DeleteLabelValues(string(m))
		}
	}
	if snap.Traffic != nil {
		s.traffic.WithLabelValues().Set(*snap.Traffic)
	} else {
		s.traffic.Reset()
	}

	if record.Report.Status == models.StatusWarning {
		s.warning.Set(1)
	} else {
		s.warning.Set(0)
	}
	s.threshold.Set(record.Report.Threshold)
	s.lastTick.Set(float64(snap.Timestamp.UnixNano()) / 1e9)

	s.providerInstances.Reset()
	s.providerLoad.Reset()
	s.providerHealthy.Reset()
	for name, p := range snap.Providers {
		s.providerInstances.WithLabelValues(name).Set(float64(p.Instances))
		s.providerLoad.WithLabelValues(name).Set(p.LoadPercent)
		healthy := 0.0
		if p.Health == models.HealthHealthy {
			healthy = 1
		}
		s.providerHealthy.WithLabelValues(name).Set(healthy)
	}

	s.forecastUsage.Reset()
	s.forecastTraffic.Reset()
	s.forecastConfidence.Reset()
	if f := record.Forecast; f != nil {
		if f.CPU != nil {
			s.forecastUsage.WithLabelValues(string(models.MetricCPU)).Set(*f.CPU)
		}
		if f.Memory != nil {
			s.forecastUsage.WithLabelValues(string(models.MetricMemory)).Set(*f.Memory)
		}
		if f.Traffic != nil {
			s.forecastTraffic.WithLabelValues().Set(*f.Traffic)
		}
		s.forecastConfidence.WithLabelValues().Set(f.Confidence)
	}

	s.ticks.Inc()
	if record.SampleError != "" {
		s.sampleFailures.Inc()
	}
	if record.ForecastUnavailable() {
		s.forecastMisses.Inc()
	}
	s.tickDuration.Observe(record.Duration.Seconds())

	return nil
}
