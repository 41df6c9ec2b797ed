package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	records       *prom.CounterVec
	diagnostics   *prom.CounterVec
	linkOutcomes  *prom.CounterVec
	modelSymbols  prom.Gauge
	modelExcluded prom.Gauge
}

// NewPrometheusRecorder constructs and registers the generation run metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "apidoc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "apidoc",
			Name:      "run_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apidoc",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apidoc",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		records: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apidoc",
			Name:      "records_total",
			Help:      "Symbol records accepted per intake origin",
		}, []string{"origin"}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apidoc",
			Name:      "diagnostics_total",
			Help:      "Diagnostics by kind",
		}, []string{"kind"}),
		linkOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "apidoc",
			Name:      "link_outcomes_total",
			Help:      "Cross-reference resolutions by outcome",
		}, []string{"outcome"}),
		modelSymbols: prom.NewGauge(prom.GaugeOpts{
			Namespace: "apidoc",
			Name:      "model_symbols",
			Help:      "Symbols in the assembled model",
		}),
		modelExcluded: prom.NewGauge(prom.GaugeOpts{
			Namespace: "apidoc",
			Name:      "model_excluded_symbols",
			Help:      "Symbols pruned from the model by visibility filtering",
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
		pr.records, pr.diagnostics, pr.linkOutcomes, pr.modelSymbols, pr.modelExcluded,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddRecords(origin string, n int) {
	if p == nil {
		return
	}
	p.records.WithLabelValues(origin).Add(float64(n))
}

func (p *PrometheusRecorder) IncDiagnostic(kind string) {
	if p == nil {
		return
	}
	p.diagnostics.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncLinkOutcome(resolved bool) {
	if p == nil {
		return
	}
	outcome := "unresolved"
	if resolved {
		outcome = "resolved"
	}
	p.linkOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetModelSize(symbols, excluded int) {
	if p == nil {
		return
	}
	p.modelSymbols.Set(float64(symbols))
	p.modelExcluded.Set(float64(excluded))
}

// HTTPHandler serves the registry in Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
