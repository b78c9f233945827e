// Package metrics defines the Prometheus metric collectors for the QA
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	QueriesTotal              *prometheus.CounterVec
	RetrievalLatency          prometheus.Histogram
	RetrievalResultsCount     prometheus.Histogram
	AnswersExtractedTotal     prometheus.Counter
	ModelFailuresTotal        prometheus.Counter
	AugmentationFailuresTotal prometheus.Counter
	OutputWritesTotal         *prometheus.CounterVec
	CorpusArticles            prometheus.Gauge
	CircuitBreakerState       *prometheus.GaugeVec
}

// New creates all pipeline collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsqa_queries_total",
				Help: "Total queries processed by outcome (ok, failed, zero_result).",
			},
			[]string{"status"},
		),
		RetrievalLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "newsqa_retrieval_latency_seconds",
				Help:    "Article retrieval latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		RetrievalResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "newsqa_retrieval_results_count",
				Help:    "Number of articles returned per query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		AnswersExtractedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "newsqa_answers_extracted_total",
				Help: "Total answer spans extracted from articles.",
			},
		),
		ModelFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "newsqa_model_failures_total",
				Help: "Total per-article model inference failures (article skipped).",
			},
		),
		AugmentationFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "newsqa_augmentation_failures_total",
				Help: "Total encyclopedia lookups that produced no summary.",
			},
		),
		OutputWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsqa_output_writes_total",
				Help: "Top-article file writes by status.",
			},
			[]string{"status"},
		),
		CorpusArticles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "newsqa_corpus_articles",
				Help: "Articles in the loaded corpus after relevance filtering.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "newsqa_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.RetrievalLatency,
		m.RetrievalResultsCount,
		m.AnswersExtractedTotal,
		m.ModelFailuresTotal,
		m.AugmentationFailuresTotal,
		m.OutputWritesTotal,
		m.CorpusArticles,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
