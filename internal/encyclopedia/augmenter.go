package encyclopedia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "newsqa/pkg/errors"
	"newsqa/pkg/logger"
	"newsqa/pkg/metrics"
	"newsqa/pkg/resilience"
)

// AugmenterConfig controls failure handling around the wiki client.
type AugmenterConfig struct {
	// Disambiguation picks the behavior for ambiguous topics: "first"
	// resolves to the page's first listed option, "skip" gives up.
	Disambiguation string
	// Timeout bounds one whole lookup, including disambiguation hops.
	Timeout time.Duration
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit breaker.
	FailureThreshold int
}

// Augmenter wraps the Client with the never-fail lookup the session needs.
// Whatever goes wrong — missing page, ambiguous topic, network failure,
// open circuit — the pipeline continues without a summary.
type Augmenter struct {
	client       *Client
	breaker      *resilience.CircuitBreaker
	resolveFirst bool
	timeout      time.Duration
	metrics      *metrics.Metrics
}

// NewAugmenter wires the client to a circuit breaker so a dead wiki stops
// being hammered mid-session. metrics must be non-nil.
func NewAugmenter(client *Client, cfg AugmenterConfig, m *metrics.Metrics) *Augmenter {
	return &Augmenter{
		client: client,
		breaker: resilience.NewCircuitBreaker("encyclopedia", resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
		}),
		resolveFirst: cfg.Disambiguation == "first",
		timeout:      cfg.Timeout,
		metrics:      m,
	}
}

// Lookup fetches a background summary for the query. It never returns an
// error; absence is the degraded mode. Benign absences (no matching page,
// unresolved disambiguation) do not count against the circuit breaker, only
// transport and API failures do.
func (a *Augmenter) Lookup(ctx context.Context, query string) *Summary {
	log := logger.FromContext(ctx).With("component", "encyclopedia")
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var summary *Summary
	err := a.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, a.timeout, "encyclopedia lookup", func(ctx context.Context) error {
			found, err := a.lookup(ctx, query)
			if err != nil {
				return fmt.Errorf("%w: %w", apperrors.ErrAugmentation, err)
			}
			summary = found
			return nil
		})
	})
	a.metrics.CircuitBreakerState.WithLabelValues("encyclopedia").Set(float64(a.breaker.GetState()))

	switch {
	case err == nil && summary != nil:
		return summary
	case err == nil:
		// Benign absence, already logged with its reason.
	case errors.Is(err, resilience.ErrCircuitOpen):
		log.Warn("encyclopedia lookups suspended", "error", err)
	default:
		log.Warn("encyclopedia lookup failed", "query", query, "error", err)
	}
	a.metrics.AugmentationFailuresTotal.Inc()
	return nil
}

// lookup runs search, fetch, and optional first-option resolution. Benign
// "the wiki has nothing for this" outcomes return (nil, nil); transport and
// API errors propagate to the breaker.
func (a *Augmenter) lookup(ctx context.Context, query string) (*Summary, error) {
	log := logger.FromContext(ctx).With("component", "encyclopedia")

	title, err := a.client.SearchTitle(ctx, query)
	if errors.Is(err, ErrPageMissing) {
		log.Info("no encyclopedia entry", "query", query)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summary, err := a.client.Fetch(ctx, title)
	switch {
	case err == nil:
		return summary, nil
	case errors.Is(err, ErrAmbiguous):
		if !a.resolveFirst {
			log.Info("ambiguous encyclopedia topic skipped", "title", title)
			return nil, nil
		}
		return a.resolveDisambiguation(ctx, title)
	case errors.Is(err, ErrPageMissing):
		log.Info("encyclopedia page missing", "title", title)
		return nil, nil
	default:
		return nil, err
	}
}

// resolveDisambiguation retries the fetch with the disambiguation page's
// first option. One hop only; a chain of disambiguation pages gives up.
func (a *Augmenter) resolveDisambiguation(ctx context.Context, title string) (*Summary, error) {
	log := logger.FromContext(ctx).With("component", "encyclopedia")

	option, err := a.client.FirstLink(ctx, title)
	if errors.Is(err, ErrPageMissing) {
		log.Info("disambiguation page lists no options", "title", title)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summary, err := a.client.Fetch(ctx, option)
	if errors.Is(err, ErrAmbiguous) || errors.Is(err, ErrPageMissing) {
		log.Info("first disambiguation option unusable", "title", title, "option", option)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("disambiguation resolved", "from", title, "to", option)
	return summary, nil
}
