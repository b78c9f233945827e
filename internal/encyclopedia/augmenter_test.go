package encyclopedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"newsqa/pkg/metrics"
	"newsqa/pkg/resilience"
)

func newTestAugmenter(t *testing.T, srv *httptest.Server, cfg AugmenterConfig) (*Augmenter, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	client := NewClient(srv.URL, 5, srv.Client())
	return NewAugmenter(client, cfg, m), m
}

func augmentationFailures(m *metrics.Metrics) float64 {
	return testutil.ToFloat64(m.AugmentationFailuresTotal)
}

func breakerGauge(m *metrics.Metrics) float64 {
	return testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("encyclopedia"))
}

func TestLookupSuccess(t *testing.T) {
	wiki := &fakeWiki{
		searchHits: map[string][]string{"gaza conflict": {"Gaza war"}},
		pages: map[string]fakePage{
			"Gaza war": {
				extract: "The Gaza war is an armed conflict in the Gaza Strip.",
				fullURL: "https://en.wikipedia.org/wiki/Gaza_war",
			},
		},
	}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{Disambiguation: "first"})
	summary := aug.Lookup(context.Background(), "gaza conflict")
	require.NotNil(t, summary)
	require.Equal(t, "Gaza war", summary.Topic)
	require.Contains(t, summary.Extract, "armed conflict")
	require.Equal(t, float64(0), augmentationFailures(m))
}

func TestLookupNoMatch(t *testing.T) {
	wiki := &fakeWiki{searchHits: map[string][]string{}}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{})
	require.Nil(t, aug.Lookup(context.Background(), "qwzx"))
	require.Equal(t, float64(1), augmentationFailures(m))
	require.Equal(t, float64(resilience.StateClosed), breakerGauge(m),
		"absence is not a wiki failure")
}

func TestLookupResolvesDisambiguation(t *testing.T) {
	wiki := &fakeWiki{
		searchHits: map[string][]string{"mercury": {"Mercury"}},
		pages: map[string]fakePage{
			"Mercury": {
				extract:        "Mercury may refer to:",
				disambiguation: true,
				links:          []string{"Mercury (planet)"},
			},
			"Mercury (planet)": {
				extract: "Mercury is the smallest planet in the Solar System.",
				fullURL: "https://en.wikipedia.org/wiki/Mercury_(planet)",
			},
		},
	}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{Disambiguation: "first"})
	summary := aug.Lookup(context.Background(), "mercury")
	require.NotNil(t, summary)
	require.Equal(t, "Mercury (planet)", summary.Topic)
	require.Equal(t, float64(0), augmentationFailures(m))
}

func TestLookupDisambiguationSkip(t *testing.T) {
	wiki := &fakeWiki{
		searchHits: map[string][]string{"mercury": {"Mercury"}},
		pages: map[string]fakePage{
			"Mercury": {extract: "Mercury may refer to:", disambiguation: true},
		},
	}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{Disambiguation: "skip"})
	require.Nil(t, aug.Lookup(context.Background(), "mercury"))
	require.Equal(t, float64(1), augmentationFailures(m))
	require.Equal(t, int32(2), wiki.hits.Load(), "skip never asks for the options")
}

func TestLookupDisambiguationDeadEnd(t *testing.T) {
	// The first option is itself ambiguous; resolution stops after one hop.
	wiki := &fakeWiki{
		searchHits: map[string][]string{"mercury": {"Mercury"}},
		pages: map[string]fakePage{
			"Mercury": {
				extract:        "Mercury may refer to:",
				disambiguation: true,
				links:          []string{"Mercury (disambiguation)"},
			},
			"Mercury (disambiguation)": {
				extract:        "Mercury may also refer to:",
				disambiguation: true,
				links:          []string{"Mercury Records"},
			},
		},
	}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{Disambiguation: "first"})
	require.Nil(t, aug.Lookup(context.Background(), "mercury"))
	require.Equal(t, float64(1), augmentationFailures(m))
	require.Equal(t, float64(resilience.StateClosed), breakerGauge(m))
}

func TestLookupServerFailure(t *testing.T) {
	wiki := &fakeWiki{status: http.StatusBadGateway}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{FailureThreshold: 5})
	require.Nil(t, aug.Lookup(context.Background(), "anything"))
	require.Equal(t, float64(1), augmentationFailures(m))
}

func TestLookupBreakerOpens(t *testing.T) {
	wiki := &fakeWiki{status: http.StatusBadGateway}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{FailureThreshold: 2})
	for i := 0; i < 3; i++ {
		require.Nil(t, aug.Lookup(context.Background(), "anything"))
	}
	require.Equal(t, int32(2), wiki.hits.Load(), "open circuit stops hitting the wiki")
	require.Equal(t, float64(3), augmentationFailures(m))
	require.Equal(t, float64(resilience.StateOpen), breakerGauge(m))
}

func TestLookupEmptyQuery(t *testing.T) {
	wiki := &fakeWiki{}
	srv := wiki.server(t)
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{})
	require.Nil(t, aug.Lookup(context.Background(), ""))
	require.Nil(t, aug.Lookup(context.Background(), "   "))
	require.Equal(t, int32(0), wiki.hits.Load())
	require.Equal(t, float64(0), augmentationFailures(m))
}

func TestLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	aug, m := newTestAugmenter(t, srv, AugmenterConfig{Timeout: 20 * time.Millisecond})
	start := time.Now()
	require.Nil(t, aug.Lookup(context.Background(), "anything"))
	require.Less(t, time.Since(start), time.Second, "lookup honors its deadline")
	require.Equal(t, float64(1), augmentationFailures(m))
}
