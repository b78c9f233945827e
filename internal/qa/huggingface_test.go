package qa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"newsqa/pkg/resilience"
)

func TestHFModelExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/models/test-model", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "where did strikes hit?", req.Inputs.Question)
		require.Equal(t, "strikes hit northern gaza overnight", req.Inputs.Context)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score": 0.91, "start": 12, "end": 25, "answer": "northern gaza"}`))
	}))
	defer srv.Close()

	model := NewHFModel(srv.URL, "test-model", "secret", srv.Client())
	span, err := model.Extract(context.Background(), "where did strikes hit?", "strikes hit northern gaza overnight")
	require.NoError(t, err)
	require.Equal(t, Span{Text: "northern gaza", Confidence: 0.91}, span)
}

func TestHFModelNoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"answer": "x", "score": 0.5}`))
	}))
	defer srv.Close()

	model := NewHFModel(srv.URL, "test-model", "", srv.Client())
	_, err := model.Extract(context.Background(), "q", "c")
	require.NoError(t, err)
}

func TestHFModelListResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"answer": "best", "score": 0.8}, {"answer": "second", "score": 0.1}]`))
	}))
	defer srv.Close()

	model := NewHFModel(srv.URL, "test-model", "", srv.Client())
	span, err := model.Extract(context.Background(), "q", "c")
	require.NoError(t, err)
	require.Equal(t, "best", span.Text)
	require.InDelta(t, 0.8, span.Confidence, 1e-9)
}

func TestHFModelClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "malformed inputs"}`))
	}))
	defer srv.Close()

	model := NewHFModel(srv.URL, "test-model", "", srv.Client())
	retryCfg := resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}
	err := resilience.Retry(context.Background(), "inference", retryCfg, func(ctx context.Context) error {
		_, err := model.Extract(ctx, "q", "c")
		return err
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed inputs")
	require.Equal(t, int32(1), hits.Load(), "4xx must not be retried")
}

func TestHFModelWarmupIsRetryable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": "Model test-model is currently loading", "estimated_time": 20.0}`))
			return
		}
		w.Write([]byte(`{"answer": "ready now", "score": 0.7}`))
	}))
	defer srv.Close()

	model := NewHFModel(srv.URL, "test-model", "", srv.Client())
	var span Span
	retryCfg := resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}
	err := resilience.Retry(context.Background(), "inference", retryCfg, func(ctx context.Context) error {
		result, err := model.Extract(ctx, "q", "c")
		if err != nil {
			return err
		}
		span = result
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "ready now", span.Text)
	require.Equal(t, int32(2), hits.Load())
}

func TestDecodeSpanMalformed(t *testing.T) {
	_, err := decodeSpan([]byte(`not json`))
	require.Error(t, err)

	_, err = decodeSpan([]byte(`[]`))
	require.Error(t, err)
}
