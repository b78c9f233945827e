package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsqa/internal/corpus"
	"newsqa/internal/encyclopedia"
	"newsqa/internal/qa"
	"newsqa/internal/retrieval"
	"newsqa/internal/session"
	"newsqa/pkg/config"
	apperrors "newsqa/pkg/errors"
	"newsqa/pkg/health"
	"newsqa/pkg/logger"
	"newsqa/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/newsqa.yaml", "path to config file (empty loads defaults plus NEWSQA_* overrides)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(apperrors.ExitInvalidConfig)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting newsqa",
		"corpus", cfg.Corpus.Path,
		"top_k", cfg.Retrieval.TopK,
		"model_provider", cfg.Model.Provider,
	)

	c, err := corpus.Load(cfg.Corpus.Path, corpus.FilterConfig{
		Keywords:     cfg.Corpus.Keywords,
		MinBodyChars: cfg.Corpus.MinBodyChars,
	})
	if err != nil {
		slog.Error("corpus load failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	m.CorpusArticles.Set(float64(c.Len()))

	retriever := retrieval.New(c, retrieval.Config{Stopwords: cfg.Retrieval.Stopwords})

	model, err := buildModel(cfg.Model)
	if err != nil {
		slog.Error("model setup failed", "error", err)
		os.Exit(apperrors.ExitInvalidConfig)
	}
	extractor := qa.NewExtractor(model, qa.ExtractorConfig{
		MaxContextWords: cfg.Model.MaxContextWords,
		Preamble:        cfg.Model.Preamble,
		Timeout:         cfg.Model.Timeout.Std(),
		MaxAttempts:     cfg.Model.MaxAttempts,
	}, m)

	wiki := encyclopedia.NewClient(cfg.Encyclopedia.BaseURL, cfg.Encyclopedia.MaxSentences, nil)
	augmenter := encyclopedia.NewAugmenter(wiki, encyclopedia.AugmenterConfig{
		Disambiguation:   cfg.Encyclopedia.Disambiguation,
		Timeout:          cfg.Encyclopedia.Timeout.Std(),
		FailureThreshold: cfg.Encyclopedia.FailureThreshold,
	}, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	if cfg.Model.Endpoint != "" {
		checker.Register("qa_model", health.Endpoint(cfg.Model.Endpoint, nil))
	}
	checker.Register("encyclopedia", health.Endpoint(cfg.Encyclopedia.BaseURL+"/w/api.php", nil))
	probeCtx, cancelProbe := context.WithTimeout(ctx, 5*time.Second)
	checker.Log(checker.Run(probeCtx))
	cancelProbe()

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, checker.Handler())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	sess := session.New(session.Options{
		Retriever:  retriever,
		Answerer:   extractor,
		Augmenter:  augmenter,
		Sink:       session.NewSink(cfg.Session.OutputPath),
		Metrics:    m,
		TopK:       cfg.Retrieval.TopK,
		Prompt:     cfg.Session.Prompt,
		Transcript: cfg.Session.Transcript,
	})

	if err := sess.Run(ctx); err != nil {
		slog.Error("session error", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
	slog.Info("newsqa stopped")
}

// buildModel picks the answer-extraction backend. The API key comes from the
// environment so it never lands in a config file.
func buildModel(cfg config.ModelConfig) (qa.Model, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	switch cfg.Provider {
	case "huggingface":
		return qa.NewHFModel(cfg.Endpoint, cfg.Model, apiKey, nil), nil
	case "openai":
		return qa.NewOpenAIModel(cfg.Model, apiKey, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
