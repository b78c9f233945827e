package qa

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newsqa/internal/corpus"
	apperrors "newsqa/pkg/errors"
	"newsqa/pkg/logger"
	"newsqa/pkg/metrics"
	"newsqa/pkg/resilience"
)

// maxParallelInference bounds the per-article model fan-out so a large top-K
// does not stampede the inference endpoint.
const maxParallelInference = 4

// ExtractorConfig tunes how questions and article bodies reach the model.
type ExtractorConfig struct {
	// MaxContextWords truncates each article body to its first N words
	// before inference. The bound is model-imposed, not tunable ranking.
	MaxContextWords int
	// Preamble is prefixed to every question sent to the model.
	Preamble string
	// Timeout applies to each individual inference call.
	Timeout time.Duration
	// MaxAttempts caps model-call attempts per article.
	MaxAttempts int
}

// Extractor runs the QA model over every retrieved article and collects the
// answers, best first.
type Extractor struct {
	model   Model
	cfg     ExtractorConfig
	metrics *metrics.Metrics
}

// NewExtractor wires a model to the fan-out. metrics must be non-nil.
func NewExtractor(model Model, cfg ExtractorConfig, m *metrics.Metrics) *Extractor {
	return &Extractor{model: model, cfg: cfg, metrics: m}
}

// ExtractAll asks the model about every article and returns one answer per
// article that produced a non-empty span, ordered by confidence descending.
// Articles must arrive in retrieval-rank order; equal confidences keep that
// order. An article whose inference fails is logged and skipped. When every
// article fails the result is empty and the caller falls back to the
// encyclopedia summary alone.
func (e *Extractor) ExtractAll(ctx context.Context, question string, articles []corpus.Article) []Answer {
	log := logger.FromContext(ctx).With("component", "qa")
	if len(articles) == 0 {
		return []Answer{}
	}

	fullQuestion := question
	if e.cfg.Preamble != "" {
		fullQuestion = e.cfg.Preamble + " " + question
	}

	found := make([]*Answer, len(articles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelInference)
	for i, article := range articles {
		i, article := i, article // per-iteration copies; this module builds with go < 1.22
		g.Go(func() error {
			passage := truncateWords(article.Body, e.cfg.MaxContextWords)
			span, err := e.extractOne(gctx, fullQuestion, passage)
			if err != nil {
				e.metrics.ModelFailuresTotal.Inc()
				log.Warn("model inference failed, skipping article", "article_id", article.ID, "error", err)
				return nil
			}
			if span.Text == "" {
				log.Debug("model found no answer span", "article_id", article.ID)
				return nil
			}
			found[i] = &Answer{
				Text:         span.Text,
				Confidence:   span.Confidence,
				ArticleID:    article.ID,
				ArticleTitle: article.Title,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("extraction group error", "error", err)
	}

	answers := make([]Answer, 0, len(articles))
	for _, answer := range found {
		if answer != nil {
			answers = append(answers, *answer)
		}
	}
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Confidence > answers[j].Confidence
	})

	e.metrics.AnswersExtractedTotal.Add(float64(len(answers)))
	log.Info("extraction finished", "articles", len(articles), "answers", len(answers))
	return answers
}

// extractOne wraps a single model call in the per-call timeout and
// retry policy.
func (e *Extractor) extractOne(ctx context.Context, question, passage string) (Span, error) {
	var span Span
	retryCfg := resilience.RetryConfig{MaxAttempts: e.cfg.MaxAttempts}
	err := resilience.Retry(ctx, "model inference", retryCfg, func(ctx context.Context) error {
		return resilience.WithTimeout(ctx, e.cfg.Timeout, "model inference", func(ctx context.Context) error {
			result, err := e.model.Extract(ctx, question, passage)
			if err != nil {
				return err
			}
			span = result
			return nil
		})
	})
	if err != nil {
		return Span{}, fmt.Errorf("%w: %w", apperrors.ErrModelInference, err)
	}
	return span, nil
}

// truncateWords keeps the first max whitespace-separated words of text.
// max <= 0 disables truncation.
func truncateWords(text string, max int) string {
	if max <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}
