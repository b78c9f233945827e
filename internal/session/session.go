// Package session drives the interactive query loop: read a question,
// retrieve and persist the top articles, extract answers and fetch
// background concurrently, compose a reply, repeat until the exit sentinel.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"newsqa/internal/compose"
	"newsqa/internal/corpus"
	"newsqa/internal/encyclopedia"
	"newsqa/internal/qa"
	"newsqa/internal/retrieval"
	apperrors "newsqa/pkg/errors"
	"newsqa/pkg/logger"
	"newsqa/pkg/metrics"
	"newsqa/pkg/tracing"
)

// exitSentinel ends the session, matched case-insensitively. A blank line is
// an ordinary query, not an exit.
const exitSentinel = "exit"

// failedQueryMessage is printed when a turn fails; the loop continues.
const failedQueryMessage = "Could not process that question due to an internal error; it has been logged. Please try another."

// State is the driver's lifecycle phase.
type State int

const (
	StateRunning State = iota
	StateTerminated
)

// Retriever returns the top-k ranked articles for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []retrieval.RankedResult
}

// Answerer extracts answer spans from the given articles, best first.
type Answerer interface {
	ExtractAll(ctx context.Context, question string, articles []corpus.Article) []qa.Answer
}

// Augmenter fetches optional background for a query; nil means none found.
type Augmenter interface {
	Lookup(ctx context.Context, query string) *encyclopedia.Summary
}

// Options wires the pipeline stages into a Session. Retriever, Answerer,
// Augmenter, Sink, and Metrics are required; the rest default sensibly.
type Options struct {
	Retriever  Retriever
	Answerer   Answerer
	Augmenter  Augmenter
	Sink       *Sink
	Metrics    *metrics.Metrics
	TopK       int
	Prompt     string
	Transcript bool
	Input      io.Reader // defaults to os.Stdin
	Output     io.Writer // defaults to os.Stdout
}

// Session owns the query loop for one interactive run. It is not safe for
// concurrent use; one session drives one terminal.
type Session struct {
	retriever  Retriever
	answerer   Answerer
	augmenter  Augmenter
	sink       *Sink
	metrics    *metrics.Metrics
	topK       int
	prompt     string
	transcript bool
	in         io.Reader
	out        io.Writer

	state    State
	seq      int
	stats    Stats
	answered []string
	log      *slog.Logger
}

// New creates a Session in the Running state.
func New(opts Options) *Session {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompt == "" {
		opts.Prompt = "Enter your question (or type 'exit' to quit): "
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	return &Session{
		retriever:  opts.Retriever,
		answerer:   opts.Answerer,
		augmenter:  opts.Augmenter,
		sink:       opts.Sink,
		metrics:    opts.Metrics,
		topK:       opts.TopK,
		prompt:     opts.Prompt,
		transcript: opts.Transcript,
		in:         opts.Input,
		out:        opts.Output,
		state:      StateRunning,
		log:        logger.WithComponent("session"),
	}
}

// State reports the driver's current lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Run drives the loop until the exit sentinel, end of input, or context
// cancellation. Per-query failures are logged and reported inline; they
// never end the session, so a clean run always returns nil.
func (s *Session) Run(ctx context.Context) error {
	lines := make(chan string)
	go s.readLines(ctx, lines)

	for {
		fmt.Fprint(s.out, s.prompt)
		select {
		case <-ctx.Done():
			s.log.Info("session interrupted")
			s.state = StateTerminated
			s.finish(true)
			return nil
		case line, ok := <-lines:
			if !ok {
				s.log.Info("input closed, ending session")
				s.state = StateTerminated
				s.finish(false)
				return nil
			}
			query := strings.TrimSpace(line)
			if strings.EqualFold(query, exitSentinel) {
				s.log.Info("exit requested")
				s.state = StateTerminated
				s.finish(false)
				return nil
			}
			s.handleQuery(ctx, query)
		}
	}
}

// readLines feeds input lines to the loop. It owns the channel and closes it
// on end of input; a cancelled context just abandons the pending line.
func (s *Session) readLines(ctx context.Context, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("reading input", "error", err)
	}
}

func (s *Session) handleQuery(ctx context.Context, query string) {
	s.seq++
	ctx = logger.WithQuerySeq(ctx, s.seq)
	log := logger.FromContext(ctx).With("component", "session")

	start := time.Now()
	reply, retrieved, err := s.processQuery(ctx, query)
	elapsed := time.Since(start)

	if err != nil {
		s.stats.Record(elapsed, 0, true)
		s.metrics.QueriesTotal.WithLabelValues("failed").Inc()
		log.Error("query failed", "query", query, "error", err)
		fmt.Fprintln(s.out, failedQueryMessage)
		return
	}

	s.stats.Record(elapsed, retrieved, false)
	status := "ok"
	if retrieved == 0 {
		status = "zero_result"
	}
	s.metrics.QueriesTotal.WithLabelValues(status).Inc()
	log.Info("query answered", "retrieved", retrieved, "latency_ms", elapsed.Milliseconds())

	fmt.Fprintln(s.out, reply)
	if s.transcript {
		s.answered = append(s.answered, reply)
	}
}

// processQuery runs one full pipeline turn. Extraction and augmentation
// overlap; both degrade internally instead of failing, so the only error
// path left is persisting the top articles.
func (s *Session) processQuery(ctx context.Context, query string) (string, int, error) {
	ctx, span := tracing.StartSpan(ctx, "query", uuid.NewString())
	defer func() {
		span.End()
		span.Log()
	}()
	span.SetAttr("query_seq", s.seq)

	retrieveCtx, retrieveSpan := tracing.StartChildSpan(ctx, "retrieve")
	results := s.retriever.Retrieve(retrieveCtx, query, s.topK)
	s.metrics.RetrievalLatency.Observe(retrieveSpan.End().Seconds())
	s.metrics.RetrievalResultsCount.Observe(float64(len(results)))
	span.SetAttr("retrieved", len(results))

	_, persistSpan := tracing.StartChildSpan(ctx, "persist")
	err := s.sink.Write(results)
	persistSpan.End()
	if err != nil {
		s.metrics.OutputWritesTotal.WithLabelValues("error").Inc()
		return "", 0, fmt.Errorf("%w: persisting top articles: %w", apperrors.ErrQueryProcessing, err)
	}
	s.metrics.OutputWritesTotal.WithLabelValues("ok").Inc()

	articles := make([]corpus.Article, len(results))
	for i, res := range results {
		articles[i] = res.Article
	}

	var (
		answers    []qa.Answer
		background *encyclopedia.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		extractCtx, extractSpan := tracing.StartChildSpan(gctx, "extract")
		defer extractSpan.End()
		answers = s.answerer.ExtractAll(extractCtx, query, articles)
		return nil
	})
	g.Go(func() error {
		augmentCtx, augmentSpan := tracing.StartChildSpan(gctx, "augment")
		defer augmentSpan.End()
		background = s.augmenter.Lookup(augmentCtx, query)
		return nil
	})
	_ = g.Wait()

	_, composeSpan := tracing.StartChildSpan(ctx, "compose")
	reply := compose.Compose(query, answers, background)
	composeSpan.End()

	return reply, len(results), nil
}

// finish replays the transcript on a clean exit and logs session totals. An
// interrupted session skips the replay; the terminal is likely gone.
func (s *Session) finish(interrupted bool) {
	if s.transcript && !interrupted && len(s.answered) > 0 {
		fmt.Fprintln(s.out, "\nAccumulated answers from this session:")
		for _, reply := range s.answered {
			fmt.Fprintln(s.out, reply)
		}
	}
	s.stats.LogSummary(s.log)
}
