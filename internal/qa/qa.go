// Package qa extracts answer spans from retrieved articles with a
// pre-trained extractive question-answering model. The model is an external
// service hidden behind the Model interface; a failure on one article skips
// that article and never sinks the whole question.
package qa

import "context"

// Span is the raw model output for one passage: a text span copied from the
// passage and the model's confidence in it.
type Span struct {
	Text       string
	Confidence float64
}

// Answer ties a span back to the article it was extracted from.
type Answer struct {
	Text         string
	Confidence   float64
	ArticleID    string
	ArticleTitle string
}

// Model is the adapter boundary around the external QA model. Extract
// returns the span within passage that answers question. Implementations
// must honor ctx cancellation and may be called concurrently.
type Model interface {
	Extract(ctx context.Context, question, passage string) (Span, error)
}
