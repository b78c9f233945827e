// Package retrieval ties the tokenizer, inverted index, and BM25 ranker into
// the query-time retriever.
package retrieval

import (
	"context"

	"newsqa/internal/corpus"
	"newsqa/internal/retrieval/index"
	"newsqa/internal/retrieval/ranker"
	"newsqa/internal/retrieval/tokenizer"
	"newsqa/pkg/logger"
)

// Config controls retrieval behavior.
type Config struct {
	// Stopwords removes common English words from documents and queries.
	Stopwords bool
}

// RankedResult is one retrieved article with its BM25 score and 1-based rank.
type RankedResult struct {
	Article corpus.Article
	Score   float64
	Rank    int
}

// Retriever answers top-k queries against an immutable corpus.
type Retriever struct {
	corpus *corpus.Corpus
	tok    *tokenizer.Tokenizer
	idx    *index.Index
}

// New builds the inverted index over the corpus bodies. Building is the
// only write; the retriever is safe for concurrent queries afterwards.
func New(c *corpus.Corpus, cfg Config) *Retriever {
	tok := tokenizer.New(cfg.Stopwords)
	bodies := make([]string, c.Len())
	for i, article := range c.Articles {
		bodies[i] = article.Body
	}
	idx := index.Build(bodies, tok)
	logger.WithComponent("retrieval").Info("index built",
		"documents", idx.DocCount(),
		"terms", idx.TermCount(),
		"avg_doc_length", idx.AvgDocLength(),
	)
	return &Retriever{
		corpus: c,
		tok:    tok,
		idx:    idx,
	}
}

// Retrieve returns up to k articles ranked by BM25 score descending, ties
// broken by corpus position. Only articles containing at least one query
// term are candidates; a query that tokenizes to nothing returns an empty
// slice. k <= 0 means no limit.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []RankedResult {
	log := logger.FromContext(ctx).With("component", "retrieval")

	terms := r.tok.Tokenize(query)
	if len(terms) == 0 {
		log.Debug("query tokenized to nothing", "query", query)
		return []RankedResult{}
	}

	postingsPerTerm := make(map[string]index.PostingList, len(terms))
	for _, term := range terms {
		if _, seen := postingsPerTerm[term]; seen {
			continue
		}
		if postings := r.idx.Postings(term); len(postings) > 0 {
			postingsPerTerm[term] = postings
		}
	}

	params := ranker.RankParams{
		TotalDocs:    r.idx.DocCount(),
		AvgDocLength: r.idx.AvgDocLength(),
	}
	ranked := ranker.Rank(terms, postingsPerTerm, params, r.idx.DocLength, k)

	results := make([]RankedResult, len(ranked))
	for i, scored := range ranked {
		results[i] = RankedResult{
			Article: r.corpus.Articles[scored.DocPos],
			Score:   scored.Score,
			Rank:    i + 1,
		}
	}
	log.Info("query executed", "query", query, "terms", len(terms), "results", len(results))
	return results
}
