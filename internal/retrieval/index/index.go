// Package index holds the in-memory inverted index over the corpus. The
// index is built once at startup and read-only afterwards, so lookups need
// no locking.
package index

import (
	"newsqa/internal/retrieval/tokenizer"
)

// Posting records one document's frequency for a term. DocPos is the
// document's corpus position.
type Posting struct {
	DocPos    int
	Frequency int
}

// PostingList is ordered by DocPos ascending.
type PostingList []Posting

// Index maps terms to postings and tracks the document-length statistics
// BM25 needs.
type Index struct {
	postings   map[string]PostingList
	docLengths []int
	totalTerms int
}

// Build tokenizes every document and constructs the inverted index.
// Documents are indexed in slice order, so each PostingList comes out
// sorted by DocPos.
func Build(docs []string, tok *tokenizer.Tokenizer) *Index {
	idx := &Index{
		postings:   make(map[string]PostingList),
		docLengths: make([]int, len(docs)),
	}
	for pos, doc := range docs {
		terms := tok.Tokenize(doc)
		idx.docLengths[pos] = len(terms)
		idx.totalTerms += len(terms)

		freqs := make(map[string]int, len(terms))
		for _, term := range terms {
			freqs[term]++
		}
		for term, freq := range freqs {
			idx.postings[term] = append(idx.postings[term], Posting{
				DocPos:    pos,
				Frequency: freq,
			})
		}
	}
	return idx
}

// Postings returns the posting list for term, or nil when no document
// contains it.
func (idx *Index) Postings(term string) PostingList {
	return idx.postings[term]
}

func (idx *Index) DocLength(pos int) int {
	if pos < 0 || pos >= len(idx.docLengths) {
		return 0
	}
	return idx.docLengths[pos]
}

func (idx *Index) DocCount() int {
	return len(idx.docLengths)
}

func (idx *Index) TermCount() int {
	return len(idx.postings)
}

func (idx *Index) AvgDocLength() float64 {
	if len(idx.docLengths) == 0 {
		return 0
	}
	return float64(idx.totalTerms) / float64(len(idx.docLengths))
}
