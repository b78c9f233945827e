// Package ranker scores candidate documents with Okapi BM25.
package ranker

import (
	"math"
	"sort"

	"newsqa/internal/retrieval/index"
)

const (
	k1 = 1.5
	b  = 0.75
)

type ScoredDoc struct {
	DocPos int
	Score  float64
}

type RankParams struct {
	TotalDocs    int
	AvgDocLength float64
}

// Rank scores every document that contains at least one query term and
// returns them ordered by score descending, ties broken by corpus position
// ascending. terms keeps query order and multiplicity: a term that appears
// twice in the query contributes twice. limit <= 0 means no limit.
func Rank(
	terms []string,
	postingsPerTerm map[string]index.PostingList,
	params RankParams,
	docLength func(pos int) int,
	limit int,
) []ScoredDoc {
	scores := make(map[int]float64)
	for _, term := range terms {
		postings, ok := postingsPerTerm[term]
		if !ok {
			continue
		}
		idf := computeIDF(params.TotalDocs, len(postings))
		for _, posting := range postings {
			tfNorm := computeTFNorm(
				float64(posting.Frequency),
				float64(docLength(posting.DocPos)),
				params.AvgDocLength,
			)
			scores[posting.DocPos] += idf * tfNorm
		}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for pos, score := range scores {
		result = append(result, ScoredDoc{
			DocPos: pos,
			Score:  math.Round(score*10000) / 10000,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocPos < result[j].DocPos
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// computeIDF uses the non-negative variant: ln(1 + (N - df + 0.5)/(df + 0.5)).
func computeIDF(totalDocs int, docFreq int) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
