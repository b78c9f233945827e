package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"newsqa/internal/retrieval/index"
)

func constLength(n int) func(int) int {
	return func(int) int { return n }
}

func TestComputeIDF(t *testing.T) {
	// ln(1 + (10 - 2 + 0.5)/(2 + 0.5)) = ln(4.4)
	require.InDelta(t, math.Log(4.4), computeIDF(10, 2), 1e-9)
}

func TestComputeIDFStaysPositive(t *testing.T) {
	// A term in every document still scores above zero.
	require.Greater(t, computeIDF(2, 2), 0.0)
}

func TestRankHigherFrequencyWins(t *testing.T) {
	postings := map[string]index.PostingList{
		"gaza": {{DocPos: 0, Frequency: 1}, {DocPos: 1, Frequency: 3}},
	}
	params := RankParams{TotalDocs: 2, AvgDocLength: 10}

	ranked := Rank([]string{"gaza"}, postings, params, constLength(10), 0)
	require.Len(t, ranked, 2)
	require.Equal(t, 1, ranked[0].DocPos)
	require.Equal(t, 0, ranked[1].DocPos)
	require.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankTiesBreakByPosition(t *testing.T) {
	postings := map[string]index.PostingList{
		"war": {{DocPos: 0, Frequency: 1}, {DocPos: 2, Frequency: 1}},
	}
	params := RankParams{TotalDocs: 3, AvgDocLength: 5}

	ranked := Rank([]string{"war"}, postings, params, constLength(5), 0)
	require.Len(t, ranked, 2)
	require.Equal(t, ranked[0].Score, ranked[1].Score)
	require.Equal(t, 0, ranked[0].DocPos)
	require.Equal(t, 2, ranked[1].DocPos)
}

func TestRankLimit(t *testing.T) {
	postings := map[string]index.PostingList{
		"war": {{DocPos: 0, Frequency: 1}, {DocPos: 1, Frequency: 2}, {DocPos: 2, Frequency: 3}},
	}
	params := RankParams{TotalDocs: 3, AvgDocLength: 5}

	ranked := Rank([]string{"war"}, postings, params, constLength(5), 2)
	require.Len(t, ranked, 2)
	require.Equal(t, 2, ranked[0].DocPos)
	require.Equal(t, 1, ranked[1].DocPos)
}

func TestRankRepeatedQueryTermCountsTwice(t *testing.T) {
	postings := map[string]index.PostingList{
		"gaza": {{DocPos: 0, Frequency: 2}},
	}
	params := RankParams{TotalDocs: 4, AvgDocLength: 8}

	once := Rank([]string{"gaza"}, postings, params, constLength(8), 0)
	twice := Rank([]string{"gaza", "gaza"}, postings, params, constLength(8), 0)
	require.InDelta(t, 2*once[0].Score, twice[0].Score, 1e-3)
}

func TestRankUnknownTermsContributeNothing(t *testing.T) {
	postings := map[string]index.PostingList{
		"gaza": {{DocPos: 0, Frequency: 1}},
	}
	params := RankParams{TotalDocs: 1, AvgDocLength: 4}

	with := Rank([]string{"gaza", "zebra"}, postings, params, constLength(4), 0)
	without := Rank([]string{"gaza"}, postings, params, constLength(4), 0)
	require.Equal(t, without, with)
}

func TestRankEmpty(t *testing.T) {
	ranked := Rank(nil, map[string]index.PostingList{}, RankParams{TotalDocs: 5, AvgDocLength: 3}, constLength(3), 10)
	require.Empty(t, ranked)
}
