package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"newsqa/internal/encyclopedia"
	"newsqa/internal/qa"
)

func TestComposeFullBlock(t *testing.T) {
	answers := []qa.Answer{
		{Text: "strikes on Al-Shifa Hospital", Confidence: 0.87, ArticleID: "article-1", ArticleTitle: "Gaza fighting escalates"},
		{Text: "a ground offensive", Confidence: 0.41, ArticleID: "article-4", ArticleTitle: "Northern front update"},
	}
	background := &encyclopedia.Summary{
		Topic:   "Al-Shifa Hospital",
		Extract: "Al-Shifa Hospital was the largest medical complex in Gaza City.",
		URL:     "https://en.wikipedia.org/wiki/Al-Shifa_Hospital",
	}

	out := Compose("What happened at Al-Shifa Hospital?", answers, background)

	require.Contains(t, out, "Question: What happened at Al-Shifa Hospital?\n")
	require.Contains(t, out, "Answers from news coverage:")
	require.Contains(t, out, "1. strikes on Al-Shifa Hospital (confidence 0.87, source: Gaza fighting escalates)")
	require.Contains(t, out, "2. a ground offensive (confidence 0.41, source: Northern front update)")
	require.Contains(t, out, "Background from the encyclopedia (Al-Shifa Hospital):")
	require.Contains(t, out, "largest medical complex")
	require.Contains(t, out, "Source: https://en.wikipedia.org/wiki/Al-Shifa_Hospital")
	require.Less(t, strings.Index(out, "1. strikes"), strings.Index(out, "2. a ground"),
		"answers keep their best-first order")
}

func TestComposeOmitsMissingBackground(t *testing.T) {
	answers := []qa.Answer{{Text: "a ceasefire proposal", Confidence: 0.6, ArticleID: "article-2"}}

	out := Compose("any ceasefire news?", answers, nil)

	require.Contains(t, out, "1. a ceasefire proposal")
	require.NotContains(t, out, "Background")
	require.NotContains(t, out, "encyclopedia", "no placeholder for a failed lookup")
}

func TestComposeBackgroundOnly(t *testing.T) {
	background := &encyclopedia.Summary{Topic: "Gaza Strip", Extract: "The Gaza Strip is a polity on the eastern coast of the Mediterranean Sea."}

	out := Compose("where is gaza?", nil, background)

	require.NotContains(t, out, "Answers from news coverage")
	require.Contains(t, out, "Background from the encyclopedia (Gaza Strip):")
	require.NotContains(t, out, "Source:", "no URL line when the summary has none")
}

func TestComposeNothingFound(t *testing.T) {
	out := Compose("???", nil, nil)

	require.NotEmpty(t, out)
	require.Contains(t, out, "Question: ???")
	require.Contains(t, out, "No information found")
}

func TestComposeSourceFallsBackToID(t *testing.T) {
	answers := []qa.Answer{{Text: "shelling", Confidence: 0.3, ArticleID: "article-9"}}

	out := Compose("what happened?", answers, nil)

	require.Contains(t, out, "source: article-9")
}
