// Package compose renders the final text block shown for each query.
package compose

import (
	"fmt"
	"strings"

	"newsqa/internal/encyclopedia"
	"newsqa/internal/qa"
)

// noInformation is the block body when neither the articles nor the
// encyclopedia produced anything for a query.
const noInformation = "No information found: nothing relevant in the loaded articles and no encyclopedia entry matched."

// Compose merges the article-derived answers and the optional encyclopedia
// summary into one labeled block. Answers arrive best-first and keep that
// order. Compose is pure and never returns an empty string; when both inputs
// are empty the block says so. A failed encyclopedia lookup omits the
// background section entirely rather than printing a placeholder.
func Compose(query string, answers []qa.Answer, background *encyclopedia.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", query)

	if len(answers) == 0 && background == nil {
		b.WriteString("\n" + noInformation + "\n")
		return b.String()
	}

	if len(answers) > 0 {
		b.WriteString("\nAnswers from news coverage:\n")
		for i, ans := range answers {
			fmt.Fprintf(&b, "%d. %s (confidence %.2f, source: %s)\n", i+1, ans.Text, ans.Confidence, sourceLabel(ans))
		}
	}

	if background != nil {
		fmt.Fprintf(&b, "\nBackground from the encyclopedia (%s):\n%s\n", background.Topic, background.Extract)
		if background.URL != "" {
			fmt.Fprintf(&b, "Source: %s\n", background.URL)
		}
	}
	return b.String()
}

func sourceLabel(ans qa.Answer) string {
	if ans.ArticleTitle != "" {
		return ans.ArticleTitle
	}
	return ans.ArticleID
}
