// Package corpus loads the news-article collection from disk, applies the
// conflict-relevance filter, and normalizes article text ahead of indexing.
package corpus

// Article is one news item that survived the relevance filter. Body is
// normalized text and is never empty. Position is the article's index in
// load order; ranking uses it to break score ties deterministically.
type Article struct {
	ID        string
	Title     string
	Body      string
	Source    string
	Published string
	Position  int
}

// Corpus is the immutable, ordered article collection for one session.
type Corpus struct {
	Articles []Article
}

func (c *Corpus) Len() int {
	return len(c.Articles)
}
