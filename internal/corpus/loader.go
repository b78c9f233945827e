package corpus

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"

	apperrors "newsqa/pkg/errors"
	"newsqa/pkg/logger"
)

// FilterConfig controls which records make it into the corpus.
type FilterConfig struct {
	// Keywords is the relevance list; a record is kept when its body
	// contains at least one keyword, compared case-insensitively.
	Keywords []string
	// MinBodyChars drops records whose normalized body is shorter.
	MinBodyChars int
}

// record mirrors the loose JSON shapes news dumps come in. Article text
// lives under articleBody in the schema.org dumps this tool was built for;
// the other keys are fallbacks seen in the wild.
type record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Headline    string `json:"headline"`
	ArticleBody string `json:"articleBody"`
	Text        string `json:"text"`
	Body        string `json:"body"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	Publisher   string `json:"publisher"`
	Published   string `json:"datePublished"`
}

func (r record) bodyText() string {
	for _, candidate := range []string{r.ArticleBody, r.Text, r.Body, r.Content} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (r record) titleText() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Headline
}

func (r record) sourceText() string {
	if r.Source != "" {
		return r.Source
	}
	return r.Publisher
}

// Load reads the JSON article file at path, keeps the records matching the
// relevance filter, and normalizes their text. The returned corpus preserves
// file order. It fails with ErrDataLoad when the file is unreadable or not a
// JSON array, and with ErrEmptyCorpus when no record survives the filter.
func Load(path string, filter FilterConfig) (*Corpus, error) {
	log := logger.WithComponent("corpus")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrDataLoad, apperrors.ExitDataLoad, "reading %s: %v", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.Newf(apperrors.ErrDataLoad, apperrors.ExitDataLoad, "parsing %s: %v", path, err)
	}

	keywords := make([]string, 0, len(filter.Keywords))
	for _, kw := range filter.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	minBody := filter.MinBodyChars
	if minBody < 1 {
		minBody = 1
	}

	articles := make([]Article, 0, len(records))
	for _, rec := range records {
		raw := rec.bodyText()
		if raw == "" || !matchesAny(raw, keywords) {
			continue
		}
		body := cleanText(raw)
		if len(body) < minBody {
			continue
		}
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		articles = append(articles, Article{
			ID:        id,
			Title:     cleanTitle(rec.titleText()),
			Body:      body,
			Source:    rec.sourceText(),
			Published: rec.Published,
			Position:  len(articles),
		})
	}

	if len(articles) == 0 {
		return nil, apperrors.Newf(apperrors.ErrEmptyCorpus, apperrors.ExitEmptyCorpus,
			"no articles matched keywords %v in %s", filter.Keywords, path)
	}

	log.Info("corpus loaded", "path", path, "records", len(records), "articles", len(articles))
	return &Corpus{Articles: articles}, nil
}

func matchesAny(body string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(body)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
