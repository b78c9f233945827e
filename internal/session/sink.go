package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"newsqa/internal/retrieval"
	"newsqa/pkg/logger"
)

// Sink persists the top-ranked articles of the most recent query to a
// plain-text file. Each write replaces the whole file, never appends.
type Sink struct {
	path string
	log  *slog.Logger
}

// NewSink creates a Sink writing to the given path.
func NewSink(path string) *Sink {
	return &Sink{path: path, log: logger.WithComponent("session.sink")}
}

// Write atomically replaces the sink file with one labeled block per ranked
// article. It writes to a .tmp file first and renames on success, so a
// reader never sees a half-written file. Zero results produce an empty file.
func (s *Sink) Write(results []retrieval.RankedResult) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp output file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, res := range results {
		title := res.Article.Title
		if title == "" {
			title = res.Article.ID
		}
		fmt.Fprintf(&b, "=== [%d] %s (score %.4f) ===\n%s\n\n", res.Rank, title, res.Score, res.Article.Body)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing articles: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing output file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing output file: %w", err)
	}
	s.log.Debug("top articles persisted", "path", s.path, "articles", len(results))
	return nil
}
