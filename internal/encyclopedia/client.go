// Package encyclopedia fetches short background summaries from a MediaWiki
// installation (Wikipedia by default). Lookups degrade to "no summary" on
// any failure; the rest of the pipeline never waits on a broken wiki.
package encyclopedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"newsqa/pkg/logger"
)

// Summary is a short background text block for one topic.
type Summary struct {
	Topic   string
	Extract string
	URL     string
}

var (
	// ErrPageMissing marks lookups where the wiki simply has nothing: no
	// search match, a missing page, or a page without extract text.
	ErrPageMissing = errors.New("encyclopedia page not found")
	// ErrAmbiguous marks disambiguation pages.
	ErrAmbiguous = errors.New("encyclopedia topic is ambiguous")
)

const userAgent = "newsqa/1.0 (interactive news QA tool)"

// Client wraps the MediaWiki action API with the three calls the augmenter
// needs: title search, summary fetch, and first-link resolution.
type Client struct {
	baseURL      string
	maxSentences int
	http         *http.Client
	log          *slog.Logger
}

// NewClient builds a client for the wiki rooted at baseURL (the client
// appends /w/api.php). A nil httpClient uses http.DefaultClient; call
// timeouts come from the request context.
func NewClient(baseURL string, maxSentences int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		maxSentences: maxSentences,
		http:         httpClient,
		log:          logger.WithComponent("encyclopedia"),
	}
}

type queryResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Search []titleRef  `json:"search"`
		Pages  []pageEntry `json:"pages"`
	} `json:"query"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type titleRef struct {
	Title string `json:"title"`
}

type pageEntry struct {
	Title     string            `json:"title"`
	Extract   string            `json:"extract"`
	FullURL   string            `json:"fullurl"`
	Missing   bool              `json:"missing"`
	PageProps map[string]string `json:"pageprops"`
	Links     []titleRef        `json:"links"`
}

// SearchTitle returns the best-matching page title for a free-text query.
func (c *Client) SearchTitle(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "1")
	params.Set("srprop", "")

	out, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	if len(out.Query.Search) == 0 {
		return "", fmt.Errorf("%w: no match for %q", ErrPageMissing, query)
	}
	return out.Query.Search[0].Title, nil
}

// Fetch returns the lead summary of the page with the given title, clipped
// server-side to the configured sentence count. It reports ErrAmbiguous for
// disambiguation pages and ErrPageMissing when the page does not exist or
// has no extract text.
func (c *Client) Fetch(ctx context.Context, title string) (*Summary, error) {
	params := url.Values{}
	params.Set("prop", "extracts|pageprops|info")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exsentences", strconv.Itoa(c.maxSentences))
	params.Set("redirects", "1")
	params.Set("inprop", "url")
	params.Set("titles", title)

	out, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(out.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrPageMissing, title)
	}
	page := out.Query.Pages[0]
	if page.Missing {
		return nil, fmt.Errorf("%w: %q", ErrPageMissing, title)
	}
	if _, ok := page.PageProps["disambiguation"]; ok {
		return nil, fmt.Errorf("%w: %q", ErrAmbiguous, page.Title)
	}
	extract := strings.TrimSpace(page.Extract)
	if extract == "" {
		return nil, fmt.Errorf("%w: %q has no extract", ErrPageMissing, title)
	}
	return &Summary{Topic: page.Title, Extract: extract, URL: page.FullURL}, nil
}

// FirstLink returns the first article linked from the given page. For a
// disambiguation page that is its first listed option.
func (c *Client) FirstLink(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("prop", "links")
	params.Set("plnamespace", "0")
	params.Set("pllimit", "1")
	params.Set("titles", title)

	out, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	if len(out.Query.Pages) == 0 || len(out.Query.Pages[0].Links) == 0 {
		return "", fmt.Errorf("%w: %q lists no options", ErrPageMissing, title)
	}
	return out.Query.Pages[0].Links[0].Title, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (*queryResponse, error) {
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	endpoint := c.baseURL + "/w/api.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building encyclopedia request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("encyclopedia request", "params", params.Encode())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling encyclopedia api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encyclopedia api status %s", resp.Status)
	}
	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding encyclopedia response: %w", err)
	}
	// The action API reports errors inside a 200 body.
	if out.Error != nil {
		return nil, fmt.Errorf("encyclopedia api error %s: %s", out.Error.Code, out.Error.Info)
	}
	return &out, nil
}
