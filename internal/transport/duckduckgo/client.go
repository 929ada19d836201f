// Package duckduckgo implements web search against the DuckDuckGo HTML endpoint.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	"github.com/kailas-cloud/hybridchat/internal/domain/search"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
)

const (
	providerName = "duckduckgo"
	// maxBodyBytes caps how much of the results page is read.
	maxBodyBytes = 2 << 20
)

// Config holds the search client settings.
type Config struct {
	BaseURL    string
	MaxResults int
	Region     string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client queries DuckDuckGo and extracts organic results.
type Client struct {
	http       *http.Client
	baseURL    string
	maxResults int
	region     string
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates a DuckDuckGo search client.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{
		http:       hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxResults: maxResults,
		region:     cfg.Region,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Search runs a query and returns at most MaxResults organic hits.
// Every failure wraps domain.ErrSearchInvocation.
func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	start := time.Now()

	results, err := c.search(ctx, query)

	metrics.SearchRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("%s search: %w: %w", providerName, err, domain.ErrSearchInvocation)
	}
	metrics.SearchRequestsTotal.WithLabelValues(providerName, "success").Inc()

	c.logger.Debug("Web search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func (c *Client) search(ctx context.Context, query string) ([]search.Result, error) {
	params := url.Values{}
	params.Set("q", query)
	if c.region != "" {
		params.Set("kl", c.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/html/?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// DuckDuckGo answers throttled clients with 202 and a challenge page.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return parseResults(io.LimitReader(resp.Body, maxBodyBytes), c.maxResults)
}

// parseResults walks the results page and collects up to limit organic hits.
func parseResults(r io.Reader, limit int) ([]search.Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var results []search.Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if isElement(n, "div") && hasClass(n, "result") {
			if hasClass(n, "result--ad") {
				return
			}
			if res, ok := parseResult(n); ok {
				results = append(results, res)
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)

	return results, nil
}

func parseResult(n *html.Node) (search.Result, bool) {
	link := findFirst(n, func(x *html.Node) bool {
		return isElement(x, "a") && hasClass(x, "result__a")
	})
	if link == nil {
		return search.Result{}, false
	}

	target := resolveURL(attr(link, "href"))
	if target == "" {
		return search.Result{}, false
	}

	res := search.Result{
		Title: textContent(link),
		URL:   target,
	}
	if snippet := findFirst(n, func(x *html.Node) bool {
		return x.Type == html.ElementNode && hasClass(x, "result__snippet")
	}); snippet != nil {
		res.Snippet = textContent(snippet)
	}
	return res, true
}

// resolveURL unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...)
// and keeps only absolute http(s) targets outside duckduckgo.com.
func resolveURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" || strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		return ""
	}
	return u.String()
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if match(ch) {
			return ch
		}
		if found := findFirst(ch, match); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates descendant text with collapsed whitespace.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
			b.WriteByte(' ')
		}
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			collect(ch)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
