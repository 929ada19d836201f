package hybridchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	apichi "github.com/kailas-cloud/hybridchat/internal/transport/chi"
)

const (
	opChat   = "chat"
	opHealth = "health"
	opUsage  = "usage"

	msgEmptyResponse = "No response generated"

	maxReplyBytes = 4 << 20
)

// Client is the hybridchat SDK entry point.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	apiKey  string
	obs     *observer
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("hybridchat: base URL required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("hybridchat: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("hybridchat: unsupported scheme %q", u.Scheme)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: hc, apiKey: cfg.apiKey, obs: obs}, nil
}

// Chat sends a query and returns the answer.
func (c *Client) Chat(ctx context.Context, query string) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opChat, start, err) }()

	body, err := json.Marshal(apichi.ChatRequest{Query: query})
	if err != nil {
		return Answer{}, fmt.Errorf("hybridchat: encode request: %w", err)
	}

	var out apichi.ChatResponse
	hdr, _, err := c.do(ctx, opChat, http.MethodPost, "/chat", nil, body, &out)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Text:  out.Response,
		Route: hdr.Get(apichi.HeaderRoute),
		Path:  hdr.Get(apichi.HeaderAnswerPath),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// do sends one request and decodes a 2xx JSON reply into out.
// Statuses listed in accept are decoded as success too.
func (c *Client) do(
	ctx context.Context, op, method, path string, query url.Values, body []byte, out any, accept ...int,
) (http.Header, int, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, 0, fmt.Errorf("hybridchat: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("hybridchat: %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("hybridchat: %s: read reply: %w", op, err)
	}

	if resp.StatusCode/100 != 2 && !slices.Contains(accept, resp.StatusCode) {
		return resp.Header, resp.StatusCode, apiError(op, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.Header, resp.StatusCode, fmt.Errorf("hybridchat: %s: decode reply: %w", op, err)
	}
	return resp.Header, resp.StatusCode, nil
}

func apiError(op string, code int, data []byte) *APIError {
	var er apichi.ErrorResponse
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &APIError{Op: op, StatusCode: code, Message: msg}
}
