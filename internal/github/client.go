package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/modscan/internal/source"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const (
	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.raw"
	apiVersion = "2022-11-28"

	// maxBodySize bounds a single response body.
	maxBodySize = 32 << 20
)

// Client is a GitHub REST client implementing source.Source.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	timeout    time.Duration
	proxyURL   string
	cache      Cache
	attempts   int
	retryDelay time.Duration
	maxBody    int64
	http       *http.Client

	mu        sync.Mutex
	lastLimit source.RateLimit
	hasLimit  bool
}

var _ source.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. for GitHub Enterprise or tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the timeout of a single HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithProxy routes requests through a socks5, socks5h, http or https proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithResponseCache enables conditional requests backed by cache.
func WithResponseCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRetry sets how many attempts a request gets and the first delay
// between them. The delay doubles after each failure.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// WithHTTPClient replaces the underlying HTTP client. Timeout and proxy
// options are ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient returns a client authenticating with token. An empty token
// makes anonymous requests, which GitHub limits to 60 per hour.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		userAgent:  "modscan",
		timeout:    30 * time.Second,
		attempts:   3,
		retryDelay: time.Second,
		maxBody:    maxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		transport, err := newTransport(c.proxyURL)
		if err != nil {
			return nil, err
		}
		c.http = &http.Client{Transport: transport, Timeout: c.timeout}
	}
	return c, nil
}

type repositoryJSON struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	StargazersCount int    `json:"stargazers_count"`
	Fork            bool   `json:"fork"`
}

// ListRepositories implements source.Source. It follows pagination until
// every source repository of org has been read.
func (c *Client) ListRepositories(ctx context.Context, org string) ([]source.Repository, error) {
	next := fmt.Sprintf("%s/orgs/%s/repos?type=sources&sort=full_name&per_page=100", c.baseURL, url.PathEscape(org))

	var repos []source.Repository
	for next != "" {
		resp, err := c.get(ctx, next, acceptJSON)
		if err != nil {
			return nil, fmt.Errorf("list repositories of %s: %w", org, err)
		}

		var page []repositoryJSON
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode repositories of %s: %w", org, err)
		}
		for _, r := range page {
			repos = append(repos, source.Repository{
				Name:     r.Name,
				FullName: r.FullName,
				Stars:    r.StargazersCount,
				Fork:     r.Fork,
			})
		}
		next = nextLink(resp.header.Get("Link"))
	}
	return repos, nil
}

type entryJSON struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

// ListDirectory implements source.Source.
func (c *Client) ListDirectory(ctx context.Context, repo source.Repository, branch, p string) ([]source.Entry, error) {
	resp, err := c.get(ctx, c.contentsURL(repo, branch, p), acceptJSON)
	if err != nil {
		return nil, fmt.Errorf("list %s@%s:/%s: %w", repo.FullName, branch, p, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(resp.body), []byte("[")) {
		return nil, fmt.Errorf("list %s@%s:/%s: %w", repo.FullName, branch, p, ErrNotDirectory)
	}

	var items []entryJSON
	if err := json.Unmarshal(resp.body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode listing of %s@%s:/%s: %w", repo.FullName, branch, p, err)
	}

	modified, _ := http.ParseTime(resp.header.Get("Last-Modified"))
	entries := make([]source.Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, source.Entry{
			Name:         it.Name,
			Type:         it.Type,
			Path:         it.Path,
			HTMLURL:      it.HTMLURL,
			LastModified: modified.UTC(),
		})
	}
	return entries, nil
}

// FetchFile implements source.Source.
func (c *Client) FetchFile(ctx context.Context, repo source.Repository, branch, p string) ([]byte, error) {
	resp, err := c.get(ctx, c.contentsURL(repo, branch, p), acceptRaw)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s:/%s: %w", repo.FullName, branch, p, err)
	}
	return resp.body, nil
}

type rateLimitJSON struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}

// RateLimit implements source.Source. Querying it does not consume quota.
func (c *Client) RateLimit(ctx context.Context) (source.RateLimit, error) {
	var resp *response
	err := retry(ctx, c.attempts, c.retryDelay, func() error {
		r, err := c.do(ctx, c.baseURL+"/rate_limit", acceptJSON, "")
		resp = r
		return err
	})
	if err != nil {
		return source.RateLimit{}, fmt.Errorf("rate limit: %w", err)
	}

	var body rateLimitJSON
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return source.RateLimit{}, fmt.Errorf("failed to decode rate limit: %w", err)
	}
	core := body.Resources.Core
	return source.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     time.Unix(core.Reset, 0).UTC(),
	}, nil
}

// LastRateLimit returns the quota reported by the most recent response.
func (c *Client) LastRateLimit() (source.RateLimit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLimit, c.hasLimit
}

func (c *Client) contentsURL(repo source.Repository, branch, p string) string {
	u := fmt.Sprintf("%s/repos/%s/contents", c.baseURL, repo.FullName)
	if p = strings.Trim(p, "/"); p != "" {
		segments := strings.Split(p, "/")
		for i, s := range segments {
			segments[i] = url.PathEscape(s)
		}
		u += "/" + strings.Join(segments, "/")
	}
	return u + "?ref=" + url.QueryEscape(branch)
}

type response struct {
	body        []byte
	header      http.Header
	notModified bool
}

// get performs a GET with retries, revalidating against the response cache.
func (c *Client) get(ctx context.Context, rawURL, accept string) (*response, error) {
	key := cacheKey(http.MethodGet, accept, rawURL)

	var (
		cached CachedResponse
		hit    bool
	)
	if c.cache != nil {
		// A failing cache only costs quota.
		cached, hit, _ = c.cache.Get(ctx, key)
	}

	var resp *response
	err := retry(ctx, c.attempts, c.retryDelay, func() error {
		etag := ""
		if hit {
			etag = cached.ETag
		}
		r, err := c.do(ctx, rawURL, accept, etag)
		resp = r
		return err
	})
	if err != nil {
		return nil, err
	}

	if resp.notModified {
		if !hit {
			return nil, &APIError{StatusCode: http.StatusNotModified, Message: "unexpected 304 without cached response", URL: rawURL}
		}
		header := resp.header.Clone()
		if header.Get("Last-Modified") == "" && cached.LastModified != "" {
			header.Set("Last-Modified", cached.LastModified)
		}
		return &response{body: cached.Body, header: header}, nil
	}

	if etag := resp.header.Get("ETag"); c.cache != nil && etag != "" {
		_ = c.cache.Put(ctx, key, CachedResponse{
			ETag:         etag,
			LastModified: resp.header.Get("Last-Modified"),
			Body:         resp.body,
			StoredAt:     time.Now().UTC(),
		})
	}
	return resp, nil
}

// do performs a single request.
func (c *Client) do(ctx context.Context, rawURL, accept, etag string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer res.Body.Close()

	c.trackRateLimit(res.Header)

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: reading body: %v", ErrNetwork, err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w: more than %d bytes", rawURL, ErrResponseTooLarge, c.maxBody)
	}

	switch {
	case res.StatusCode == http.StatusNotModified:
		return &response{header: res.Header, notModified: true}, nil
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return &response{body: body, header: res.Header}, nil
	}
	return nil, statusError(rawURL, res, body)
}

func statusError(rawURL string, res *http.Response, body []byte) error {
	msg := apiMessage(body)

	switch code := res.StatusCode; {
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", rawURL, source.ErrNotFound)
	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		retryAfter := res.Header.Get("Retry-After")
		if res.Header.Get("X-RateLimit-Remaining") == "0" || retryAfter != "" || code == http.StatusTooManyRequests {
			rl := &RateLimitError{
				StatusCode: code,
				Reset:      parseUnix(res.Header.Get("X-RateLimit-Reset")),
				Message:    msg,
			}
			if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
				rl.RetryAfter = time.Duration(secs) * time.Second
			}
			return rl
		}
	case code >= 500:
		return &retryableError{err: fmt.Errorf("%w: %w", ErrNetwork, &APIError{StatusCode: code, Message: msg, URL: rawURL})}
	}
	return &APIError{StatusCode: res.StatusCode, Message: msg, URL: rawURL}
}

// apiMessage extracts the "message" field of an error body.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body[:min(len(body), 200)]))
}

func (c *Client) trackRateLimit(h http.Header) {
	limit, err := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	if err != nil {
		return
	}
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastLimit = source.RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Reset:     parseUnix(h.Get("X-RateLimit-Reset")),
	}
	c.hasLimit = true
}

// nextLink returns the rel="next" URL of a Link header, or "".
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		for _, param := range strings.Split(params, ";") {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(target), "<>")
			}
		}
	}
	return ""
}
