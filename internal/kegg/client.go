package kegg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/kegg-explore-api/internal/platform/metrics"
)

// Default client settings. The rate interval corresponds to the
// published limit of 3 requests per second.
const (
	DefaultRateInterval      = 350 * time.Millisecond
	DefaultMaxRetries        = 10
	DefaultInitialRetryDelay = 1 * time.Second
	DefaultMaxRetryDelay     = 30 * time.Second
	defaultRequestTimeout    = 30 * time.Second
)

// Gene is one entry of an organism's gene list as returned by the
// remote service: the source identifier ("eco:b0001") and its
// functional description.
type Gene struct {
	Name        string
	Description string
}

// Config holds the settings for a Client. Zero values fall back to the
// package defaults.
type Config struct {
	// BaseURL is the root of the KEGG REST API.
	BaseURL string

	// RateInterval is the minimum time between two requests.
	RateInterval time.Duration

	// MaxRetries is the number of attempts per request before giving up.
	MaxRetries int

	// InitialRetryDelay and MaxRetryDelay bound the exponential backoff
	// schedule: delay = min(InitialRetryDelay * 2^attempt, MaxRetryDelay).
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration

	// HTTPClient overrides the default HTTP client. Used by tests.
	HTTPClient *http.Client
}

// Client is a rate-limited, retrying client for the KEGG REST API.
//
// A Client is safe for concurrent use; the rate limiter serializes the
// actual network calls. Each processing job owns its own Client, so the
// minimum interval is enforced per job rather than process-wide.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	rateInterval time.Duration
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration

	// mu guards lastRequest. It is held across the pre-request sleep so
	// that concurrent callers queue up behind one another instead of
	// all racing past the limiter at once.
	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a Client with the given configuration. If logger is
// nil, the default logger is used.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://rest.kegg.jp"
	}

	rateInterval := cfg.RateInterval
	if rateInterval <= 0 {
		rateInterval = DefaultRateInterval
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	initialDelay := cfg.InitialRetryDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialRetryDelay
	}

	maxDelay := cfg.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		logger:       logger.With(slog.String("component", "kegg_client")),
		rateInterval: rateInterval,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// FetchGeneList retrieves all genes for an organism.
//
// API: GET /list/{organismCode}, TSV lines of "gene_id\tdescription".
// Malformed lines are skipped.
func (c *Client) FetchGeneList(ctx context.Context, organismCode string) ([]Gene, error) {
	if organismCode == "" {
		return nil, ErrInvalidOrganismCode
	}

	body, err := c.request(ctx, "/list/"+organismCode)
	if err != nil {
		return nil, err
	}

	var genes []Gene
	for _, line := range splitLines(body) {
		name, description, ok := splitTSV(line)
		if !ok {
			continue
		}
		genes = append(genes, Gene{Name: name, Description: description})
	}

	c.logger.InfoContext(ctx, "fetched gene list",
		slog.String("organism_code", organismCode),
		slog.Int("gene_count", len(genes)))
	return genes, nil
}

// FetchKOAssignments retrieves the gene-to-KO-group mapping for an
// organism in a single call.
//
// API: GET /link/ko/{organismCode}, TSV lines of "gene_id\tko_id".
// Genes with multiple KO assignments appear on multiple lines; genes
// with none do not appear at all.
func (c *Client) FetchKOAssignments(ctx context.Context, organismCode string) (map[string][]string, error) {
	if organismCode == "" {
		return nil, ErrInvalidOrganismCode
	}

	body, err := c.request(ctx, "/link/ko/"+organismCode)
	if err != nil {
		return nil, err
	}

	assignments := make(map[string][]string)
	for _, line := range splitLines(body) {
		geneID, koID, ok := splitTSV(line)
		if !ok {
			continue
		}
		assignments[geneID] = append(assignments[geneID], koID)
	}

	c.logger.InfoContext(ctx, "fetched KO assignments",
		slog.String("organism_code", organismCode),
		slog.Int("gene_count", len(assignments)))
	return assignments, nil
}

// FetchGenesInKOGroup retrieves the identifiers of all genes, across
// all species, belonging to one KO group.
//
// API: GET /link/genes/{koNumber}, TSV lines of "ko_id\tgene_id". The
// "ko:" prefix is stripped from the id before building the URL.
func (c *Client) FetchGenesInKOGroup(ctx context.Context, koID string) ([]string, error) {
	if koID == "" {
		return nil, ErrInvalidKOID
	}

	koNumber := strings.TrimPrefix(koID, "ko:")

	body, err := c.request(ctx, "/link/genes/"+koNumber)
	if err != nil {
		return nil, err
	}

	var geneIDs []string
	for _, line := range splitLines(body) {
		_, geneID, ok := splitTSV(line)
		if !ok {
			continue
		}
		geneIDs = append(geneIDs, geneID)
	}

	return geneIDs, nil
}

// request performs one rate-limited GET against the API, retrying
// transient failures with capped exponential backoff. It returns the
// response body on the first successful attempt.
func (c *Client) request(ctx context.Context, path string) (string, error) {
	if err := c.waitForRateLimit(ctx); err != nil {
		return "", err
	}

	url := c.baseURL + path
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, retryable, err := c.doRequest(ctx, url)
		if err == nil {
			if attempt > 0 {
				c.logger.InfoContext(ctx, "request succeeded after retries",
					slog.String("path", path),
					slog.Int("attempts", attempt+1))
			}
			return body, nil
		}

		lastErr = err
		metrics.KEGGRetriesTotal.Inc()

		if !retryable {
			return "", err
		}

		if attempt == c.maxRetries-1 {
			break
		}

		delay := backoffDelay(c.initialDelay, c.maxDelay, attempt)
		c.logger.WarnContext(ctx, "request failed, backing off",
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.maxRetries),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("request cancelled during backoff: %w", ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: %s failed after %d attempts: %v",
		ErrServiceUnavailable, path, c.maxRetries, lastErr)
}

// doRequest performs a single HTTP GET. It returns the body on success,
// or an error plus whether the failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, url string) (body string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation is not a service failure; do not burn
		// retries on it.
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("network error: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.KEGGRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	// KEGG signals rate limiting with 403 or 429; both are transient,
	// as is any other non-success status.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("rate limited: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", true, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), false, nil
}

// waitForRateLimit blocks until the minimum interval since the previous
// request has elapsed, then records the new request time. The mutex is
// held across the sleep so concurrent callers are spaced out one
// interval apart.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		if remaining := c.rateInterval - time.Since(c.lastRequest); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	c.lastRequest = time.Now()
	return nil
}

// backoffDelay computes min(initial * 2^attempt, max) without overflow
// for large attempt counts.
func backoffDelay(initial, max time.Duration, attempt int) time.Duration {
	delay := initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// splitLines breaks a response body into non-empty lines.
func splitLines(body string) []string {
	raw := strings.Split(strings.TrimSpace(body), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitTSV splits one TSV line into its first two fields. Lines without
// a tab separator report ok=false and are skipped by callers.
func splitTSV(line string) (first, second string, ok bool) {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
