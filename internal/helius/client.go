package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"solana-copytrade-analyzer/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.helius.xyz"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultPageSize    = 100
)

// Client communicates with the Helius enhanced transactions API.
type Client struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	pageSize    int
	txType      string
	logger      zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts per page.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithPageSize sets the per-request transaction limit.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithTypeFilter restricts fetches to one transaction type (e.g.
// "SWAP"), filtered server side.
func WithTypeFilter(txType string) ClientOption {
	return func(c *Client) {
		c.txType = txType
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new Helius API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		pageSize:    DefaultPageSize,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage retrieves a single page of enhanced transactions for a
// wallet. before is the pagination cursor (a signature) and may be
// empty for the first page. An empty result means end of history.
func (c *Client) FetchPage(ctx context.Context, wallet, before string) ([]EnhancedTransaction, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.baseURL, wallet)

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("limit", strconv.Itoa(c.pageSize))
	if before != "" {
		params.Set("before", before)
	}
	if c.txType != "" {
		params.Set("type", c.txType)
	}

	fullURL := endpoint + "?" + params.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		txs, err := c.fetchOnce(ctx, fullURL)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("wallet", wallet).Msg("page fetch failed")
			continue
		}
		observability.RecordPageFetched(len(txs))
		return txs, nil
	}

	observability.DefaultMetrics.FetchErrors.Inc()
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, fullURL string) ([]EnhancedTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var txs []EnhancedTransaction
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return txs, nil
}

// FetchHistory paginates backwards through a wallet's history until the
// API returns an empty page or limit transactions have been collected.
// Pagination is strictly sequential: each response yields the cursor
// for the next request.
func (c *Client) FetchHistory(ctx context.Context, wallet string, limit int) ([]EnhancedTransaction, error) {
	var all []EnhancedTransaction
	before := ""

	for limit <= 0 || len(all) < limit {
		txs, err := c.FetchPage(ctx, wallet, before)
		if err != nil {
			// A failed page after retries is treated like exhaustion so a
			// partial history still produces a result set. Logged so the
			// truncation is visible.
			c.logger.Warn().Err(err).Str("wallet", wallet).Int("fetched", len(all)).Msg("stopping pagination on fetch error")
			break
		}
		if len(txs) == 0 {
			break
		}

		all = append(all, txs...)
		before = txs[len(txs)-1].Signature

		c.logger.Debug().Str("wallet", wallet).Int("page_size", len(txs)).Int("total", len(all)).Msg("fetched page")

		if len(txs) < c.pageSize {
			break
		}
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
