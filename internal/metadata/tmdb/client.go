// Package tmdb is a rate-limited client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"

	"github.com/hiveapp/hive-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public TMDB v3 endpoint.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// Rate limit: TMDB allows roughly 40 requests per second; stay well below.
	defaultRPS   = 20.0
	defaultBurst = 10

	// HTTP client settings
	defaultTimeout = 5 * time.Second

	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	defaultNegativeTTL     = 10 * time.Minute
	defaultSeasonReuseTTL  = time.Minute

	limiterKey = "tmdb"
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	// APIKey is either a v3 API key (sent as api_key) or a v4 read access
	// token (sent as a Bearer header). Tokens are recognised by their dots.
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
	// BreakerFailures is the number of consecutive failures that opens the circuit.
	BreakerFailures uint32
	// BreakerTimeout is how long the circuit stays open before a trial request.
	BreakerTimeout time.Duration
	// NegativeTTL is how long a not-found id is answered from memory.
	NegativeTTL time.Duration
	// SeasonReuseTTL is how long the seasons of a looked-up series are kept
	// for the LookupSeasons call that follows it.
	SeasonReuseTTL time.Duration
}

// Client is a rate-limited TMDB API client.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	limiter  *ratelimit.KeyedRateLimiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	notFound *cache.Cache
	seasons  *cache.Cache
	logger   *slog.Logger
}

// New creates a new TMDB client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = defaultNegativeTTL
	}
	if cfg.SeasonReuseTTL <= 0 {
		cfg.SeasonReuseTTL = defaultSeasonReuseTTL
	}

	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst),
		notFound: cache.New(cfg.NegativeTTL, 2*cfg.NegativeTTL),
		seasons:  cache.New(cfg.SeasonReuseTTL, 2*cfg.SeasonReuseTTL),
		logger:   logger,
	}

	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Answers about the request itself say nothing about TMDB's health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrBadRequest) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doRequest executes a GET against the API with rate limiting, a per-call
// timeout and circuit breaking.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, query)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, ErrUnavailable
	case err != nil && isTimeout(ctx, err):
		return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return body, err
}

// isTimeout reports whether err came from the per-call deadline or the
// HTTP client's own timeout.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Hive/1.0")
	if strings.Contains(c.apiKey, ".") {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	req.URL.RawQuery = query.Encode()

	c.logger.Debug("tmdb request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Read body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Check status
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
