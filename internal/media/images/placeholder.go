package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultImageBaseURL serves TMDB posters; w92 is the smallest rendition.
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w92"

	// maxPosterSize limits download size to prevent memory exhaustion.
	maxPosterSize = 5 * 1024 * 1024

	defaultFetchTimeout = 5 * time.Second
)

// ErrNoPoster is returned when there is nothing to fetch.
var ErrNoPoster = errors.New("no poster path")

// PlaceholderGenerator downloads a poster and reduces it to a BlurHash.
type PlaceholderGenerator struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewPlaceholderGenerator creates a generator fetching posters from baseURL.
func NewPlaceholderGenerator(baseURL string, timeout time.Duration, logger *slog.Logger) *PlaceholderGenerator {
	if baseURL == "" {
		baseURL = DefaultImageBaseURL
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &PlaceholderGenerator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// Generate fetches the poster at posterPath (e.g. "/abc.jpg") and returns its BlurHash.
func (g *PlaceholderGenerator) Generate(ctx context.Context, posterPath string) (string, error) {
	if posterPath == "" {
		return "", ErrNoPoster
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := g.baseURL + "/" + strings.TrimLeft(posterPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download poster: HTTP %d", resp.StatusCode)
	}

	start := time.Now()
	hash, err := ComputeBlurHash(io.LimitReader(resp.Body, maxPosterSize))
	if err != nil {
		return "", err
	}

	g.logger.Debug("computed poster placeholder",
		"poster", posterPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return hash, nil
}
