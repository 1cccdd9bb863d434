// Package jikan provides the upstream catalog client for the Jikan v4 API
// (an unofficial MyAnimeList mirror). One call fetches one page of the
// popularity-ordered top anime listing and normalizes it to catalog records.
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

// Prometheus metrics for upstream requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_upstream_requests_total",
		Help: "Total upstream page requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anime_upstream_request_duration_seconds",
		Help:    "Upstream page request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anime_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public Jikan v4 endpoint.
	DefaultBaseURL = "https://api.jikan.moe/v4"

	// listingPath is the popularity-ordered listing walked by the pager.
	listingPath = "/top/anime"

	// maxErrorBody caps how much of an error body ends up in APIError.Message.
	maxErrorBody = 512
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, without a trailing slash.
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// HTTPClient overrides the transport (tests, proxies). Requests carry
	// no timeout of their own beyond what this client sets.
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
	}
}

// Client fetches listing pages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     zerolog.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		logger:     log.With().Str("component", "jikan-client").Logger(),
	}, nil
}

// FetchPage fetches one listing page and returns its normalized records in
// upstream order.
func (c *Client) FetchPage(ctx context.Context, page int) ([]catalog.Record, error) {
	resp, err := c.FetchPageInfo(ctx, page)
	if err != nil {
		return nil, err
	}

	records := make([]catalog.Record, 0, len(*resp.Data))
	for _, raw := range *resp.Data {
		records = append(records, raw.Normalize())
	}
	return records, nil
}

// FetchPageInfo fetches one listing page and returns the decoded payload,
// including the upstream pagination block.
func (c *Client) FetchPageInfo(ctx context.Context, page int) (*PageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Debug().Err(err).Int("page", page).Msg("Upstream request failed")
		return nil, &APIError{
			Page:       page,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}

		c.logger.Debug().
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream returned error status")

		return nil, &APIError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    msg,
		}
	}

	var payload PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode body",
			Err:        fmt.Errorf("%w: %v", ErrMalformedPage, err),
		}
	}
	if payload.Data == nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			Page:       page,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "missing data array",
			Err:        ErrMalformedPage,
		}
	}

	return &payload, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("filter", "bypopularity")
	q.Set("page", strconv.Itoa(page))
	return c.baseURL + listingPath + "?" + q.Encode()
}
