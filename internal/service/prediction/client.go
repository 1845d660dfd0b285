// Package prediction is the HTTP client for the commodity prediction API.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	smetrics "PriceBoard/internal/service/metrics"
	"PriceBoard/pkg/config"
	xhttp "PriceBoard/pkg/http"
)

const (
	basePath    = "/prediction"
	devBasePath = "/prediction-dev"
	newsPath    = "/news"
)

// ErrUnexpectedStatus is wrapped when the API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches prediction series and news from the upstream API.
type Client struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration
}

// NewClient builds a client from the upstream section of the config.
func NewClient(cfg config.UpstreamConfig) *Client {
	smetrics.Register()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: attempts,
		backoff:  cfg.RetryBackoff,
	}
}

// PredictionPath returns the endpoint path for key. Coffee is served at the
// base path itself; every other commodity lives one segment below it.
func PredictionPath(key models.SeriesKey) string {
	base := basePath
	if key.Dev {
		base = devBasePath
	}
	if key.Commodity == models.Coffee || key.Commodity == "" {
		return base
	}
	return base + "/" + string(key.Commodity)
}

// FetchPredictions reads both horizon series for key. Missing arrays come back empty.
func (c *Client) FetchPredictions(ctx context.Context, key models.SeriesKey) (models.PredictionSet, error) {
	var resp struct {
		Data *models.PredictionSet `json:"data"`
	}
	if err := c.get(ctx, "prediction", PredictionPath(key), &resp); err != nil {
		return models.PredictionSet{}, err
	}
	if resp.Data == nil {
		return models.PredictionSet{}, nil
	}
	return *resp.Data, nil
}

// FetchNews reads the scored news list.
func (c *Client) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	var resp struct {
		Data []models.NewsItem `json:"data"`
	}
	if err := c.get(ctx, "news", newsPath, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []models.NewsItem{}, nil
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, dest interface{}) error {
	if c.client == nil || c.baseURL == "" {
		return fmt.Errorf("%w: client not initialized", drepo.ErrUpstream)
	}

	start := time.Now()
	err := c.client.GetJSONWithRetry(ctx, c.baseURL+path, dest, c.attempts, c.backoff)
	smetrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	var se *xhttp.StatusError
	switch {
	case errors.As(err, &se):
		smetrics.UpstreamErrors.WithLabelValues(endpoint, smetrics.ReasonStatus).Inc()
		return fmt.Errorf("%w: GET %s: %w %d", drepo.ErrUpstream, path, ErrUnexpectedStatus, se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		smetrics.UpstreamErrors.WithLabelValues(endpoint, smetrics.ReasonTimeout).Inc()
	default:
		smetrics.UpstreamErrors.WithLabelValues(endpoint, smetrics.ReasonTransport).Inc()
	}
	return fmt.Errorf("%w: GET %s: %w", drepo.ErrUpstream, path, err)
}

var _ drepo.PredictionSource = (*Client)(nil)
