package vod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vod-catalog/domain/dto"
	"vod-catalog/domain/repository"
	"vod-catalog/infrastructure/logger"
	"vod-catalog/infrastructure/metrics"

	"github.com/google/go-querystring/query"
)

// ErrUpstreamStatus is matched by every non-2xx response error
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// Config represents the content API client configuration
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the list/detail content API
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
}

var _ repository.ICatalogSource = (*Client)(nil)

// NewVODClient creates a content API client
func NewVODClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		userAgent:  cfg.UserAgent,
	}, nil
}

// List fetches one page of list-level records
func (c *Client) List(ctx context.Context, req *dto.VodListRequest) (*dto.VodListResponse, error) {
	if req == nil {
		req = &dto.VodListRequest{}
	}
	if req.Action == "" {
		req.Action = dto.ActionList
	}
	values, err := query.Values(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list request: %w", err)
	}
	return c.get(ctx, "list", values)
}

// Detail fetches full records for ids in one request
func (c *Client) Detail(ctx context.Context, ids []string) (*dto.VodListResponse, error) {
	if len(ids) == 0 {
		return &dto.VodListResponse{}, nil
	}
	values, err := query.Values(&dto.VodDetailRequest{Action: dto.ActionDetail, IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to encode detail request: %w", err)
	}
	return c.get(ctx, "detail", values)
}

func (c *Client) get(ctx context.Context, endpoint string, values url.Values) (*dto.VodListResponse, error) {
	started := time.Now()
	res, err := c.do(ctx, values)
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		logger.GetLogger().WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"query":    values.Encode(),
			"error":    err,
		}).Debug("Content API request failed")
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return res, nil
}

func (c *Client) do(ctx context.Context, values url.Values) (*dto.VodListResponse, error) {
	u := *c.baseURL
	q := u.Query()
	for k, vs := range values {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call content API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out dto.VodListResponse
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode content API response: %w", err)
	}
	return &out, nil
}
