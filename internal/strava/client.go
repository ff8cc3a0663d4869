// Package strava fetches running activities from the Strava athlete activities API.
package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"example.com/runlog/internal/config"
	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/observability"
)

// DefaultBaseURL is the Strava v3 API root.
const DefaultBaseURL = "https://www.strava.com/api/v3"

// IsRunType reports whether an activity type counts as a run.
func IsRunType(activityType string) bool {
	t := strings.ToLower(activityType)
	return strings.Contains(t, "run") || strings.Contains(t, "treadmill")
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLimiter overrides the request rate limiter. A nil limiter disables limiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client requests athlete activities page by page.
type Client struct {
	http     *http.Client
	baseURL  string
	perPage  int
	maxPages int
	limiter  *rate.Limiter
}

// NewClient builds a client from configuration.
func NewClient(cfg config.StravaConfig, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		perPage:  cfg.PerPage,
		maxPages: cfg.MaxPages,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.perPage <= 0 {
		c.perPage = 200
	}
	if c.maxPages <= 0 {
		c.maxPages = 1
	}
	if cfg.RequestsPerWindow > 0 && cfg.Window > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.RequestsPerWindow)), cfg.RequestsPerWindow)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchActivities returns running activities that started after start and at or before end.
// Pages are requested until a short page arrives or the page cap is reached.
func (c *Client) FetchActivities(ctx context.Context, token string, start, end time.Time) ([]domain.RawActivity, error) {
	var runs []domain.RawActivity
	for page := 1; page <= c.maxPages; page++ {
		batch, err := c.fetchPage(ctx, token, start, end, page)
		if err != nil {
			return nil, err
		}
		for _, a := range batch {
			if IsRunType(a.ActivityType()) {
				runs = append(runs, a)
			}
		}
		logging.Ctx(ctx).Debug().Int("page", page).Int("activities", len(batch)).Msg("fetched activity page")
		if len(batch) < c.perPage {
			return runs, nil
		}
	}
	logging.Ctx(ctx).Warn().Int("max_pages", c.maxPages).Msg("page cap reached, later activities will be picked up by the next sync")
	return runs, nil
}

func (c *Client) fetchPage(ctx context.Context, token string, start, end time.Time, page int) ([]domain.RawActivity, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrFetch, err)
		}
	}

	q := url.Values{}
	q.Set("access_token", token)
	q.Set("after", strconv.FormatInt(start.Unix(), 10))
	q.Set("before", strconv.FormatInt(end.Unix(), 10))
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordStravaRequest("error")
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()
	observability.RecordStravaRequest(fmt.Sprintf("%dxx", resp.StatusCode/100))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: activities page %d returned %d: %s", domain.ErrFetch, page, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var batch []domain.RawActivity
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("%w: decode activities page %d: %v", domain.ErrFetch, page, err)
	}
	return batch, nil
}
