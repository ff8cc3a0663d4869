package credentials

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/observability"
)

// DefaultTokenURL is the Strava OAuth token endpoint.
const DefaultTokenURL = "https://www.strava.com/oauth/token"

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHTTPClient overrides the client used for token refresh.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithTokenURL sets the refresh endpoint used when the bundle has no auth_url.
func WithTokenURL(tokenURL string) ManagerOption {
	return func(m *Manager) {
		if tokenURL != "" {
			m.tokenURL = tokenURL
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager refreshes expired Strava tokens and writes them back through a Store.
type Manager struct {
	store    Store
	client   *http.Client
	tokenURL string
	now      func() time.Time
}

// NewManager constructs a Manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		client:   &http.Client{Timeout: 30 * time.Second},
		tokenURL: DefaultTokenURL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status loads the bundle and reports the current Strava credentials without refreshing.
func (m *Manager) Status() (StravaCredentials, bool, error) {
	b, err := m.store.Load()
	if err != nil {
		return StravaCredentials{}, false, err
	}
	creds, err := b.Strava()
	if err != nil {
		return StravaCredentials{}, false, err
	}
	return creds, creds.Expired(m.now().Unix()), nil
}

// EnsureValid refreshes the Strava access token when it has expired or is missing, merging the
// response into the bundle and saving it. A valid token leaves the bundle untouched.
func (m *Manager) EnsureValid(ctx context.Context, b Bundle) (Bundle, error) {
	creds, err := b.Strava()
	if err != nil {
		return b, err
	}
	if !creds.Expired(m.now().Unix()) {
		return b, nil
	}

	logging.Info().Int64("expires_at", creds.ExpiresAt).Msg("strava access token expired, refreshing")
	payload, err := m.refresh(ctx, creds)
	if err != nil {
		observability.RecordTokenRefresh(false)
		return b, err
	}
	observability.RecordTokenRefresh(true)

	b.Merge(SectionStrava, payload)
	if err := m.store.Save(b); err != nil {
		return b, fmt.Errorf("%w: save refreshed credentials: %v", domain.ErrAuthRefresh, err)
	}
	return b, nil
}

// AccessToken loads the bundle, refreshes it if needed and returns the access token.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	b, err := m.store.Load()
	if err != nil {
		return "", err
	}
	b, err = m.EnsureValid(ctx, b)
	if err != nil {
		return "", err
	}
	creds, err := b.Strava()
	if err != nil {
		return "", err
	}
	if creds.AccessToken == "" {
		return "", fmt.Errorf("%w: strava access_token is empty", domain.ErrConfig)
	}
	return creds.AccessToken, nil
}

func (m *Manager) refresh(ctx context.Context, creds StravaCredentials) (map[string]any, error) {
	endpoint := m.tokenURL
	if creds.AuthURL != "" {
		endpoint = creds.AuthURL
	}

	data := url.Values{}
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", creds.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build refresh request: %v", domain.ErrAuthRefresh, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthRefresh, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read refresh response: %v", domain.ErrAuthRefresh, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s", domain.ErrAuthRefresh, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parse refresh response: %v", domain.ErrAuthRefresh, err)
	}
	if token, _ := payload["access_token"].(string); token == "" {
		return nil, fmt.Errorf("%w: refresh response has no access_token", domain.ErrAuthRefresh)
	}
	return payload, nil
}
