package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"example.com/runlog/internal/auth"
	"example.com/runlog/internal/domain"
	httptransport "example.com/runlog/internal/transport/http"
)

var authConfig = auth.Config{Secret: "test-secret", Issuer: "runlog"}

type mockRepo struct {
	records []domain.ActivityRecord
}

func (m *mockRepo) InsertAll(_ context.Context, records []domain.ActivityRecord) (int, error) {
	if len(records) == 0 {
		return 0, domain.ErrNoRows
	}
	m.records = append(m.records, records...)
	return len(records), nil
}

func (m *mockRepo) QueryRange(_ context.Context, start, end time.Time) ([]domain.ActivityRecord, error) {
	var out []domain.ActivityRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if !r.StartDate.Before(start) && !r.StartDate.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) LastRecord(context.Context) (*domain.ActivityRecord, error) {
	if len(m.records) == 0 {
		return nil, nil
	}
	last := m.records[len(m.records)-1]
	return &last, nil
}

type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchActivities(context.Context, string, time.Time, time.Time) ([]domain.RawActivity, error) {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	return []domain.RawActivity{
		{Type: "Run", StartDateLocal: "2024-03-08T06:00:00Z", Distance: 1609, ElapsedTime: 600},
	}, nil
}

type staticTokens struct{}

func (staticTokens) AccessToken(context.Context) (string, error) { return "tok", nil }

func seededRepo() *mockRepo {
	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wed := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	return &mockRepo{records: []domain.ActivityRecord{
		{StartDate: mon, StartTime: 7 * time.Hour, Miles: 5.0, Minutes: 45},
		{StartDate: wed, StartTime: 18 * time.Hour, Miles: 3.2, Minutes: 30},
	}}
}

func newTestRouter(t *testing.T, svc *domain.Service) (http.Handler, *Handler) {
	t.Helper()
	h := NewHandler(svc)
	h.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	r := httptransport.NewRouter(auth.NewMiddleware(authConfig, auth.PublicPaths).Wrap)
	h.RegisterRoutes(r)
	return r, h
}

func do(t *testing.T, router http.Handler, method, target, body string, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if scopes != nil {
		token, err := auth.Issue(authConfig, "tester", scopes, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHealthzIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(&mockRepo{}, nil, nil))
	rr := do(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestWeeklySummaryEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), nil, nil))

	rr := do(t, router, http.MethodGet, "/v1/summary/weekly?start=2024-03-04&end=2024-03-06", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp WeeklySummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Weeks, 1)
	require.Equal(t, "Mar 04", resp.Weeks[0].WeekOf)
	require.Equal(t, 5.0, resp.Weeks[0].Days["Mon"])
	require.Equal(t, 3.2, resp.Weeks[0].Days["Weds"])
	require.Equal(t, 8.2, resp.Weeks[0].Total)
}

func TestWeeklySummaryValidation(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), nil, nil))

	rr := do(t, router, http.MethodGet, "/v1/summary/weekly?start=2024-03-04", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/v1/summary/weekly?start=2024-03-10&end=2024-03-04", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHeatmapEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), nil, nil))
	rr := do(t, router, http.MethodGet, "/v1/summary/weekly/heatmap?start=2024-03-04&end=2024-03-06", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rr.Body.String(), "<svg")
}

func TestRunsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), nil, nil))

	rr := do(t, router, http.MethodGet, "/v1/runs?start=2024-03-01&end=2024-03-31", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var list ListRunsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Items, 2)
	require.Equal(t, "2024-03-06", list.Items[0].StartDate)

	rr = do(t, router, http.MethodGet, "/v1/runs/latest", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var latest RunView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &latest))
	require.Equal(t, "18:00:00", latest.StartTime)

	emptyRouter, _ := newTestRouter(t, domain.NewService(&mockRepo{}, nil, nil))
	rr = do(t, emptyRouter, http.MethodGet, "/v1/runs/latest", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSyncRequiresWriteScope(t *testing.T) {
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), staticTokens{}, &blockingFetcher{}))

	rr := do(t, router, http.MethodPost, "/v1/sync", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodPost, "/v1/sync", "", auth.ScopeRunsRead)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSyncEndpoint(t *testing.T) {
	repo := seededRepo()
	router, _ := newTestRouter(t, domain.NewService(repo, staticTokens{}, &blockingFetcher{}))

	rr := do(t, router, http.MethodPost, "/v1/sync", `{"end_date":"2024-03-10"}`, auth.ScopeRunsWrite)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SyncResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Inserted)
	require.Equal(t, time.Date(2024, 3, 6, 18, 1, 0, 0, time.UTC), resp.WindowStart.UTC())
	require.Equal(t, "2024-03-08", resp.Latest.StartDate)
	require.Len(t, repo.records, 3)

	rr = do(t, router, http.MethodPost, "/v1/sync", `{"end_date":"10/03/2024"}`, auth.ScopeRunsWrite)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSyncRejectsConcurrentRuns(t *testing.T) {
	fetcher := &blockingFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	router, _ := newTestRouter(t, domain.NewService(seededRepo(), staticTokens{}, fetcher))

	done := make(chan int)
	go func() {
		rr := do(t, router, http.MethodPost, "/v1/sync", "", auth.ScopeRunsWrite)
		done <- rr.Code
	}()
	<-fetcher.entered

	rr := do(t, router, http.MethodPost, "/v1/sync", "", auth.ScopeRunsWrite)
	require.Equal(t, http.StatusConflict, rr.Code)

	close(fetcher.release)
	require.Equal(t, http.StatusOK, <-done)
}
