package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "runlog"}

func TestParseIssuedToken(t *testing.T) {
	token, err := Issue(testConfig, "athlete-1", []string{ScopeRunsRead}, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "athlete-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeRunsRead))
	require.False(t, claims.HasScope(ScopeRunsWrite))
}

func TestParseRejectsBadTokens(t *testing.T) {
	_, err := Parse("", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)

	wrongIssuer, err := Issue(Config{Secret: testConfig.Secret, Issuer: "other"}, "a", nil, time.Hour)
	require.NoError(t, err)
	_, err = Parse(wrongIssuer, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, err := Issue(testConfig, "a", nil, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "iss": "runlog"}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)
	_, err = Parse(noExp, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScopesAsSpaceSeparatedString(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "a",
		"iss":    "runlog",
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": "runs:read runs:write",
	}).SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeRunsWrite))
}

func TestMiddleware(t *testing.T) {
	handler := NewMiddleware(testConfig, PublicPaths).Wrap(
		RequireScope(ScopeRunsWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})),
	)
	publicHandler := NewMiddleware(testConfig, PublicPaths).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	publicHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sync", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	readOnly, err := Issue(testConfig, "a", []string{ScopeRunsRead}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+readOnly)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	writer, err := Issue(testConfig, "a", []string{ScopeRunsWrite}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer "+writer)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
