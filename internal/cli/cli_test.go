package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/runlog/internal/auth"
	"example.com/runlog/internal/domain"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"sync", "weekly", "runs", "last", "import", "query", "migrate", "token"} {
		require.True(t, names[want], "missing command %s", want)
	}
}

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	start, end, err := dateRange("2024-03-04", "", now, time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2024-03-04", start.Format(domain.DateLayout))
	require.Equal(t, "2024-03-10", end.Format(domain.DateLayout))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	_, end, err = dateRange("2024-03-04", "", now, tokyo)
	require.NoError(t, err)
	require.Equal(t, "2024-03-11", end.Format(domain.DateLayout))

	_, _, err = dateRange("", "2024-03-10", now, time.UTC)
	require.ErrorIs(t, err, domain.ErrConfig)
	_, _, err = dateRange("2024-03-10", "2024-03-04", now, time.UTC)
	require.ErrorIs(t, err, domain.ErrConfig)
	_, _, err = dateRange("04/03/2024", "", now, time.UTC)
	require.ErrorIs(t, err, domain.ErrConfig)
}

func TestWeeklyWriterFormats(t *testing.T) {
	for _, f := range []string{"table", "csv", "html"} {
		w, err := weeklyWriter(f)
		require.NoError(t, err)
		require.NotNil(t, w)
	}
	_, err := weeklyWriter("xlsx")
	require.ErrorIs(t, err, domain.ErrConfig)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenIssueCommand(t *testing.T) {
	t.Setenv("RUNLOG_JWT_SECRET", "cli-secret")
	chdir(t, t.TempDir())

	out, err := runRoot(t, "token", "issue", "--subject", "cron", "--scope", "runs:write")
	require.NoError(t, err)

	claims, err := auth.Parse(strings.TrimSpace(out), auth.Config{Secret: "cli-secret", Issuer: "runlog"})
	require.NoError(t, err)
	require.Equal(t, "cron", claims.Subject)
	require.True(t, claims.HasScope(auth.ScopeRunsWrite))
}

func TestTokenStatusCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"strava":{"client_id":"1","client_secret":"s","refresh_token":"r","access_token":"a","expires_at":1}}`), 0o600))
	t.Setenv("RUNLOG_CREDENTIALS_PATH", path)

	out, err := runRoot(t, "token", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Access token expired")
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
