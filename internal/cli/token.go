package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/auth"
	"example.com/runlog/internal/credentials"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect and refresh Strava credentials, or issue API tokens",
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the stored Strava access token has expired",
	Args:  cobra.NoArgs,
	RunE:  runTokenStatus,
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the Strava access token if it has expired",
	Args:  cobra.NoArgs,
	RunE:  runTokenRefresh,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a bearer token for the HTTP API",
	Long: `Sign an HS256 bearer token with auth.jwt_secret.

Examples:
  runlog token issue --subject me --scope runs:read
  runlog token issue --subject cron --scope runs:read --scope runs:write --ttl 720h`,
	Args: cobra.NoArgs,
	RunE: runTokenIssue,
}

var (
	issueSubject string
	issueScopes  []string
	issueTTL     time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenStatusCmd, tokenRefreshCmd, tokenIssueCmd)

	tokenIssueCmd.Flags().StringVar(&issueSubject, "subject", "", "token subject")
	tokenIssueCmd.Flags().StringSliceVar(&issueScopes, "scope", []string{auth.ScopeRunsRead}, "granted scope (repeatable)")
	tokenIssueCmd.Flags().DurationVar(&issueTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("subject")
}

func credentialManager() *credentials.Manager {
	return credentials.NewManager(
		credentials.NewFileStore(cfg.CredentialsPath),
		credentials.WithTokenURL(cfg.Strava.TokenURL),
	)
}

func runTokenStatus(cmd *cobra.Command, args []string) error {
	creds, expired, err := credentialManager().Status()
	if err != nil {
		return err
	}
	expiresAt := time.Unix(creds.ExpiresAt, 0).In(cfg.Location())
	state := "valid"
	if expired {
		state = "expired"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Access token %s (expires_at %s)\n", state, expiresAt.Format(time.RFC3339))
	return nil
}

func runTokenRefresh(cmd *cobra.Command, args []string) error {
	mgr := credentialManager()
	if _, err := mgr.AccessToken(cmd.Context()); err != nil {
		return err
	}
	creds, _, err := mgr.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Access token valid until %s\n", time.Unix(creds.ExpiresAt, 0).In(cfg.Location()).Format(time.RFC3339))
	return nil
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	token, err := auth.Issue(auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer}, issueSubject, issueScopes, issueTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
