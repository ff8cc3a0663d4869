// Package credentials loads, refreshes and persists the JSON credential bundle
// holding Strava OAuth tokens and Postgres connection details.
package credentials

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"example.com/runlog/internal/domain"
)

// Section names in the credential file.
const (
	SectionStrava   = "strava"
	SectionPostgres = "postgres"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bundle maps provider names to their raw credential objects. Unknown sections and keys
// survive a load/save round trip.
type Bundle map[string]map[string]any

// StravaCredentials is the typed view of the "strava" section.
type StravaCredentials struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	RefreshToken string `validate:"required"`
	AccessToken  string
	ExpiresAt    int64
	AuthURL      string `validate:"omitempty,url"`
}

// Expired reports whether the access token is no longer usable at unix time now.
func (s StravaCredentials) Expired(now int64) bool {
	return s.AccessToken == "" || now >= s.ExpiresAt
}

// PostgresCredentials is the typed view of the "postgres" section.
type PostgresCredentials struct {
	User     string `validate:"required"`
	Password string
	Host     string `validate:"required"`
	Port     string `validate:"omitempty,numeric"`
	Database string `validate:"required"`
}

// DecodeBundle parses a credential document, keeping numbers exact.
func DecodeBundle(data []byte) (Bundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	if b == nil {
		b = Bundle{}
	}
	return b, nil
}

// Strava returns the validated "strava" section.
func (b Bundle) Strava() (StravaCredentials, error) {
	section, ok := b[SectionStrava]
	if !ok {
		return StravaCredentials{}, fmt.Errorf("%w: credential bundle has no %q section", domain.ErrConfig, SectionStrava)
	}
	creds := StravaCredentials{
		ClientID:     stringField(section, "client_id"),
		ClientSecret: stringField(section, "client_secret"),
		RefreshToken: stringField(section, "refresh_token"),
		AccessToken:  stringField(section, "access_token"),
		AuthURL:      stringField(section, "auth_url"),
	}
	expires, err := int64Field(section, "expires_at")
	if err != nil {
		return StravaCredentials{}, fmt.Errorf("%w: strava.expires_at: %v", domain.ErrConfig, err)
	}
	creds.ExpiresAt = expires
	if err := validate.Struct(creds); err != nil {
		return StravaCredentials{}, fmt.Errorf("%w: strava credentials: %v", domain.ErrConfig, err)
	}
	return creds, nil
}

// Postgres returns the validated "postgres" section.
func (b Bundle) Postgres() (PostgresCredentials, error) {
	section, ok := b[SectionPostgres]
	if !ok {
		return PostgresCredentials{}, fmt.Errorf("%w: credential bundle has no %q section", domain.ErrConfig, SectionPostgres)
	}
	creds := PostgresCredentials{
		User:     stringField(section, "user"),
		Password: stringField(section, "password"),
		Host:     stringField(section, "host"),
		Port:     stringField(section, "port"),
		Database: stringField(section, "database"),
	}
	if err := validate.Struct(creds); err != nil {
		return PostgresCredentials{}, fmt.Errorf("%w: postgres credentials: %v", domain.ErrConfig, err)
	}
	return creds, nil
}

// PostgresDSN builds a postgres:// connection URL from the "postgres" section.
func (b Bundle) PostgresDSN() (string, error) {
	creds, err := b.Postgres()
	if err != nil {
		return "", err
	}
	port := creds.Port
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(creds.Host, port),
		Path:   "/" + creds.Database,
	}
	if creds.Password != "" {
		u.User = url.UserPassword(creds.User, creds.Password)
	} else {
		u.User = url.User(creds.User)
	}
	return u.String(), nil
}

// Merge copies every key of values into the named section, creating it if needed.
func (b Bundle) Merge(section string, values map[string]any) {
	dst, ok := b[section]
	if !ok || dst == nil {
		dst = make(map[string]any, len(values))
		b[section] = dst
	}
	for k, v := range values {
		dst[k] = v
	}
}

func stringField(section map[string]any, key string) string {
	switch v := section[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func int64Field(section map[string]any, key string) (int64, error) {
	switch v := section[key].(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		return int64(f), err
	case float64:
		return int64(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
